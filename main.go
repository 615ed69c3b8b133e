package main

import "github.com/sw33tLie/acctsync/cmd"

func main() {
	cmd.Execute()
}
