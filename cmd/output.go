package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/viper"
	"github.com/sw33tLie/acctsync/internal/utils"
	"github.com/sw33tLie/acctsync/pkg/accounts"
)

type failure struct {
	Failed bool   `json:"failed"`
	Msg    string `json:"msg"`
}

// printResult writes v to stdout as indented JSON.
func printResult(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		exitWithFailure(fmt.Errorf("encode result: %w", err))
	}
	fmt.Println(string(out))
}

// exitWithFailure reports err in the result envelope and exits with status 1.
func exitWithFailure(err error) {
	utils.Log.Debugf("Failing: %v", err)
	fmt.Println(string(failureJSON(err)))
	os.Exit(1)
}

func failureJSON(err error) []byte {
	out, _ := json.MarshalIndent(failure{Failed: true, Msg: err.Error()}, "", "  ")
	return out
}

// uidRanges parses the ranges configured under key.
func uidRanges(key string) ([]accounts.Range, error) {
	specs := utils.SplitList(viper.GetStringSlice(key))
	if len(specs) == 0 {
		return nil, fmt.Errorf("no target uid ranges given (%s)", key)
	}
	return accounts.ParseRanges(specs)
}

func errMissing(what string) error {
	return fmt.Errorf("missing required parameter: %s", what)
}
