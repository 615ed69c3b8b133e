package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// dbCmd represents the db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Interact with the change history database",
}

// shellCmd represents the shell command
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive shell to the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath := viper.GetString("db")
		if dbPath == "" {
			dbPath = "acctsync.sqlite"
		}

		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return fmt.Errorf("database file not found: %s", dbPath)
		}

		// Check if sqlite3 is in PATH
		sqlitePath, err := exec.LookPath("sqlite3")
		if err != nil {
			return fmt.Errorf("sqlite3 command not found in your PATH. Please install it to use the db shell")
		}

		fmt.Println("--> Database schema:")
		schemaCmd := exec.Command(sqlitePath, dbPath, ".schema")
		schemaCmd.Stdout = os.Stdout
		schemaCmd.Stderr = os.Stderr
		if err := schemaCmd.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: couldn't retrieve schema: %v\n", err)
		}
		fmt.Println("\n--> Starting interactive shell... (Ctrl+D to exit)")

		c := exec.Command(sqlitePath, dbPath)
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr

		return c.Run()
	},
}

// runsCmd lists recorded convert runs.
var runsCmd = &cobra.Command{
	Use:   "runs [run-id]",
	Short: "List recorded convert runs, or the changes of one run",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openHistory()
		if err != nil {
			return err
		}
		defer db.Close()

		if len(args) == 1 {
			run, changes, err := db.GetRun(context.Background(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s  %s  %s\n", run.StartedAt.Local().Format("2006-01-02 15:04:05"), run.Source, run.Message)
			for _, c := range changes {
				fmt.Printf("  %-7s  %-14s  %s\n", c.ChangeType, c.Kind, c.Name)
			}
			return nil
		}

		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := db.ListRuns(context.Background(), limit)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tSTARTED\tSOURCE\tWARNINGS\tMESSAGE")
		for _, r := range runs {
			msg := r.Message
			if r.Initialized && msg == "" {
				msg = "(initialized)"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Source, r.Warnings, msg)
		}
		return w.Flush()
	},
}

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints how many changes were recorded per snapshot key.",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openHistory()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats(context.Background())
		if err != nil {
			return err
		}

		if len(stats) == 0 {
			fmt.Println("No data in the database to generate stats.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "KIND\tADDED\tUPDATED\tREMOVED\t")

		var totalAdded, totalUpdated, totalRemoved int
		for _, s := range stats {
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\t\n", s.Kind, s.Added, s.Updated, s.Removed)
			totalAdded += s.Added
			totalUpdated += s.Updated
			totalRemoved += s.Removed
		}

		fmt.Fprintln(w, " \t \t \t \t")
		fmt.Fprintf(w, "TOTAL\t%d\t%d\t%d\t\n", totalAdded, totalUpdated, totalRemoved)

		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(shellCmd)
	dbCmd.AddCommand(runsCmd)
	dbCmd.AddCommand(statsCmd)
	runsCmd.Flags().Int("limit", 50, "Number of recent runs to show")
}
