package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/sw33tLie/acctsync/pkg/storage"
)

var changesCmd = &cobra.Command{
	Use:   "changes",
	Short: "Show recent account changes (default 50)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, err := openHistory()
		if err != nil {
			return err
		}
		defer db.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		changes, err := db.ListRecentChanges(context.Background(), limit)
		if err != nil {
			return err
		}
		for _, c := range changes {
			ts := c.OccurredAt.Local().Format("2006-01-02 15:04:05")
			fmt.Printf("%s  %-7s  %-14s  %s  (%s)\n", ts, c.ChangeType, c.Kind, c.Name, c.Source)
		}
		return nil
	},
}

// openHistory opens the change history configured with --db.
func openHistory() (*storage.DB, error) {
	dbPath := viper.GetString("db")
	if dbPath == "" {
		dbPath = "acctsync.sqlite"
	}
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("database not found: %s", dbPath)
	}
	return storage.Open(dbPath)
}

func init() {
	rootCmd.AddCommand(changesCmd)
	changesCmd.Flags().Int("limit", 50, "Number of recent changes to show")
}
