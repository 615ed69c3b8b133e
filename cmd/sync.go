package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/sw33tLie/acctsync/internal/utils"
	"github.com/sw33tLie/acctsync/pkg/pipeline"
	"github.com/sw33tLie/acctsync/pkg/sysaccounts"
)

// syncCmd implements: acctsync sync
//
//	--users string               JSON object of users, or a target_users snapshot (.yml)
//	--users-key string           Key to read from a snapshot file
//	--target-uid-ranges strings  Inclusive uid ranges managed on this host (required)
//	--target-gids strings        Gids or group names of the users to manage (required)
//	--passwd string              Account database to compare against
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "List the accounts to add and delete on this host",
	Run: func(cmd *cobra.Command, _ []string) {
		usersPath := viper.GetString("sync.users")
		if usersPath == "" {
			exitWithFailure(errMissing("--users"))
		}
		ranges, err := uidRanges("sync.target_uid_ranges")
		if err != nil {
			exitWithFailure(err)
		}
		users, err := pipeline.LoadTargetUsers(usersPath, viper.GetString("sync.users_key"))
		if err != nil {
			exitWithFailure(err)
		}

		res, err := pipeline.Sync(cmd.Context(), pipeline.SyncConfig{
			Users:      users,
			Ranges:     ranges,
			TargetGIDs: utils.SplitList(viper.GetStringSlice("sync.target_gids")),
			Source:     sysaccounts.NewPasswdFile(viper.GetString("sync.passwd")),
			Log:        utils.Log,
		})
		if err != nil {
			exitWithFailure(err)
		}
		printResult(res)
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().String("users", "", "Target users: a JSON object or a snapshot file written by convert")
	syncCmd.Flags().String("users-key", pipeline.DefaultUsersKey, "Key holding the users in a snapshot file")
	syncCmd.Flags().StringSlice("target-uid-ranges", nil, "Inclusive uid ranges managed on this host, e.g. 1000-1999")
	syncCmd.Flags().StringSlice("target-gids", nil, "Gids or group names of the users to manage")
	syncCmd.Flags().String("passwd", sysaccounts.DefaultPasswdPath, "Account database to compare against")

	viper.BindPFlag("sync.users", syncCmd.Flags().Lookup("users"))
	viper.BindPFlag("sync.users_key", syncCmd.Flags().Lookup("users-key"))
	viper.BindPFlag("sync.target_uid_ranges", syncCmd.Flags().Lookup("target-uid-ranges"))
	viper.BindPFlag("sync.target_gids", syncCmd.Flags().Lookup("target-gids"))
	viper.BindPFlag("sync.passwd", syncCmd.Flags().Lookup("passwd"))
}
