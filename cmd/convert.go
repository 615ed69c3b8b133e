package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/sw33tLie/acctsync/internal/utils"
	"github.com/sw33tLie/acctsync/pkg/pipeline"
	"github.com/sw33tLie/acctsync/pkg/storage"
)

// convertCmd implements: acctsync convert
//
//	--src string                 Manifest to read (required)
//	--dst-dir string             Directory holding the snapshots (required)
//	--target-uid-ranges strings  Inclusive uid ranges, e.g. 1000-1999 (required)
//	--target-gids strings        Group names to keep (default: all)
//	--user-class / --group-class Resource types of user and group records
//	--users-key / --groups-key   Snapshot keys, also used as file names
//	--skip-absent                Drop records with ensure => 'absent' (default true)
var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Extract users and groups from a manifest and report changes",
	Run: func(cmd *cobra.Command, _ []string) {
		ranges, err := uidRanges("convert.target_uid_ranges")
		if err != nil {
			exitWithFailure(err)
		}

		cfg := pipeline.ConvertConfig{
			Src:          viper.GetString("convert.src"),
			DstDir:       viper.GetString("convert.dst_dir"),
			Ranges:       ranges,
			TargetGroups: utils.SplitList(viper.GetStringSlice("convert.target_gids")),
			UserType:     viper.GetString("convert.user_class"),
			GroupType:    viper.GetString("convert.group_class"),
			UsersKey:     viper.GetString("convert.users_output_keyname"),
			GroupsKey:    viper.GetString("convert.groups_output_keyname"),
			KeepAbsent:   !viper.GetBool("convert.skip_absent"),
			Log:          utils.Log,
		}

		res, err := runConvert(cmd.Context(), cfg, viper.GetString("db"))
		if err != nil {
			exitWithFailure(err)
		}
		printResult(res)
	},
}

// runConvert validates the input, then runs the conversion while holding the
// lock of the snapshot directory. Nothing is created on disk when the source
// is missing.
func runConvert(ctx context.Context, cfg pipeline.ConvertConfig, dbPath string) (*pipeline.ConvertResult, error) {
	if cfg.Src == "" || cfg.DstDir == "" {
		return nil, errMissing("--src and --dst-dir")
	}
	if err := pipeline.CheckSource(cfg.Src); err != nil {
		return nil, err
	}

	lock, err := utils.NewDirLock(cfg.DstDir)
	if err != nil {
		return nil, err
	}
	if err := lock.Lock(); err != nil {
		return nil, err
	}
	defer lock.Unlock()

	if dbPath != "" {
		db, err := storage.Open(dbPath)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		cfg.DB = db
	}

	return pipeline.Convert(ctx, cfg)
}

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.Flags().String("src", "", "Manifest file to read")
	convertCmd.Flags().String("dst-dir", "", "Directory holding the snapshot files")
	convertCmd.Flags().StringSlice("target-uid-ranges", nil, "Inclusive uid ranges to keep, e.g. 1000-1999,5000")
	convertCmd.Flags().StringSlice("target-gids", nil, "Group names to keep (default: all groups)")
	convertCmd.Flags().String("user-class", pipeline.DefaultUserType, "Resource type of user records")
	convertCmd.Flags().String("group-class", pipeline.DefaultGroupType, "Resource type of group records")
	convertCmd.Flags().String("users-key", pipeline.DefaultUsersKey, "Snapshot key and file name for users")
	convertCmd.Flags().String("groups-key", pipeline.DefaultGroupsKey, "Snapshot key and file name for groups")
	convertCmd.Flags().Bool("skip-absent", true, "Drop records declared with ensure => 'absent'")

	viper.BindPFlag("convert.src", convertCmd.Flags().Lookup("src"))
	viper.BindPFlag("convert.dst_dir", convertCmd.Flags().Lookup("dst-dir"))
	viper.BindPFlag("convert.target_uid_ranges", convertCmd.Flags().Lookup("target-uid-ranges"))
	viper.BindPFlag("convert.target_gids", convertCmd.Flags().Lookup("target-gids"))
	viper.BindPFlag("convert.user_class", convertCmd.Flags().Lookup("user-class"))
	viper.BindPFlag("convert.group_class", convertCmd.Flags().Lookup("group-class"))
	viper.BindPFlag("convert.users_output_keyname", convertCmd.Flags().Lookup("users-key"))
	viper.BindPFlag("convert.groups_output_keyname", convertCmd.Flags().Lookup("groups-key"))
	viper.BindPFlag("convert.skip_absent", convertCmd.Flags().Lookup("skip-absent"))
}
