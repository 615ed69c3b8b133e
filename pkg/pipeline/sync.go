package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sw33tLie/acctsync/pkg/accounts"
	"github.com/sw33tLie/acctsync/pkg/reconcile"
	"github.com/sw33tLie/acctsync/pkg/snapshot"
	"github.com/sw33tLie/acctsync/pkg/sysaccounts"
)

// SyncConfig holds everything Sync needs.
type SyncConfig struct {
	Users      []reconcile.TargetUser
	Ranges     []accounts.Range
	TargetGIDs []string
	Source     sysaccounts.Source // defaults to the local passwd file
	Log        Logger             // optional; nil = no logging
}

// SyncLists is the add/delete payload of a sync run.
type SyncLists struct {
	UsersToAdd    []map[string]any    `json:"users_to_add"`
	UsersToDelete []reconcile.Removal `json:"users_to_delete"`
}

// SyncResult is the outcome of Sync.
type SyncResult struct {
	Changed   bool      `json:"changed"`
	Warnings  []string  `json:"warnings"`
	SyncLists SyncLists `json:"sync_lists"`

	Plan reconcile.Plan `json:"-"`
}

// Sync compares the target users with the accounts of cfg.Source whose uid
// is in cfg.Ranges and lists the accounts to add and delete.
func Sync(ctx context.Context, cfg SyncConfig) (*SyncResult, error) {
	log := loggerOrNop(cfg.Log)
	if len(cfg.TargetGIDs) == 0 {
		return nil, ErrNoTargetGIDs
	}
	source := cfg.Source
	if source == nil {
		source = sysaccounts.NewPasswdFile(sysaccounts.DefaultPasswdPath)
	}

	uids := accounts.NewIDSet(cfg.Ranges...)
	targets := reconcile.SelectTargets(cfg.Users, cfg.TargetGIDs, uids)
	log.Debugf("%d of %d users are targets in %s (%d uids)", len(targets), len(cfg.Users), uids, uids.Len())

	live, err := source.Accounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	plan := reconcile.Compute(targets, live, uids)
	for _, u := range plan.ToAdd {
		log.Infof("User to add: %s (uid %d)", u.Name, u.UID)
	}
	for _, r := range plan.ToDelete {
		log.Infof("User to delete: %s (uid %d)", r.Name, r.UID)
	}

	deletes := plan.ToDelete
	if deletes == nil {
		deletes = []reconcile.Removal{}
	}
	return &SyncResult{
		Changed:  plan.Changed(),
		Warnings: []string{},
		SyncLists: SyncLists{
			UsersToAdd:    plan.AddRecords(),
			UsersToDelete: deletes,
		},
		Plan: plan,
	}, nil
}

// LoadTargetUsers reads target users from path. Files ending in .yml or
// .yaml are read as a snapshot written by Convert under key; anything else
// is read as a JSON object of users.
func LoadTargetUsers(path, key string) ([]reconcile.TargetUser, error) {
	if key == "" {
		key = DefaultUsersKey
	}
	if err := CheckSource(path); err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		data, err := snapshot.LoadFile(path, key)
		if err != nil {
			return nil, err
		}
		return reconcile.UsersFromSnapshot(data)
	default:
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return reconcile.LoadUsersJSON(raw)
	}
}
