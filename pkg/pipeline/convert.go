package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/sw33tLie/acctsync/pkg/accounts"
	"github.com/sw33tLie/acctsync/pkg/manifest"
	"github.com/sw33tLie/acctsync/pkg/snapshot"
	"github.com/sw33tLie/acctsync/pkg/storage"
)

// ConvertConfig holds everything Convert needs for one manifest.
type ConvertConfig struct {
	Src    string
	DstDir string

	Ranges       []accounts.Range
	TargetGroups []string // group names to keep; empty keeps all

	UserType  string // defaults to DefaultUserType
	GroupType string // defaults to DefaultGroupType
	UsersKey  string // defaults to DefaultUsersKey
	GroupsKey string // defaults to DefaultGroupsKey

	// KeepAbsent materializes records declared with ensure => 'absent',
	// which are dropped by default.
	KeepAbsent bool

	DB  *storage.DB // optional; records the run when set
	Log Logger      // optional; nil = no logging
}

func (c *ConvertConfig) applyDefaults() {
	if c.UserType == "" {
		c.UserType = DefaultUserType
	}
	if c.GroupType == "" {
		c.GroupType = DefaultGroupType
	}
	if c.UsersKey == "" {
		c.UsersKey = DefaultUsersKey
	}
	if c.GroupsKey == "" {
		c.GroupsKey = DefaultGroupsKey
	}
}

// ConvertResult is the outcome of Convert.
type ConvertResult struct {
	Changed  bool     `json:"changed"`
	Warnings []string `json:"warnings"`
	Msg      string   `json:"msg"`
	RunID    string   `json:"run_id,omitempty"`

	Summaries []snapshot.Summary `json:"-"`
}

// Convert parses the manifest at cfg.Src, extracts its groups and users and
// compares them with the snapshots in cfg.DstDir, rewriting the kinds that
// changed. A missing source or a syntax error aborts before anything is
// written.
func Convert(ctx context.Context, cfg ConvertConfig) (*ConvertResult, error) {
	cfg.applyDefaults()
	log := loggerOrNop(cfg.Log)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := CheckSource(cfg.Src); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(cfg.Src)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", cfg.Src, err)
	}

	decl, err := manifest.ParseSource(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", cfg.Src, err)
	}
	log.Debugf("Parsed class %s with %d records", decl.Name, len(decl.Records))

	m := accounts.NewMaterializer(accounts.Options{
		GroupType:  cfg.GroupType,
		UserType:   cfg.UserType,
		SkipAbsent: !cfg.KeepAbsent,
		TargetUIDs: accounts.NewIDSet(cfg.Ranges...),
	})
	inv, warnings := m.Collect(decl)
	for reason, n := range inv.Ignored {
		log.Debugf("Ignored %d records: %s", n, reason)
	}

	resolved, resolveWarnings := inv.ResolveGroups()
	warnings = append(warnings, resolveWarnings...)
	for _, name := range inv.UserNames() {
		if group, ok := resolved[name]; ok {
			log.Debugf("User %s is in group %s", name, group)
		}
	}

	if pruned := inv.PruneGroups(cfg.TargetGroups); len(pruned) > 0 {
		log.Debugf("Dropped %d groups outside the target list: %v", len(pruned), pruned)
	}

	if err := os.MkdirAll(cfg.DstDir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", cfg.DstDir, err)
	}

	engine := snapshot.NewEngine(snapshot.NewStore(cfg.DstDir))
	res, err := engine.Run(
		snapshot.Kind{Key: cfg.GroupsKey, Data: inv.GroupFields()},
		snapshot.Kind{Key: cfg.UsersKey, Data: inv.UserFields()},
	)
	if err != nil {
		return nil, err
	}

	if warnings == nil {
		warnings = []string{}
	}
	for _, w := range warnings {
		log.Warnf("%s", w)
	}
	for _, msg := range res.Messages() {
		log.Infof("%s", msg)
	}

	result := &ConvertResult{
		Changed:   res.Changed,
		Warnings:  warnings,
		Msg:       res.Message(),
		Summaries: res.Summaries,
	}

	if cfg.DB != nil && res.Changed {
		run, changes := historyFor(cfg.Src, result)
		id, err := cfg.DB.RecordRun(ctx, run, changes)
		if err != nil {
			log.Warnf("Could not record run for %s: %v", cfg.Src, err)
		} else {
			result.RunID = id
		}
	}
	return result, nil
}

// historyFor turns a result into a run row and its entity changes. Kinds
// seen for the first time contribute no entity changes.
func historyFor(src string, res *ConvertResult) (storage.Run, []storage.Change) {
	run := storage.Run{
		Source:   src,
		Changed:  res.Changed,
		Message:  res.Msg,
		Warnings: len(res.Warnings),
	}
	var changes []storage.Change
	for _, s := range res.Summaries {
		if s.Initialized {
			run.Initialized = true
			continue
		}
		changes = appendChanges(changes, s.Key, storage.ChangeAdded, s.Added)
		changes = appendChanges(changes, s.Key, storage.ChangeUpdated, s.Updated)
		changes = appendChanges(changes, s.Key, storage.ChangeRemoved, s.Removed)
	}
	return run, changes
}

func appendChanges(changes []storage.Change, kind, changeType string, names []string) []storage.Change {
	for _, name := range names {
		changes = append(changes, storage.Change{Kind: kind, Name: name, ChangeType: changeType})
	}
	return changes
}

// CheckSource returns ErrSourceNotFound when path does not exist. Callers
// run it before creating anything on disk.
func CheckSource(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrSourceNotFound, path)
	}
	return nil
}
