package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "acctsync.sqlite"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordRunAndListChanges(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	first := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	if _, err := db.RecordRun(ctx, Run{StartedAt: first, Source: "site.pp", Changed: true, Initialized: true, Message: "initialized target_users"}, nil); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	second := first.Add(time.Hour)
	id, err := db.RecordRun(ctx, Run{StartedAt: second, Source: "site.pp", Changed: true, Message: "added target_users: bob"}, []Change{
		{Kind: "target_users", Name: "bob", ChangeType: ChangeAdded},
		{Kind: "target_users", Name: "alice", ChangeType: ChangeUpdated},
	})
	if err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	if id == "" {
		t.Fatal("expected a generated run id")
	}

	changes, err := db.ListRecentChanges(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecentChanges: %v", err)
	}
	if len(changes) != 2 {
		t.Fatalf("expected 2 changes, got %d", len(changes))
	}
	if changes[0].Name != "alice" || changes[1].Name != "bob" {
		t.Fatalf("unexpected order: %+v", changes)
	}
	if !changes[0].OccurredAt.Equal(second) || changes[0].Source != "site.pp" || changes[0].RunID != id {
		t.Fatalf("unexpected change metadata: %+v", changes[0])
	}

	runs, err := db.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != id || !runs[1].Initialized {
		t.Fatalf("unexpected runs: %+v", runs)
	}
}

func TestGetRun(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	id, err := db.RecordRun(ctx, Run{Source: "site.pp", Changed: true, Warnings: 2}, []Change{
		{Kind: "target_groups", Name: "ops", ChangeType: ChangeRemoved},
	})
	if err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	run, changes, err := db.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Warnings != 2 || !run.Changed || len(changes) != 1 || changes[0].ChangeType != ChangeRemoved {
		t.Fatalf("unexpected run %+v / changes %+v", run, changes)
	}

	if _, _, err := db.GetRun(ctx, "missing"); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}

func TestGetStats(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.RecordRun(ctx, Run{Source: "site.pp", Changed: true}, []Change{
		{Kind: "target_users", Name: "a", ChangeType: ChangeAdded},
		{Kind: "target_users", Name: "b", ChangeType: ChangeAdded},
		{Kind: "target_users", Name: "c", ChangeType: ChangeRemoved},
		{Kind: "target_groups", Name: "ops", ChangeType: ChangeUpdated},
	})
	if err != nil {
		t.Fatalf("RecordRun: %v", err)
	}

	stats, err := db.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	want := []KindStats{
		{Kind: "target_groups", Updated: 1},
		{Kind: "target_users", Added: 2, Removed: 1},
	}
	if len(stats) != len(want) || stats[0] != want[0] || stats[1] != want[1] {
		t.Fatalf("stats = %+v, want %+v", stats, want)
	}
}
