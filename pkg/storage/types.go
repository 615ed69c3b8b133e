package storage

import "time"

// Change types recorded in entity_changes.
const (
	ChangeAdded   = "added"
	ChangeUpdated = "updated"
	ChangeRemoved = "removed"
)

// Run is one convert invocation that was recorded.
type Run struct {
	ID        string
	StartedAt time.Time
	Source    string
	Changed   bool
	// Initialized is set when at least one kind had no previous snapshot.
	Initialized bool
	Message     string
	Warnings    int
}

// Change captures a single entity change for auditing or printing.
type Change struct {
	OccurredAt time.Time
	RunID      string
	Source     string

	// Kind is the snapshot key the entity lives under, e.g. target_users.
	Kind       string
	Name       string
	ChangeType string // added | updated | removed
}

// KindStats counts the changes recorded for one kind.
type KindStats struct {
	Kind    string
	Added   int
	Updated int
	Removed int
}
