// Package pipeline runs the convert and sync flows end to end so the CLI and
// library users share one implementation.
package pipeline

import "errors"

// Logger abstracts logging so callers can use logrus, stdlib log, or any
// other logger that satisfies this interface.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// nopLogger silently discards all messages.
type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

func loggerOrNop(l Logger) Logger {
	if l == nil {
		return nopLogger{}
	}
	return l
}

var (
	// ErrSourceNotFound is returned when an input file does not exist.
	ErrSourceNotFound = errors.New("file not found")
	// ErrNoTargetGIDs is returned by Sync when no target gid is given.
	ErrNoTargetGIDs = errors.New("at least one target gid is required")
)

// Defaults matching what the manifests in the wild use.
const (
	DefaultUserType  = "user"
	DefaultGroupType = "group"
	DefaultUsersKey  = "target_users"
	DefaultGroupsKey = "target_groups"
)
