package accounts

import (
	"errors"
	"fmt"

	"github.com/sw33tLie/acctsync/pkg/manifest"
)

var (
	ErrMissingUID = errors.New("missing uid")
	ErrInvalidUID = errors.New("uid is not an integer")
)

// RecordError rejects a single record without aborting the run.
type RecordError struct {
	Type string
	Name string
	Line int
	Err  error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s %q (line %d): %v", e.Type, e.Name, e.Line, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// Options controls which records are materialized.
type Options struct {
	// GroupType and UserType are the full '::' joined resource types of
	// group and user records.
	GroupType string
	UserType  string
	// SkipAbsent drops records declared with ensure => 'absent'.
	SkipAbsent bool
	// TargetUIDs selects the users to keep.
	TargetUIDs IDSet
}

// Outcome is the result of materializing one record: a GroupOutcome, a
// UserOutcome or Ignored.
type Outcome interface {
	outcome()
}

type GroupOutcome struct {
	Group Group
}

type UserOutcome struct {
	User User
}

// IgnoreReason tells why a record produced no entity.
type IgnoreReason int

const (
	IgnoredAbsent IgnoreReason = iota
	IgnoredUIDOutOfRange
	IgnoredOtherType
)

func (r IgnoreReason) String() string {
	switch r {
	case IgnoredAbsent:
		return "absent"
	case IgnoredUIDOutOfRange:
		return "uid out of range"
	case IgnoredOtherType:
		return "other resource type"
	}
	return "unknown"
}

type Ignored struct {
	Reason IgnoreReason
}

func (GroupOutcome) outcome() {}
func (UserOutcome) outcome()  {}
func (Ignored) outcome()      {}

// Materializer converts raw records into typed entities. It holds no state
// between records.
type Materializer struct {
	opts Options
}

func NewMaterializer(opts Options) *Materializer {
	return &Materializer{opts: opts}
}

// Materialize classifies rec. A user record without an integer uid is
// rejected with a *RecordError.
func (m *Materializer) Materialize(rec manifest.RawRecord) (Outcome, error) {
	attrs := rec.AttributeMap()
	if m.opts.SkipAbsent {
		if ensure, ok := manifest.AsText(attrs["ensure"]); ok && ensure == "absent" {
			return Ignored{Reason: IgnoredAbsent}, nil
		}
	}

	switch rec.Type.String() {
	case m.opts.GroupType:
		g := Group{Name: rec.Name, GID: attrs["gid"]}
		delete(attrs, "gid")
		delete(attrs, "name")
		g.Attrs = attrs
		return GroupOutcome{Group: g}, nil

	case m.opts.UserType:
		raw, ok := attrs["uid"]
		if !ok {
			return nil, m.reject(rec, ErrMissingUID)
		}
		uid, ok := manifest.AsInt(raw)
		if !ok {
			return nil, m.reject(rec, fmt.Errorf("%w: %s", ErrInvalidUID, raw))
		}
		if !m.opts.TargetUIDs.Contains(uid) {
			return Ignored{Reason: IgnoredUIDOutOfRange}, nil
		}
		u := User{Name: rec.Name, UID: uid, GID: attrs["gid"]}
		delete(attrs, "uid")
		delete(attrs, "gid")
		delete(attrs, "name")
		u.Attrs = attrs
		return UserOutcome{User: u}, nil
	}
	return Ignored{Reason: IgnoredOtherType}, nil
}

func (m *Materializer) reject(rec manifest.RawRecord, err error) *RecordError {
	return &RecordError{Type: rec.Type.String(), Name: rec.Name, Line: rec.Line, Err: err}
}

// Collect materializes every record of decl into a fresh Inventory.
// Rejected records are reported as warnings and skipped.
func (m *Materializer) Collect(decl manifest.ClassDeclaration) (*Inventory, []string) {
	inv := NewInventory()
	var warnings []string
	for _, rec := range decl.Records {
		out, err := m.Materialize(rec)
		if err != nil {
			warnings = append(warnings, "skipping "+err.Error())
			continue
		}
		switch o := out.(type) {
		case GroupOutcome:
			inv.AddGroup(o.Group)
		case UserOutcome:
			inv.AddUser(o.User)
		case Ignored:
			inv.Ignored[o.Reason]++
		}
	}
	return inv, warnings
}
