// Package accounts turns parsed manifest records into user and group
// entities and resolves the group each user belongs to.
package accounts

import (
	"sort"

	"github.com/sw33tLie/acctsync/pkg/manifest"
)

// Group is a group record keyed by its declared name.
type Group struct {
	Name string
	// GID is nil when the record does not declare one.
	GID   manifest.Value
	Attrs map[string]manifest.Value
}

// User is a user record keyed by its declared name.
type User struct {
	Name string
	UID  int
	// GID is the raw group reference: a numeric id or a group name.
	GID   manifest.Value
	Attrs map[string]manifest.Value
}

// Fields flattens the group into the mapping that is persisted in snapshots.
func (g Group) Fields() map[string]any {
	out := nativeAttrs(g.Attrs)
	if g.GID != nil {
		out["gid"] = g.GID.Native()
	}
	out["name"] = g.Name
	return out
}

// Fields flattens the user into the mapping that is persisted in snapshots.
func (u User) Fields() map[string]any {
	out := nativeAttrs(u.Attrs)
	if u.GID != nil {
		out["gid"] = u.GID.Native()
	}
	out["uid"] = u.UID
	out["name"] = u.Name
	return out
}

func nativeAttrs(attrs map[string]manifest.Value) map[string]any {
	out := make(map[string]any, len(attrs)+3)
	for k, v := range attrs {
		out[k] = v.Native()
	}
	return out
}

// Inventory accumulates the entities materialized during a single run.
// It must not be reused across manifests.
type Inventory struct {
	Groups map[string]Group
	Users  map[string]User
	// Ignored counts the records that produced no entity, per reason.
	Ignored map[IgnoreReason]int

	gidIndex map[int]string
}

func NewInventory() *Inventory {
	return &Inventory{
		Groups:   make(map[string]Group),
		Users:    make(map[string]User),
		Ignored:  make(map[IgnoreReason]int),
		gidIndex: make(map[int]string),
	}
}

// AddGroup stores g, replacing any group with the same name, and indexes
// its numeric gid.
func (inv *Inventory) AddGroup(g Group) {
	inv.Groups[g.Name] = g
	if gid, ok := manifest.AsInt(g.GID); ok {
		inv.gidIndex[gid] = g.Name
	}
}

// AddUser stores u, replacing any user with the same name.
func (inv *Inventory) AddUser(u User) {
	inv.Users[u.Name] = u
}

// GroupNameForGID returns the name of the last group declared with gid.
func (inv *Inventory) GroupNameForGID(gid int) (string, bool) {
	name, ok := inv.gidIndex[gid]
	return name, ok
}

// UserNames returns the user names in ascending order.
func (inv *Inventory) UserNames() []string {
	return sortedKeys(inv.Users)
}

// GroupNames returns the group names in ascending order.
func (inv *Inventory) GroupNames() []string {
	return sortedKeys(inv.Groups)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GroupFields returns every group flattened for persistence.
func (inv *Inventory) GroupFields() map[string]any {
	out := make(map[string]any, len(inv.Groups))
	for name, g := range inv.Groups {
		out[name] = g.Fields()
	}
	return out
}

// UserFields returns every user flattened for persistence.
func (inv *Inventory) UserFields() map[string]any {
	out := make(map[string]any, len(inv.Users))
	for name, u := range inv.Users {
		out[name] = u.Fields()
	}
	return out
}
