// Package reconcile compares the users that should exist with the accounts
// present on the host and computes which accounts to add and delete.
package reconcile

import (
	"sort"

	"github.com/sw33tLie/acctsync/pkg/accounts"
	"github.com/sw33tLie/acctsync/pkg/sysaccounts"
)

// TargetUser is a user that should exist on the host. Fields holds the full
// record as supplied, and is what gets reported in the add list.
type TargetUser struct {
	Name   string
	UID    int
	GID    string
	Fields map[string]any
}

// Removal is an account to delete.
type Removal struct {
	Name string `json:"name"`
	UID  int    `json:"uid"`
}

// Plan lists the accounts to add and delete.
type Plan struct {
	ToAdd    []TargetUser
	ToDelete []Removal
}

// Changed reports whether the plan holds any action.
func (p Plan) Changed() bool {
	return len(p.ToAdd)+len(p.ToDelete) > 0
}

// AddRecords returns the full records of the users to add.
func (p Plan) AddRecords() []map[string]any {
	out := make([]map[string]any, 0, len(p.ToAdd))
	for _, u := range p.ToAdd {
		out = append(out, u.Fields)
	}
	return out
}

// SelectTargets keeps the users whose gid is one of targetGIDs and whose uid
// is in uids, sorted by name.
func SelectTargets(users []TargetUser, targetGIDs []string, uids accounts.IDSet) []TargetUser {
	gids := make(map[string]struct{}, len(targetGIDs))
	for _, g := range targetGIDs {
		gids[g] = struct{}{}
	}

	var out []TargetUser
	for _, u := range users {
		if _, ok := gids[u.GID]; !ok {
			continue
		}
		if !uids.Contains(u.UID) {
			continue
		}
		out = append(out, u)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Compute builds the plan for targets against the live accounts. Only live
// accounts with a uid in uids are considered. Accounts are matched by uid
// alone, so a rename with the same uid is not an action.
func Compute(targets []TargetUser, live []sysaccounts.Account, uids accounts.IDSet) Plan {
	var current []sysaccounts.Account
	currentUIDs := make(map[int]struct{})
	for _, a := range live {
		if uids.Contains(a.UID) {
			current = append(current, a)
			currentUIDs[a.UID] = struct{}{}
		}
	}
	targetUIDs := make(map[int]struct{}, len(targets))
	for _, u := range targets {
		targetUIDs[u.UID] = struct{}{}
	}

	var plan Plan
	for _, u := range targets {
		if _, ok := currentUIDs[u.UID]; !ok {
			plan.ToAdd = append(plan.ToAdd, u)
		}
	}
	for _, a := range current {
		if _, ok := targetUIDs[a.UID]; !ok {
			plan.ToDelete = append(plan.ToDelete, Removal{Name: a.Name, UID: a.UID})
		}
	}
	return plan
}
