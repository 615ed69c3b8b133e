package accounts

import "github.com/sw33tLie/acctsync/pkg/manifest"

// ResolveGroups maps every user to the name of its group, visiting users in
// ascending name order. A gid matches either a group name directly or the
// numeric gid of a declared group. Users whose group cannot be found get a
// warning and are otherwise left as they are.
func (inv *Inventory) ResolveGroups() (map[string]string, []string) {
	resolved := make(map[string]string, len(inv.Users))
	var warnings []string
	for _, name := range inv.UserNames() {
		group, ok := inv.resolveGroup(inv.Users[name].GID)
		if !ok {
			warnings = append(warnings, "missing group name for user: "+name)
			continue
		}
		resolved[name] = group
	}
	return resolved, warnings
}

func (inv *Inventory) resolveGroup(gid manifest.Value) (string, bool) {
	if gid == nil {
		return "", false
	}
	if text, ok := manifest.AsText(gid); ok {
		if _, exists := inv.Groups[text]; exists {
			return text, true
		}
	}
	if n, ok := manifest.AsInt(gid); ok {
		return inv.GroupNameForGID(n)
	}
	return "", false
}

// PruneGroups removes the groups whose name is not in allowed. An empty
// allow-list keeps every group. It returns the removed names in order.
func (inv *Inventory) PruneGroups(allowed []string) []string {
	if len(allowed) == 0 {
		return nil
	}
	keep := make(map[string]struct{}, len(allowed))
	for _, name := range allowed {
		keep[name] = struct{}{}
	}
	var removed []string
	for _, name := range inv.GroupNames() {
		if _, ok := keep[name]; !ok {
			delete(inv.Groups, name)
			removed = append(removed, name)
		}
	}
	return removed
}
