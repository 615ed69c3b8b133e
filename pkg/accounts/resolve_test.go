package accounts

import (
	"reflect"
	"testing"

	"github.com/sw33tLie/acctsync/pkg/manifest"
)

func intValue(n int) manifest.Value { return manifest.Int(n) }

func TestResolveGroups(t *testing.T) {
	decl := mustParse(t, `class a::b {
  @acme::admin::group {'ops': gid => '1000' }
  @acme::admin::group {'dev': gid => '1001' }
  @acme::admin::user {'zed': uid => '1003', gid => '4242' }
  @acme::admin::user {'alice': uid => '1000', gid => '1000' }
  @acme::admin::user {'bob': uid => '1001', gid => 'dev' }
  @acme::admin::user {'carl': uid => '1002', gid => 'nobody' }
}`)
	inv, warnings := NewMaterializer(testOptions()).Collect(decl)
	if len(warnings) != 0 {
		t.Fatalf("unexpected materialize warnings: %v", warnings)
	}

	resolved, warnings := inv.ResolveGroups()
	wantResolved := map[string]string{"alice": "ops", "bob": "dev"}
	if !reflect.DeepEqual(resolved, wantResolved) {
		t.Fatalf("resolved = %v, want %v", resolved, wantResolved)
	}
	wantWarnings := []string{
		"missing group name for user: carl",
		"missing group name for user: zed",
	}
	if !reflect.DeepEqual(warnings, wantWarnings) {
		t.Fatalf("warnings = %v, want %v", warnings, wantWarnings)
	}

	// Unresolved users are kept untouched.
	if len(inv.Users) != 4 {
		t.Fatalf("expected all 4 users to remain, got %v", inv.UserNames())
	}
}

func TestResolveGroupsLastGIDWins(t *testing.T) {
	inv := NewInventory()
	inv.AddGroup(Group{Name: "old", GID: intValue(700)})
	inv.AddGroup(Group{Name: "new", GID: intValue(700)})
	inv.AddUser(User{Name: "u", UID: 1000, GID: intValue(700)})

	resolved, warnings := inv.ResolveGroups()
	if len(warnings) != 0 || resolved["u"] != "new" {
		t.Fatalf("resolved = %v, warnings = %v", resolved, warnings)
	}
}

func TestPruneGroups(t *testing.T) {
	inv := NewInventory()
	for _, name := range []string{"ops", "dev", "qa"} {
		inv.AddGroup(Group{Name: name})
	}

	if removed := inv.PruneGroups(nil); removed != nil || len(inv.Groups) != 3 {
		t.Fatalf("empty allow-list must keep every group, removed %v", removed)
	}

	removed := inv.PruneGroups([]string{"ops", "missing"})
	if !reflect.DeepEqual(removed, []string{"dev", "qa"}) {
		t.Fatalf("removed = %v", removed)
	}
	if !reflect.DeepEqual(inv.GroupNames(), []string{"ops"}) {
		t.Fatalf("remaining groups = %v", inv.GroupNames())
	}
}

func TestResolveGroupsIgnoresNonNumericGID(t *testing.T) {
	decl := mustParse(t, `class a::b {
  @acme::admin::group {'admins': gid => 'wheel' }
  @acme::admin::user {'alice': uid => '1000', gid => 'wheel' }
}`)
	inv, _ := NewMaterializer(testOptions()).Collect(decl)
	resolved, warnings := inv.ResolveGroups()
	if _, ok := resolved["alice"]; ok {
		t.Fatalf("a non-numeric gid must not be indexed, resolved %v", resolved)
	}
	if len(warnings) != 1 || warnings[0] != "missing group name for user: alice" {
		t.Fatalf("unexpected warnings %v", warnings)
	}
}
