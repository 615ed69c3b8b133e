package snapshot

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func groupsData() map[string]any {
	return map[string]any{
		"ops": map[string]any{"name": "ops", "gid": 500, "ensure": "present"},
	}
}

func usersData() map[string]any {
	return map[string]any{
		"alice": map[string]any{"name": "alice", "uid": 1000, "gid": 500, "groups": []string{"wheel"}},
	}
}

func TestEngineFirstRunInitializes(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "out"))
	res, err := NewEngine(store).Run(
		Kind{Key: "target_groups", Data: groupsData()},
		Kind{Key: "target_users", Data: usersData()},
	)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Changed {
		t.Fatal("first run must report a change")
	}
	if got, want := res.Message(), "initialized target_groups; initialized target_users"; got != want {
		t.Fatalf("message = %q, want %q", got, want)
	}
	for _, key := range []string{"target_groups", "target_users"} {
		if _, err := os.Stat(store.Path(key)); err != nil {
			t.Fatalf("expected %s to be written: %v", key, err)
		}
	}
}

func TestEngineSecondRunUnchanged(t *testing.T) {
	store := NewStore(t.TempDir())
	engine := NewEngine(store)
	kinds := []Kind{
		{Key: "target_groups", Data: groupsData()},
		{Key: "target_users", Data: usersData()},
	}
	if _, err := engine.Run(kinds...); err != nil {
		t.Fatalf("Run: %v", err)
	}

	res, err := engine.Run(kinds...)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Changed {
		t.Fatalf("identical data must not report a change: %+v", res.Summaries)
	}
	if msgs := res.Messages(); len(msgs) != 0 {
		t.Fatalf("unexpected messages %v", msgs)
	}
}

func TestEngineReportsAddedAndRemoved(t *testing.T) {
	store := NewStore(t.TempDir())
	engine := NewEngine(store)
	if _, err := engine.Run(Kind{Key: "target_users", Data: usersData()}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	next := map[string]any{
		"bob":   map[string]any{"name": "bob", "uid": 1001, "gid": 500},
		"carol": map[string]any{"name": "carol", "uid": 1002, "gid": 500},
	}
	res, err := engine.Run(Kind{Key: "target_users", Data: next})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	s := res.Summaries[0]
	if !reflect.DeepEqual(s.Added, []string{"bob", "carol"}) || !reflect.DeepEqual(s.Removed, []string{"alice"}) {
		t.Fatalf("added = %v, removed = %v", s.Added, s.Removed)
	}
	want := "added target_users: bob, carol; removed target_users: alice"
	if got := res.Message(); got != want {
		t.Fatalf("message = %q, want %q", got, want)
	}

	stored, err := store.Load("target_users")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := stored["bob"]; !ok || len(stored) != 2 {
		t.Fatalf("snapshot was not overwritten: %v", stored)
	}
}

func TestEngineContentOnlyChange(t *testing.T) {
	store := NewStore(t.TempDir())
	engine := NewEngine(store)
	if _, err := engine.Run(Kind{Key: "target_users", Data: usersData()}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	edited := usersData()
	edited["alice"].(map[string]any)["shell"] = "/bin/zsh"
	res, err := engine.Run(Kind{Key: "target_users", Data: edited})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	s := res.Summaries[0]
	if !s.Changed || len(s.Added) != 0 || len(s.Removed) != 0 {
		t.Fatalf("expected a content-only change, got %+v", s)
	}
	if !reflect.DeepEqual(s.Updated, []string{"alice"}) {
		t.Fatalf("updated = %v", s.Updated)
	}
	if res.Message() != "" {
		t.Fatalf("content-only change must not produce messages, got %q", res.Message())
	}
}

func TestEngineOnlyWritesChangedKinds(t *testing.T) {
	store := NewStore(t.TempDir())
	engine := NewEngine(store)
	if _, err := engine.Run(Kind{Key: "target_groups", Data: groupsData()}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	before, err := os.Stat(store.Path("target_groups"))
	if err != nil {
		t.Fatal(err)
	}
	// Replace the file content with an equivalent but differently formatted
	// document; an unchanged kind must not be rewritten.
	equivalent := "target_groups: {ops: {name: ops, gid: 500, ensure: present}}\n"
	if err := os.WriteFile(store.Path("target_groups"), []byte(equivalent), before.Mode()); err != nil {
		t.Fatal(err)
	}

	res, err := engine.Run(
		Kind{Key: "target_groups", Data: groupsData()},
		Kind{Key: "target_users", Data: usersData()},
	)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Changed || res.Summaries[0].Changed || !res.Summaries[1].Initialized {
		t.Fatalf("unexpected summaries %+v", res.Summaries)
	}
	data, err := os.ReadFile(store.Path("target_groups"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != equivalent {
		t.Fatalf("unchanged kind was rewritten:\n%s", data)
	}
}

func TestEngineCorruptSnapshotIsFatal(t *testing.T) {
	store := NewStore(t.TempDir())
	if err := os.WriteFile(store.Path("target_users"), []byte("target_users: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := NewEngine(store).Run(
		Kind{Key: "target_groups", Data: groupsData()},
		Kind{Key: "target_users", Data: usersData()},
	)
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
	if _, err := os.Stat(store.Path("target_groups")); !os.IsNotExist(err) {
		t.Fatalf("no snapshot may be written when a previous one is corrupt")
	}
}

func TestLoadMissingKey(t *testing.T) {
	store := NewStore(t.TempDir())
	if err := os.WriteFile(store.Path("target_users"), []byte("other: {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	data, err := store.Load("target_users")
	if err != nil || data != nil {
		t.Fatalf("Load = %v, %v; want nil, nil", data, err)
	}
	if data, err := store.Load("absent"); err != nil || data != nil {
		t.Fatalf("Load of a missing file = %v, %v; want nil, nil", data, err)
	}
}

func TestSaveKeepsUnicode(t *testing.T) {
	store := NewStore(t.TempDir())
	data := map[string]any{"zoë": map[string]any{"name": "zoë", "comment": "Zoë Ünicode"}}
	if err := store.Save("target_users", data); err != nil {
		t.Fatalf("Save: %v", err)
	}
	raw, err := os.ReadFile(store.Path("target_users"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), "Zoë Ünicode") {
		t.Fatalf("unicode was escaped:\n%s", raw)
	}
}
