package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/sw33tLie/acctsync/pkg/accounts"
	"github.com/sw33tLie/acctsync/pkg/pipeline"
)

func TestRunConvertMissingSourceCreatesNothing(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "out")
	cfg := pipeline.ConvertConfig{
		Src:    filepath.Join(dir, "nope.pp"),
		DstDir: dst,
		Ranges: []accounts.Range{{Start: 1000, End: 2000}},
	}

	_, err := runConvert(context.Background(), cfg, "")
	if !errors.Is(err, pipeline.ErrSourceNotFound) {
		t.Fatalf("expected ErrSourceNotFound, got %v", err)
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Fatalf("destination must not exist after a missing source, stat err = %v", err)
	}
}

func TestRunConvertRequiresPaths(t *testing.T) {
	_, err := runConvert(context.Background(), pipeline.ConvertConfig{Src: "site.pp"}, "")
	if err == nil || !strings.Contains(err.Error(), "missing required parameter: --src and --dst-dir") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestRunConvertWritesSnapshots(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "site.pp")
	manifest := `class ns::profile { @acme::admin::group {'ops': gid => '500', } @acme::admin::user {'alice': uid => '1000', gid => '500', } }`
	if err := os.WriteFile(src, []byte(manifest), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	dst := filepath.Join(dir, "out")
	dbPath := filepath.Join(dir, "history.sqlite")

	res, err := runConvert(context.Background(), pipeline.ConvertConfig{
		Src:       src,
		DstDir:    dst,
		Ranges:    []accounts.Range{{Start: 1000, End: 2000}},
		UserType:  "acme::admin::user",
		GroupType: "acme::admin::group",
	}, dbPath)
	if err != nil {
		t.Fatalf("runConvert: %v", err)
	}
	if !res.Changed || res.RunID == "" {
		t.Fatalf("unexpected result %+v", res)
	}
	for _, name := range []string{"target_groups.yml", "target_users.yml"} {
		if _, err := os.Stat(filepath.Join(dst, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
}

func TestUIDRanges(t *testing.T) {
	viper.Set("test_uid_ranges.set", []string{"1000-1999, 3000", "42"})
	got, err := uidRanges("test_uid_ranges.set")
	if err != nil {
		t.Fatalf("uidRanges: %v", err)
	}
	want := []accounts.Range{{Start: 1000, End: 1999}, {Start: 3000, End: 3000}, {Start: 42, End: 42}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("uidRanges = %v, want %v", got, want)
	}

	if _, err := uidRanges("test_uid_ranges.unset"); err == nil {
		t.Fatal("expected an error when no range is configured")
	}

	viper.Set("test_uid_ranges.bad", []string{"2000-1000"})
	if _, err := uidRanges("test_uid_ranges.bad"); err == nil {
		t.Fatal("expected an error for an inverted range")
	}
}

func TestFailureJSON(t *testing.T) {
	var got map[string]any
	if err := json.Unmarshal(failureJSON(errMissing("--users")), &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	want := map[string]any{"failed": true, "msg": "missing required parameter: --users"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("failure envelope = %v, want %v", got, want)
	}
}
