package utils

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestSplitList(t *testing.T) {
	got := SplitList([]string{"500, 600", "", "ops", " ,"})
	if want := []string{"500", "600", "ops"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("SplitList = %v, want %v", got, want)
	}
}

func TestDirLock(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "snapshots")
	l, err := NewDirLock(dir)
	if err != nil {
		t.Fatalf("NewDirLock: %v", err)
	}
	if err := l.Lock(); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, lockFileName)); err != nil {
		t.Fatalf("lock file missing: %v", err)
	}

	other, err := NewDirLock(dir)
	if err != nil {
		t.Fatalf("NewDirLock: %v", err)
	}
	locked, err := other.lock.TryLock()
	if err != nil {
		t.Fatalf("TryLock: %v", err)
	}
	if locked {
		t.Fatal("second lock must not be acquired while the first is held")
	}

	if err := l.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
}
