package lockfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAcquire(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")

	lock, err := Acquire(dir, ":8080")
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer lock.Release()

	content, err := os.ReadFile(filepath.Join(dir, LockFileName))
	if err != nil {
		t.Fatalf("failed to read lock file: %v", err)
	}
	fields := parseFields(string(content))
	if fields["pid"] != fmt.Sprint(os.Getpid()) {
		t.Errorf("expected pid %d, got %q", os.Getpid(), fields["pid"])
	}
	if fields["addr"] != ":8080" {
		t.Errorf("expected addr :8080, got %q", fields["addr"])
	}
	if fields["started"] == "" {
		t.Error("expected a start time")
	}
}

func TestAcquire_Conflict(t *testing.T) {
	dir := t.TempDir()

	first, err := Acquire(dir, ":8080")
	if err != nil {
		t.Fatalf("first Acquire failed: %v", err)
	}
	defer first.Release()

	second, err := Acquire(dir, ":9090")
	if err == nil {
		second.Release()
		t.Fatal("expected second Acquire to fail")
	}
	var lockErr *LockError
	if !errors.As(err, &lockErr) {
		t.Fatalf("expected *LockError, got %T: %v", err, err)
	}
	if !strings.Contains(lockErr.Holder, fmt.Sprintf("pid %d (running) on :8080", os.Getpid())) {
		t.Errorf("unexpected holder description %q", lockErr.Holder)
	}

	// The losing process must not clobber the holder's details.
	content, _ := os.ReadFile(filepath.Join(dir, LockFileName))
	if parseFields(string(content))["addr"] != ":8080" {
		t.Errorf("lock file was overwritten: %q", content)
	}
}

func TestRelease(t *testing.T) {
	dir := t.TempDir()
	lock, err := Acquire(dir, "")
	if err != nil {
		t.Fatal(err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Errorf("second Release should be a no-op, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, LockFileName)); !os.IsNotExist(err) {
		t.Errorf("expected lock file removed, stat err = %v", err)
	}

	again, err := Acquire(dir, "")
	if err != nil {
		t.Fatalf("re-Acquire after Release failed: %v", err)
	}
	again.Release()
}

func TestDescribeHolder_Stale(t *testing.T) {
	path := filepath.Join(t.TempDir(), LockFileName)
	if err := os.WriteFile(path, []byte("pid=999999999\naddr=:1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := describeHolder(path); got != "pid 999999999 (not running, stale lock) on :1" {
		t.Errorf("unexpected description %q", got)
	}
	if got := describeHolder(filepath.Join(t.TempDir(), "missing")); got != "" {
		t.Errorf("expected empty description for missing file, got %q", got)
	}
}
