// Package lockfile guards a SiteBot data directory against a second server
// process. The lock is an flock on a file, so the kernel releases it when the
// holder exits, however it exits.
package lockfile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// LockFileName is created inside the data directory.
const LockFileName = "sitebot.lock"

// Lock is a held data directory lock.
type Lock struct {
	file *os.File
	path string
}

// Acquire takes an exclusive, non-blocking lock on dir, creating it if
// needed. The lock file records the holder's pid and listen address.
func Acquire(dir, addr string) (*Lock, error) {
	path := filepath.Join(dir, LockFileName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file %s: %w", path, err)
	}
	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		file.Close()
		holder := describeHolder(path)
		slog.Error("Lockfile.Acquire: data directory is in use", "lockPath", path, "holder", holder)
		return nil, &LockError{LockPath: path, Holder: holder, Cause: err}
	}

	// Truncate only once the lock is ours so a losing process cannot wipe the
	// holder's details.
	info := fmt.Sprintf("pid=%d\naddr=%s\nstarted=%s\n", os.Getpid(), addr, time.Now().UTC().Format(time.RFC3339))
	if err := file.Truncate(0); err == nil {
		_, err = file.WriteAt([]byte(info), 0)
	}
	if err != nil {
		_ = syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
		file.Close()
		return nil, fmt.Errorf("failed to write lock file %s: %w", path, err)
	}
	if err := file.Sync(); err != nil {
		slog.Warn("Lockfile.Acquire: sync failed", "lockPath", path, "error", err)
	}

	slog.Info("Lockfile.Acquire: data directory locked", "lockPath", path, "pid", os.Getpid())
	return &Lock{file: file, path: path}, nil
}

// Release drops the lock and removes the file. Safe to call more than once.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	if err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN); err != nil {
		slog.Warn("Lockfile.Release: unlock failed", "lockPath", l.path, "error", err)
	}
	closeErr := l.file.Close()
	l.file = nil
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		slog.Warn("Lockfile.Release: remove failed", "lockPath", l.path, "error", err)
	}
	slog.Info("Lockfile.Release: data directory unlocked", "lockPath", l.path)
	return closeErr
}

// LockError reports that another process holds the data directory.
type LockError struct {
	LockPath string
	Holder   string
	Cause    error
}

func (e *LockError) Error() string {
	msg := fmt.Sprintf("another SiteBot server is using this data directory (lock file %s)", e.LockPath)
	if e.Holder != "" {
		msg += ": " + e.Holder
	}
	return msg + "; if no such process exists, remove the lock file and retry"
}

func (e *LockError) Unwrap() error {
	return e.Cause
}

// describeHolder summarizes the lock file's contents for error messages.
func describeHolder(path string) string {
	data, err := os.ReadFile(path)
	if err != nil || len(data) == 0 {
		return ""
	}
	fields := parseFields(string(data))
	pid, _ := strconv.Atoi(fields["pid"])
	if pid <= 0 {
		return ""
	}
	state := "not running, stale lock"
	if processAlive(pid) {
		state = "running"
	}
	desc := fmt.Sprintf("pid %d (%s)", pid, state)
	if addr := fields["addr"]; addr != "" {
		desc += " on " + addr
	}
	return desc
}

func parseFields(content string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(content, "\n") {
		if k, v, ok := strings.Cut(line, "="); ok {
			fields[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	}
	return fields
}

// processAlive sends signal 0, which checks existence without delivering anything.
func processAlive(pid int) bool {
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return p.Signal(syscall.Signal(0)) == nil
}
