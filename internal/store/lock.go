package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
)

// staleLockAge is how long a sync.lock can go untouched before another
// writer is allowed to replace it outright, even if its pid looks alive.
const staleLockAge = 5 * time.Minute

// lockPayload is the JSON body written into sync.lock.
type lockPayload struct {
	PID int       `json:"pid"`
	TS  time.Time `json:"ts"`
}

// SyncLock coordinates the single-writer discipline across processes
// sharing a repository's .yep-mem directory. It wraps an advisory
// gofrs/flock file lock with the JSON {pid, ts} payload and staleness
// rules: a lock older than five minutes, or whose pid is no longer
// alive, is stale and may be taken over.
type SyncLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewSyncLock creates a sync lock at <dir>/sync.lock.
func NewSyncLock(dir string) *SyncLock {
	path := filepath.Join(dir, "sync.lock")
	return &SyncLock{path: path, flock: flock.New(path)}
}

// Path returns the lock file path.
func (l *SyncLock) Path() string { return l.path }

// TryAcquire attempts to take the lock without blocking. If the lock
// file exists but its payload is stale (dead pid or older than five
// minutes), TryAcquire removes it first and retries once.
func (l *SyncLock) TryAcquire() (bool, error) {
	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return false, fmt.Errorf("create lock directory: %w", err)
	}

	ok, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("acquire sync lock: %w", err)
	}
	if ok {
		l.locked = true
		return true, l.writePayload()
	}

	if l.isStale() {
		if err := l.forceRelease(); err != nil {
			return false, err
		}
		ok, err = l.flock.TryLock()
		if err != nil {
			return false, fmt.Errorf("acquire sync lock after stale takeover: %w", err)
		}
		if ok {
			l.locked = true
			return true, l.writePayload()
		}
	}

	return false, nil
}

// Release releases the lock if held.
func (l *SyncLock) Release() error {
	if !l.locked {
		return nil
	}
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("release sync lock: %w", err)
	}
	l.locked = false
	return nil
}

func (l *SyncLock) writePayload() error {
	payload := lockPayload{PID: os.Getpid(), TS: time.Now()}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal sync lock payload: %w", err)
	}
	return os.WriteFile(l.path, data, 0644)
}

// isStale reports whether the lock file at l.path describes a dead
// writer: either its timestamp is older than staleLockAge, or its pid
// no longer refers to a running process.
func (l *SyncLock) isStale() bool {
	data, err := os.ReadFile(l.path)
	if err != nil {
		// No readable payload: treat as stale so a waiting writer can
		// make progress rather than block forever on a ghost lock.
		return true
	}

	var payload lockPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return true
	}

	if time.Since(payload.TS) > staleLockAge {
		return true
	}

	return !pidAlive(payload.PID)
}

func (l *SyncLock) forceRelease() error {
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("release stale sync lock: %w", err)
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale sync lock file: %w", err)
	}
	return nil
}

// pidAlive reports whether pid refers to a running process, by sending
// it signal 0 (no-op delivery, error-only probe).
func pidAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
