package lock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

type fileLockInfo struct {
	PID        int       `json:"pid"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// FileLock is a lock file created with O_EXCL next to the archive. A lock
// older than ttl is considered abandoned by a crashed run and is broken.
type FileLock struct {
	path string
	ttl  time.Duration
	now  func() time.Time
}

// NewFileLock creates a lock backed by path
func NewFileLock(path string, ttl time.Duration) *FileLock {
	return &FileLock{path: path, ttl: ttl, now: time.Now}
}

func (l *FileLock) Acquire(ctx context.Context) (Release, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	release, err := l.create()
	if !errors.Is(err, os.ErrExist) {
		return release, err
	}

	if !l.stale() {
		return nil, ErrLocked
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to break stale lock: %w", err)
	}

	release, err = l.create()
	if errors.Is(err, os.ErrExist) {
		return nil, ErrLocked
	}
	return release, err
}

func (l *FileLock) create() (Release, error) {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create lock file: %w", err)
	}

	info := fileLockInfo{PID: os.Getpid(), AcquiredAt: l.now().UTC()}
	encErr := json.NewEncoder(f).Encode(info)
	closeErr := f.Close()
	if err := errors.Join(encErr, closeErr); err != nil {
		os.Remove(l.path)
		return nil, fmt.Errorf("failed to write lock file: %w", err)
	}

	return func() error {
		if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove lock file: %w", err)
		}
		return nil
	}, nil
}

// stale reports whether the current lock holder has exceeded ttl. An
// unreadable lock file is judged by its modification time.
func (l *FileLock) stale() bool {
	acquired := time.Time{}
	if data, err := os.ReadFile(l.path); err == nil {
		var info fileLockInfo
		if json.Unmarshal(data, &info) == nil {
			acquired = info.AcquiredAt
		}
	}
	if acquired.IsZero() {
		st, err := os.Stat(l.path)
		if err != nil {
			return errors.Is(err, os.ErrNotExist)
		}
		acquired = st.ModTime()
	}
	return l.now().Sub(acquired) > l.ttl
}
