// Package lock serializes archive updates so two runs never read-modify-write
// hutbes.json at the same time.
package lock

import (
	"context"
	"errors"
)

// ErrLocked means another run holds the lock
var ErrLocked = errors.New("archive is locked by another run")

// Release gives the lock back
type Release func() error

// Locker grants exclusive access to the archive for one run
type Locker interface {
	Acquire(ctx context.Context) (Release, error)
}
