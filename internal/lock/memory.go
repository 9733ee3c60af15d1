package lock

import (
	"context"
	"sync"
)

// MemoryLock is an in-process Locker for tests and single binary setups
type MemoryLock struct {
	mu   sync.Mutex
	held bool
}

func NewMemoryLock() *MemoryLock {
	return &MemoryLock{}
}

func (m *MemoryLock) Acquire(ctx context.Context) (Release, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held {
		return nil, ErrLocked
	}
	m.held = true

	var once sync.Once
	return func() error {
		once.Do(func() {
			m.mu.Lock()
			m.held = false
			m.mu.Unlock()
		})
		return nil
	}, nil
}

// Held reports whether the lock is currently taken
func (m *MemoryLock) Held() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.held
}
