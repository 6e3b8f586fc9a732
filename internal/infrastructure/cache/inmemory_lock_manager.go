package cache

import (
	"context"
	"sync"
	"time"

	"github.com/tallybridge/backend/internal/domain/shared"
)

// InMemoryLockManager implements LockManager using an in-memory map
// This is suitable for single-instance deployments and testing
type InMemoryLockManager struct {
	mu    sync.Mutex
	locks map[string]time.Time // key -> expiry
}

// NewInMemoryLockManager creates a new in-memory lock manager
func NewInMemoryLockManager() *InMemoryLockManager {
	return &InMemoryLockManager{
		locks: make(map[string]time.Time),
	}
}

// Acquire obtains the named lock or returns shared.ErrLockNotObtained
func (m *InMemoryLockManager) Acquire(ctx context.Context, key string, ttl time.Duration) (shared.Lock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if expiry, held := m.locks[key]; held && time.Now().Before(expiry) {
		return nil, shared.ErrLockNotObtained
	}

	m.locks[key] = time.Now().Add(ttl)
	return &inMemoryLock{manager: m, key: key}, nil
}

// Close releases all held locks
func (m *InMemoryLockManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks = make(map[string]time.Time)
	return nil
}

// release removes a held lock
func (m *InMemoryLockManager) release(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, key)
}

// inMemoryLock is a handle to a lock held in an InMemoryLockManager
type inMemoryLock struct {
	manager *InMemoryLockManager
	key     string
	once    sync.Once
}

// Release releases the lock; releasing twice is safe
func (l *inMemoryLock) Release(ctx context.Context) error {
	l.once.Do(func() {
		l.manager.release(l.key)
	})
	return nil
}

// Ensure InMemoryLockManager implements LockManager
var _ shared.LockManager = (*InMemoryLockManager)(nil)
