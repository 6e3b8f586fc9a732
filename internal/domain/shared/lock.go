package shared

import (
	"context"
	"errors"
	"time"
)

// ErrLockNotObtained is returned when another process holds the lock
var ErrLockNotObtained = errors.New("lock not obtained")

// Lock is a held advisory lock
type Lock interface {
	// Release releases the lock; releasing an expired lock is not an error
	Release(ctx context.Context) error
}

// LockManager acquires advisory locks that serialize work across instances.
// Locks expire after their TTL so a crashed holder cannot block forever.
type LockManager interface {
	// Acquire obtains the named lock or returns ErrLockNotObtained
	Acquire(ctx context.Context, key string, ttl time.Duration) (Lock, error)

	// Close releases manager resources
	Close() error
}
