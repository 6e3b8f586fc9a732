package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tallybridge/backend/internal/domain/shared"
)

func TestInMemoryLockManager_Acquire(t *testing.T) {
	manager := NewInMemoryLockManager()
	defer manager.Close()

	ctx := context.Background()

	t.Run("acquires free lock", func(t *testing.T) {
		lock, err := manager.Acquire(ctx, "creation:Customer:Acme", 1*time.Minute)
		require.NoError(t, err)
		require.NotNil(t, lock)
		require.NoError(t, lock.Release(ctx))
	})

	t.Run("rejects held lock", func(t *testing.T) {
		lock, err := manager.Acquire(ctx, "creation:Supplier:Globex", 1*time.Minute)
		require.NoError(t, err)
		defer lock.Release(ctx)

		_, err = manager.Acquire(ctx, "creation:Supplier:Globex", 1*time.Minute)
		assert.ErrorIs(t, err, shared.ErrLockNotObtained)
	})

	t.Run("different keys do not contend", func(t *testing.T) {
		lock1, err := manager.Acquire(ctx, "creation:Item:Widget", 1*time.Minute)
		require.NoError(t, err)
		defer lock1.Release(ctx)

		lock2, err := manager.Acquire(ctx, "creation:Item:Gadget", 1*time.Minute)
		require.NoError(t, err)
		defer lock2.Release(ctx)
	})
}

func TestInMemoryLockManager_ReleaseAllowsReacquire(t *testing.T) {
	manager := NewInMemoryLockManager()
	defer manager.Close()

	ctx := context.Background()

	lock, err := manager.Acquire(ctx, "creation:Customer:Acme", 1*time.Minute)
	require.NoError(t, err)
	require.NoError(t, lock.Release(ctx))

	lock, err = manager.Acquire(ctx, "creation:Customer:Acme", 1*time.Minute)
	require.NoError(t, err)
	require.NoError(t, lock.Release(ctx))
}

func TestInMemoryLockManager_ExpiredLockReacquirable(t *testing.T) {
	manager := NewInMemoryLockManager()
	defer manager.Close()

	ctx := context.Background()

	_, err := manager.Acquire(ctx, "creation:Customer:Acme", 10*time.Millisecond)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	lock, err := manager.Acquire(ctx, "creation:Customer:Acme", 1*time.Minute)
	require.NoError(t, err)
	require.NoError(t, lock.Release(ctx))
}

func TestInMemoryLockManager_DoubleReleaseSafe(t *testing.T) {
	manager := NewInMemoryLockManager()
	defer manager.Close()

	ctx := context.Background()

	lock, err := manager.Acquire(ctx, "creation:Customer:Acme", 1*time.Minute)
	require.NoError(t, err)

	require.NoError(t, lock.Release(ctx))
	require.NoError(t, lock.Release(ctx))
}

func TestInMemoryLockManager_ConcurrentAcquire(t *testing.T) {
	manager := NewInMemoryLockManager()
	defer manager.Close()

	ctx := context.Background()
	const numGoroutines = 50
	results := make(chan bool, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func() {
			_, err := manager.Acquire(ctx, "creation:Customer:Contended", 1*time.Minute)
			results <- err == nil
		}()
	}

	acquired := 0
	for i := 0; i < numGoroutines; i++ {
		if <-results {
			acquired++
		}
	}

	assert.Equal(t, 1, acquired, "exactly one goroutine should obtain the lock")
}
