package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/tallybridge/backend/internal/domain/shared"
)

// RedisLockManager implements LockManager using Redis advisory locks.
// This is suitable for distributed deployments where concurrent workers
// must not perform the same remote creation twice.
type RedisLockManager struct {
	client *redis.Client
	locker *redislock.Client
}

// NewRedisLockManager creates a new Redis-based lock manager
func NewRedisLockManager(cfg RedisConfig) (*RedisLockManager, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisLockManager{
		client: client,
		locker: redislock.New(client),
	}, nil
}

// NewRedisLockManagerWithClient creates a manager with an existing Redis client
// This is useful for testing or when sharing a client across components
func NewRedisLockManagerWithClient(client *redis.Client) *RedisLockManager {
	return &RedisLockManager{
		client: client,
		locker: redislock.New(client),
	}
}

// Acquire obtains the named lock or returns shared.ErrLockNotObtained
func (m *RedisLockManager) Acquire(ctx context.Context, key string, ttl time.Duration) (shared.Lock, error) {
	lock, err := m.locker.Obtain(ctx, key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, shared.ErrLockNotObtained
	}
	if err != nil {
		return nil, fmt.Errorf("failed to obtain lock %s: %w", key, err)
	}

	return &redisLock{lock: lock}, nil
}

// Close closes the Redis client
func (m *RedisLockManager) Close() error {
	return m.client.Close()
}

// redisLock adapts a redislock.Lock to the shared.Lock interface
type redisLock struct {
	lock *redislock.Lock
}

// Release releases the lock; an already-expired lock is not an error
func (l *redisLock) Release(ctx context.Context) error {
	err := l.lock.Release(ctx)
	if errors.Is(err, redislock.ErrLockNotHeld) {
		return nil
	}
	return err
}

// Ensure RedisLockManager implements LockManager
var _ shared.LockManager = (*RedisLockManager)(nil)
