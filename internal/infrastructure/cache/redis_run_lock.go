package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	appledger "github.com/tindahan/backend/internal/application/ledger"
)

// RedisRunLock implements a distributed run lock on top of Redis.
// It is suitable for deployments where multiple instances may try to
// start the same accrual run concurrently.
type RedisRunLock struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisRunLock connects to Redis and returns a run lock backed by it
func NewRedisRunLock(cfg RedisConfig) (*RedisRunLock, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisRunLockWithClient(client, ""), nil
}

// NewRedisRunLockWithClient creates a run lock with an existing Redis client
func NewRedisRunLockWithClient(client *redis.Client, keyPrefix string) *RedisRunLock {
	if keyPrefix == "" {
		keyPrefix = "lock:"
	}
	return &RedisRunLock{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// TryAcquire attempts to take the lock with a TTL.
// SETNX makes the check-and-set a single atomic operation; the TTL
// guarantees the lock expires even if the holder crashes mid-run.
func (l *RedisRunLock) TryAcquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	acquired, err := l.client.SetNX(ctx, l.keyPrefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire run lock: %w", err)
	}
	return acquired, nil
}

// Release frees the lock
func (l *RedisRunLock) Release(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to release run lock: %w", err)
	}
	return nil
}

// Close closes the underlying Redis connection
func (l *RedisRunLock) Close() error {
	return l.client.Close()
}

var _ appledger.RunLock = (*RedisRunLock)(nil)
