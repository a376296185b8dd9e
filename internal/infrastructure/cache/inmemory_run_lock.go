package cache

import (
	"context"
	"sync"
	"time"

	appledger "github.com/tindahan/backend/internal/application/ledger"
)

// lockEntry represents a held lock with expiration
type lockEntry struct {
	expiresAt time.Time
}

// InMemoryRunLock implements the run lock with an in-memory map.
// This is suitable for single-instance deployments and testing.
type InMemoryRunLock struct {
	mu    sync.Mutex
	locks map[string]lockEntry
	now   func() time.Time
}

// NewInMemoryRunLock creates a new in-memory run lock
func NewInMemoryRunLock() *InMemoryRunLock {
	return &InMemoryRunLock{
		locks: make(map[string]lockEntry),
		now:   time.Now,
	}
}

// TryAcquire attempts to take the lock with a TTL.
// Returns false if another holder owns the key and it has not expired.
func (l *InMemoryRunLock) TryAcquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if e, held := l.locks[key]; held && now.Before(e.expiresAt) {
		return false, nil
	}

	l.locks[key] = lockEntry{expiresAt: now.Add(ttl)}
	return true, nil
}

// Release frees the lock
func (l *InMemoryRunLock) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.locks, key)
	return nil
}

var _ appledger.RunLock = (*InMemoryRunLock)(nil)
