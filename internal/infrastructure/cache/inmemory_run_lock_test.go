package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRunLock(t *testing.T) {
	ctx := context.Background()

	t.Run("acquires a free lock", func(t *testing.T) {
		lock := NewInMemoryRunLock()

		acquired, err := lock.TryAcquire(ctx, "interest-run:t1:2025-09", time.Hour)
		require.NoError(t, err)
		assert.True(t, acquired)
	})

	t.Run("second acquire on a held key fails", func(t *testing.T) {
		lock := NewInMemoryRunLock()

		acquired, err := lock.TryAcquire(ctx, "interest-run:t1:2025-09", time.Hour)
		require.NoError(t, err)
		require.True(t, acquired)

		acquired, err = lock.TryAcquire(ctx, "interest-run:t1:2025-09", time.Hour)
		require.NoError(t, err)
		assert.False(t, acquired)
	})

	t.Run("different keys do not contend", func(t *testing.T) {
		lock := NewInMemoryRunLock()

		acquired, err := lock.TryAcquire(ctx, "interest-run:t1:2025-09", time.Hour)
		require.NoError(t, err)
		require.True(t, acquired)

		acquired, err = lock.TryAcquire(ctx, "interest-run:t2:2025-09", time.Hour)
		require.NoError(t, err)
		assert.True(t, acquired)
	})

	t.Run("released lock can be reacquired", func(t *testing.T) {
		lock := NewInMemoryRunLock()

		acquired, err := lock.TryAcquire(ctx, "interest-run:t1:2025-09", time.Hour)
		require.NoError(t, err)
		require.True(t, acquired)

		require.NoError(t, lock.Release(ctx, "interest-run:t1:2025-09"))

		acquired, err = lock.TryAcquire(ctx, "interest-run:t1:2025-09", time.Hour)
		require.NoError(t, err)
		assert.True(t, acquired)
	})

	t.Run("expired lock can be reacquired", func(t *testing.T) {
		lock := NewInMemoryRunLock()
		current := time.Date(2025, 9, 1, 2, 0, 0, 0, time.UTC)
		lock.now = func() time.Time { return current }

		acquired, err := lock.TryAcquire(ctx, "interest-run:t1:2025-09", time.Hour)
		require.NoError(t, err)
		require.True(t, acquired)

		current = current.Add(2 * time.Hour)

		acquired, err = lock.TryAcquire(ctx, "interest-run:t1:2025-09", time.Hour)
		require.NoError(t, err)
		assert.True(t, acquired)
	})
}
