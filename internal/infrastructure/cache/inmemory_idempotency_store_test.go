package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	t.Run("first mark wins", func(t *testing.T) {
		isNew, err := store.MarkProcessed(ctx, "event-1", time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew)

		isNew, err = store.MarkProcessed(ctx, "event-1", time.Hour)
		require.NoError(t, err)
		assert.False(t, isNew)
	})

	t.Run("expired mark can be taken again", func(t *testing.T) {
		_, err := store.MarkProcessed(ctx, "event-2", 10*time.Millisecond)
		require.NoError(t, err)
		time.Sleep(20 * time.Millisecond)

		isNew, err := store.MarkProcessed(ctx, "event-2", time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew)
	})

	t.Run("forget allows reprocessing", func(t *testing.T) {
		_, err := store.MarkProcessed(ctx, "event-3", time.Hour)
		require.NoError(t, err)
		require.NoError(t, store.Forget(ctx, "event-3"))

		processed, err := store.IsProcessed(ctx, "event-3")
		require.NoError(t, err)
		assert.False(t, processed)
	})
}

func TestInMemoryIdempotencyStore_RemoveExpired(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	store.MarkProcessed(ctx, "short", 10*time.Millisecond)
	store.MarkProcessed(ctx, "long", time.Hour)
	require.Equal(t, 2, store.Size())

	store.removeExpired(time.Now().Add(time.Second))

	assert.Equal(t, 1, store.Size())
	processed, _ := store.IsProcessed(ctx, "long")
	assert.True(t, processed)
}

func TestInMemoryIdempotencyStore_ConcurrentAccess(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	const n = 100
	results := make(chan bool, n)
	for i := 0; i < n; i++ {
		go func() {
			isNew, err := store.MarkProcessed(context.Background(), "same", time.Hour)
			results <- err == nil && isNew
		}()
	}
	winners := 0
	for i := 0; i < n; i++ {
		if <-results {
			winners++
		}
	}
	assert.Equal(t, 1, winners)
}

func TestInMemoryIdempotencyStore_Close(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}
