package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openRedisOrSkip connects to PIXELGATE_TEST_REDIS_ADDR or skips the test.
func openRedisOrSkip(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("PIXELGATE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("PIXELGATE_TEST_REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestAPILimitStore(t *testing.T) {
	client := openRedisOrSkip(t)
	store := NewAPILimitStore(client)
	ctx := context.Background()

	userID := "test-" + uuid.NewString()
	t.Cleanup(func() { client.Del(context.Background(), apiLimitKeyPrefix+userID) })

	count, err := store.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	count, err = store.Increment(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, ok, err := store.IncrementIfBelow(ctx, userID, 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, count)

	count, ok, err = store.IncrementIfBelow(ctx, userID, 2)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 2, count)

	count, err = store.Decrement(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, store.Reset(ctx, userID))
	count, err = store.Decrement(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
