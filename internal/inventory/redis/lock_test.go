package redis

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a Redis client backed by miniredis, so no real
// Redis server is needed.
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to create miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	if err := client.Ping(context.Background()).Err(); err != nil {
		mr.Close()
		t.Fatalf("Failed to connect to miniredis: %v", err)
	}
	return client, mr
}

func cleanupTestRedis(client *redis.Client, mr *miniredis.Miniredis) {
	if client != nil {
		client.Close()
	}
	if mr != nil {
		mr.Close()
	}
}

func TestAcquireRelease(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer cleanupTestRedis(client, mr)

	lock := NewLock(client, time.Minute)
	ctx := context.Background()

	ok, err := lock.Acquire(ctx, 42, "owner-1")
	require.NoError(t, err)
	assert.True(t, ok, "Should acquire a free lock")

	ok, err = lock.Acquire(ctx, 42, "owner-2")
	require.NoError(t, err)
	assert.False(t, ok, "Should not acquire a held lock")

	// A different ticket is independent.
	ok, err = lock.Acquire(ctx, 43, "owner-2")
	require.NoError(t, err)
	assert.True(t, ok)

	err = lock.Release(ctx, 42, "owner-1")
	require.NoError(t, err)

	ok, err = lock.Acquire(ctx, 42, "owner-2")
	require.NoError(t, err)
	assert.True(t, ok, "Should acquire after release")
}

func TestReleaseOnlyByOwner(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer cleanupTestRedis(client, mr)

	lock := NewLock(client, time.Minute)
	ctx := context.Background()

	ok, err := lock.Acquire(ctx, 7, "owner-1")
	require.NoError(t, err)
	require.True(t, ok)

	// Wrong owner: no-op, lock stays held.
	err = lock.Release(ctx, 7, "owner-2")
	require.NoError(t, err)

	val, err := client.Get(ctx, "ticket_lock:7").Result()
	require.NoError(t, err)
	assert.Equal(t, "owner-1", val, "Lock should still be held by owner-1")

	// Releasing a lock that expired already is not an error.
	mr.FastForward(2 * time.Minute)
	err = lock.Release(ctx, 7, "owner-1")
	require.NoError(t, err)
}

func TestLockExpires(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer cleanupTestRedis(client, mr)

	lock := NewLock(client, 10*time.Second)
	ctx := context.Background()

	ok, err := lock.Acquire(ctx, 99, "owner-1")
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(11 * time.Second)

	ok, err = lock.Acquire(ctx, 99, "owner-2")
	require.NoError(t, err)
	assert.True(t, ok, "Expired lock should be acquirable")
}

func TestConcurrentAcquire_SingleWinner(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer cleanupTestRedis(client, mr)

	lock := NewLock(client, time.Minute)
	ctx := context.Background()

	const attempts = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := make([]string, 0)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			owner := fmt.Sprintf("buyer-%d", n)
			ok, err := lock.Acquire(ctx, 1, owner)
			if err == nil && ok {
				mu.Lock()
				winners = append(winners, owner)
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Len(t, winners, 1, "Exactly one concurrent attempt should win the lock")
}
