package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a Redis client backed by miniredis so lock behavior
// can be tested without a real Redis server.
func setupTestRedis(t *testing.T) *Redis {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	require.NoError(t, client.Ping(context.Background()).Err())

	return NewRedis(client)
}

func TestSessionLockMutualExclusion(t *testing.T) {
	r := setupTestRedis(t)
	ctx := context.Background()

	ok, err := r.TryAcquireSession(ctx, "session-1", "owner-a")
	require.NoError(t, err)
	assert.True(t, ok, "first acquisition should succeed")

	ok, err = r.TryAcquireSession(ctx, "session-1", "owner-b")
	require.NoError(t, err)
	assert.False(t, ok, "held lock must refuse a second owner")

	// A different session is a different lock.
	ok, err = r.TryAcquireSession(ctx, "session-2", "owner-b")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSessionLockOwnerRelease(t *testing.T) {
	r := setupTestRedis(t)
	ctx := context.Background()

	ok, err := r.TryAcquireSession(ctx, "session-1", "owner-a")
	require.NoError(t, err)
	require.True(t, ok)

	// A non-owner release is a no-op; the lock stays held.
	require.NoError(t, r.ReleaseSession(ctx, "session-1", "owner-b"))
	ok, err = r.TryAcquireSession(ctx, "session-1", "owner-c")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.ReleaseSession(ctx, "session-1", "owner-a"))
	ok, err = r.TryAcquireSession(ctx, "session-1", "owner-c")
	require.NoError(t, err)
	assert.True(t, ok, "owner release frees the lock")
}

func TestSessionLockReleaseWhenNotHeld(t *testing.T) {
	r := setupTestRedis(t)

	// Releasing an expired or never-held lock must not error.
	assert.NoError(t, r.ReleaseSession(context.Background(), "session-1", "owner-a"))
}

func TestAcquireSessionBlocksUntilReleased(t *testing.T) {
	r := setupTestRedis(t)
	ctx := context.Background()

	ok, err := r.TryAcquireSession(ctx, "session-1", "owner-a")
	require.NoError(t, err)
	require.True(t, ok)

	acquired := make(chan bool, 1)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ok, err := r.AcquireSession(ctx, "session-1", "owner-b")
		assert.NoError(t, err)
		acquired <- ok
	}()

	select {
	case <-acquired:
		t.Fatal("acquire returned while the lock was still held")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, r.ReleaseSession(ctx, "session-1", "owner-a"))

	select {
	case ok := <-acquired:
		assert.True(t, ok, "waiter should win the lock after release")
	case <-time.After(time.Second):
		t.Fatal("waiter never acquired the released lock")
	}
	wg.Wait()
}

func TestAcquireSessionGivesUpOnContextEnd(t *testing.T) {
	r := setupTestRedis(t)

	ok, err := r.TryAcquireSession(context.Background(), "session-1", "owner-a")
	require.NoError(t, err)
	require.True(t, ok)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	ok, err = r.AcquireSession(ctx, "session-1", "owner-b")
	require.NoError(t, err)
	assert.False(t, ok, "deadline expiry reports a failed acquisition, not an error")
}
