package lock

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLocker_Exclusive(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	release, err := l.TryLock(ctx, "upload-1", time.Minute)
	require.NoError(t, err)

	_, err = l.TryLock(ctx, "upload-1", time.Minute)
	assert.ErrorIs(t, err, ErrLocked)

	other, err := l.TryLock(ctx, "upload-2", time.Minute)
	require.NoError(t, err)
	other()

	release()
	release()

	again, err := l.TryLock(ctx, "upload-1", time.Minute)
	require.NoError(t, err)
	again()
}

func TestMemoryLocker_Expires(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	stale, err := l.TryLock(ctx, "k", 10*time.Millisecond)
	require.NoError(t, err)
	time.Sleep(30 * time.Millisecond)

	fresh, err := l.TryLock(ctx, "k", time.Minute)
	require.NoError(t, err)

	stale()
	_, err = l.TryLock(ctx, "k", time.Minute)
	assert.ErrorIs(t, err, ErrLocked, "stale release must not drop the new holder")
	fresh()
}

func TestMemoryLocker_OneWinnerUnderContention(t *testing.T) {
	l := NewMemoryLocker()
	var wins atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.TryLock(context.Background(), "same", time.Minute); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestMemoryLocker_StaleReleaseRacingAcquire(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	for i := 0; i < 200; i++ {
		key := fmt.Sprintf("upload:%d", i)
		staleRelease, err := l.TryLock(ctx, key, time.Millisecond)
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)

		var (
			wg          sync.WaitGroup
			freshErr    error
			freshUnlock func()
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			staleRelease()
		}()
		go func() {
			defer wg.Done()
			freshUnlock, freshErr = l.TryLock(ctx, key, time.Minute)
		}()
		wg.Wait()

		require.NoError(t, freshErr, "iteration %d", i)
		_, err = l.TryLock(ctx, key, time.Minute)
		require.ErrorIs(t, err, ErrLocked, "stale release dropped the fresh holder at iteration %d", i)
		freshUnlock()
	}
}

func TestTextKey(t *testing.T) {
	a := TextKey("owner", "ALEX: hi")
	assert.Equal(t, a, TextKey("owner", "ALEX: hi"))
	assert.NotEqual(t, a, TextKey("other", "ALEX: hi"))
	assert.NotEqual(t, a, TextKey("owner", "ALEX: bye"))
}

func TestRedisLocker(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("Skipping redis test: REDIS_URL not set")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opt)
	defer client.Close()

	l := NewRedisLocker(client, "sceneguide:test:")
	ctx := context.Background()

	release, err := l.TryLock(ctx, "upload", time.Minute)
	require.NoError(t, err)
	_, err = l.TryLock(ctx, "upload", time.Minute)
	assert.ErrorIs(t, err, ErrLocked)
	release()

	again, err := l.TryLock(ctx, "upload", time.Minute)
	require.NoError(t, err)
	again()
}
