package lock

import (
	"context"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"golang.org/x/crypto/blake2b"
)

var ErrLocked = errors.New("lock is already held")

// Locker grants short-lived exclusive ownership of a key. The returned
// release func is safe to call more than once.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// TextKey derives a lock key for content that has no stable id.
func TextKey(owner, text string) string {
	sum := blake2b.Sum256([]byte(owner + "\x00" + text))
	return "text:" + hex.EncodeToString(sum[:16])
}

// MemoryLocker is a process-local Locker backed by go-cache. mu makes
// acquisition and the token check on release one step.
type MemoryLocker struct {
	mu    sync.Mutex
	cache *cache.Cache
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{cache: cache.New(cache.NoExpiration, time.Minute)}
}

func (l *MemoryLocker) TryLock(_ context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.NewString()

	l.mu.Lock()
	err := l.cache.Add(key, token, ttl)
	l.mu.Unlock()
	if err != nil {
		return nil, ErrLocked
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			// The lock may have expired and been taken by someone else.
			if current, ok := l.cache.Get(key); ok && current == token {
				l.cache.Delete(key)
			}
		})
	}, nil
}
