package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

const defaultLockPrefix = "ledger:lock:"

// RedisLocker obtains locks with bsm/redislock, retrying until the context
// deadline or the wait budget runs out
type RedisLocker struct {
	client *redislock.Client
	prefix string
	wait   time.Duration
}

// NewRedisLocker creates a locker on an existing client. wait bounds how long
// Obtain retries before giving up.
func NewRedisLocker(client redis.UniversalClient, wait time.Duration) *RedisLocker {
	if wait <= 0 {
		wait = 5 * time.Second
	}
	return &RedisLocker{client: redislock.New(client), prefix: defaultLockPrefix, wait: wait}
}

// Obtain acquires key for ttl
func (l *RedisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (shared.Lock, error) {
	retries := int(l.wait / (50 * time.Millisecond))
	lock, err := l.client.Obtain(ctx, l.prefix+key, ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(50*time.Millisecond), retries),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%w: lock %s is held", shared.ErrContended, key)
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}
	return redisLock{lock}, nil
}

type redisLock struct {
	lock *redislock.Lock
}

func (r redisLock) Release(ctx context.Context) error {
	err := r.lock.Release(ctx)
	if errors.Is(err, redislock.ErrLockNotHeld) {
		return nil
	}
	return err
}

// InMemoryLocker serializes work inside one process
type InMemoryLocker struct {
	mu    sync.Mutex
	held  map[string]time.Time
	wait  time.Duration
	retry time.Duration
}

// NewInMemoryLocker creates a locker that waits up to wait for a held key
func NewInMemoryLocker(wait time.Duration) *InMemoryLocker {
	return &InMemoryLocker{held: make(map[string]time.Time), wait: wait, retry: 5 * time.Millisecond}
}

// Obtain acquires key for ttl. An expired holder is taken over.
func (l *InMemoryLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (shared.Lock, error) {
	deadline := time.Now().Add(l.wait)
	for {
		if l.tryObtain(key, ttl) {
			return &memLock{locker: l, key: key}, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: lock %s is held", shared.ErrContended, key)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}
}

func (l *InMemoryLocker) tryObtain(key string, ttl time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	if exp, ok := l.held[key]; ok && now.Before(exp) {
		return false
	}
	l.held[key] = now.Add(ttl)
	return true
}

type memLock struct {
	locker *InMemoryLocker
	key    string
	once   sync.Once
}

func (m *memLock) Release(context.Context) error {
	m.once.Do(func() {
		m.locker.mu.Lock()
		delete(m.locker.held, m.key)
		m.locker.mu.Unlock()
	})
	return nil
}

var (
	_ shared.Locker = (*RedisLocker)(nil)
	_ shared.Locker = (*InMemoryLocker)(nil)
)
