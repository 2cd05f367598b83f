package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/stockbridge/backend/internal/domain/shared"
)

// defaultLockTTL bounds how long a crashed instance can keep a seller locked
const defaultLockTTL = 10 * time.Minute

// RedisSellerLock provides per-seller mutual exclusion backed by Redis.
// This is suitable for distributed deployments where multiple instances
// must not sweep the same seller concurrently.
type RedisSellerLock struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisSellerLock creates a lock using an existing Redis client
func NewRedisSellerLock(client *redis.Client, ttl time.Duration) *RedisSellerLock {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisSellerLock{
		client:    client,
		keyPrefix: "sync:seller_lock:",
		ttl:       ttl,
	}
}

// Acquire takes the lock for a seller via SETNX with a TTL.
// Returns shared.ErrSyncInProgress when another sweep holds the lock.
func (l *RedisSellerLock) Acquire(ctx context.Context, sellerID uuid.UUID) (func(), error) {
	key := l.keyPrefix + sellerID.String()
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire seller lock: %w", err)
	}
	if !ok {
		return nil, shared.ErrSyncInProgress
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		// Only delete the lock if we still own it; an expired lock may have
		// been re-acquired by another instance
		l.client.Eval(ctx, releaseScript, []string{key}, token)
	}
	return release, nil
}

// releaseScript deletes the lock only when the stored token matches
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

// InMemorySellerLock provides per-seller mutual exclusion within a single
// process. Suitable for single-instance deployments and testing.
type InMemorySellerLock struct {
	mu    sync.Mutex
	held  map[uuid.UUID]memoryLockEntry
	ttl   time.Duration
	clock func() time.Time
}

// memoryLockEntry records who holds a seller's lock and until when
type memoryLockEntry struct {
	token     string
	expiresAt time.Time
}

// NewInMemorySellerLock creates an in-memory seller lock
func NewInMemorySellerLock(ttl time.Duration) *InMemorySellerLock {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &InMemorySellerLock{
		held:  make(map[uuid.UUID]memoryLockEntry),
		ttl:   ttl,
		clock: time.Now,
	}
}

// Acquire takes the lock for a seller.
// Returns shared.ErrSyncInProgress when another sweep holds the lock.
func (l *InMemorySellerLock) Acquire(_ context.Context, sellerID uuid.UUID) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	if entry, exists := l.held[sellerID]; exists && now.Before(entry.expiresAt) {
		return nil, shared.ErrSyncInProgress
	}
	token := uuid.NewString()
	l.held[sellerID] = memoryLockEntry{token: token, expiresAt: now.Add(l.ttl)}

	release := func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		// Same token check as the Redis release script: after TTL expiry
		// another sweep may hold the lock, and its entry must survive a
		// late release from the previous holder
		if entry, exists := l.held[sellerID]; exists && entry.token == token {
			delete(l.held, sellerID)
		}
	}
	return release, nil
}
