package recordings

import (
	"context"
	"time"

	"phonebank-training/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// FetchGuard lets one caller at a time fetch a session's recording.
// release must be called once the fetch (and cache write) is done.
type FetchGuard interface {
	Acquire(ctx context.Context, sessionID string) (release func(), ok bool, err error)
}

const guardKeyPrefix = "recording-fetch:"

// slotCounter is the counting semaphore behind RedisGuard.
type slotCounter interface {
	acquire(ctx context.Context, key string, limit int, ttl time.Duration) (bool, error)
	release(ctx context.Context, key string) error
}

type redisSlots struct{ rdb *redis.Client }

func (s redisSlots) acquire(ctx context.Context, key string, limit int, ttl time.Duration) (bool, error) {
	return utils.AcquireSlot(ctx, s.rdb, key, limit, ttl)
}

func (s redisSlots) release(ctx context.Context, key string) error {
	return utils.ReleaseSlot(ctx, s.rdb, key)
}

// RedisGuard holds a single-slot Redis counter per session. The TTL frees
// the slot if the holder dies mid-fetch.
type RedisGuard struct {
	slots slotCounter
	ttl   time.Duration
}

func NewRedisGuard(rdb *redis.Client, ttl time.Duration) *RedisGuard {
	return newGuard(redisSlots{rdb: rdb}, ttl)
}

func newGuard(slots slotCounter, ttl time.Duration) *RedisGuard {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisGuard{slots: slots, ttl: ttl}
}

func (g *RedisGuard) Acquire(ctx context.Context, sessionID string) (func(), bool, error) {
	key := guardKeyPrefix + sessionID
	ok, err := g.slots.acquire(ctx, key, 1, g.ttl)
	if err != nil || !ok {
		return func() {}, ok, err
	}
	release := func() {
		// The caller's context may already be done; release on a short
		// detached deadline.
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = g.slots.release(rctx, key)
	}
	return release, true, nil
}
