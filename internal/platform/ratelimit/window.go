// Package ratelimit throttles the public citizen endpoints with a per-client
// sliding window.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Result is the outcome of one Allow call.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int
}

// Store counts requests per key over a sliding window.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
}

// MemoryStore keeps request timestamps in process memory. Limits are per instance.
// Keys whose timestamps have all expired are swept at most once per window.
type MemoryStore struct {
	mu        sync.Mutex
	windows   map[string][]time.Time
	lastSweep time.Time
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{windows: make(map[string][]time.Time), now: time.Now}
}

func (s *MemoryStore) Allow(_ context.Context, key string, limit int, window time.Duration) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	cutoff := now.Add(-window)
	s.sweep(now, cutoff, window)

	if limit <= 0 {
		delete(s.windows, key)
		resetAt := now.Add(window)
		return Result{Limit: limit, ResetAt: resetAt, RetryAfter: retryAfter(now, resetAt)}, nil
	}

	stamps := trim(s.windows[key], cutoff)
	if len(stamps) >= limit {
		s.windows[key] = stamps
		resetAt := stamps[0].Add(window)
		return Result{
			Limit:      limit,
			ResetAt:    resetAt,
			RetryAfter: retryAfter(now, resetAt),
		}, nil
	}
	stamps = append(stamps, now)
	s.windows[key] = stamps
	return Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - len(stamps),
		ResetAt:   stamps[0].Add(window),
	}, nil
}

// sweep drops keys with no timestamp inside the window. Must hold s.mu.
func (s *MemoryStore) sweep(now, cutoff time.Time, window time.Duration) {
	if now.Sub(s.lastSweep) < window {
		return
	}
	s.lastSweep = now
	for key, stamps := range s.windows {
		if len(trim(stamps, cutoff)) == 0 {
			delete(s.windows, key)
		}
	}
}

// trim drops timestamps at or before cutoff. Timestamps are appended in order.
func trim(stamps []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(stamps) && !stamps[i].After(cutoff) {
		i++
	}
	return stamps[i:]
}

// RedisStore shares the window across instances using one sorted set per key.
// The check and the insert are separate round trips, so bursts racing across
// instances may exceed the limit slightly.
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "ratelimit:", now: time.Now}
}

func (s *RedisStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	now := s.now()
	k := s.prefix + key
	cutoff := strconv.FormatInt(now.Add(-window).UnixMicro(), 10)

	var card *redis.IntCmd
	var oldest *redis.ZSliceCmd
	if _, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZRemRangeByScore(ctx, k, "-inf", cutoff)
		card = p.ZCard(ctx, k)
		oldest = p.ZRangeWithScores(ctx, k, 0, 0)
		return nil
	}); err != nil {
		return Result{}, fmt.Errorf("rate limit check: %w", err)
	}

	resetAt := now.Add(window)
	if first := oldest.Val(); len(first) > 0 {
		resetAt = time.UnixMicro(int64(first[0].Score)).Add(window)
	}
	count := int(card.Val())
	if limit <= 0 || count >= limit {
		return Result{Limit: limit, ResetAt: resetAt, RetryAfter: retryAfter(now, resetAt)}, nil
	}

	member := strconv.FormatInt(now.UnixNano(), 10)
	if _, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZAdd(ctx, k, redis.Z{Score: float64(now.UnixMicro()), Member: member})
		p.PExpire(ctx, k, window)
		return nil
	}); err != nil {
		return Result{}, fmt.Errorf("rate limit record: %w", err)
	}
	return Result{Allowed: true, Limit: limit, Remaining: limit - count - 1, ResetAt: resetAt}, nil
}

func retryAfter(now, resetAt time.Time) int {
	secs := int(resetAt.Sub(now).Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}
