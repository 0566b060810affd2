package services

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const rateLimitKeyPrefix = "ratelimit:" // префикс ключей лимитера в Redis

// Admitter - контроллер допуска записи: sliding window счетчик по ключу
// автора. Инжектируется как capability, чтобы в тестах жить in-memory,
// а в проде - в Redis.
type Admitter interface {
	Admit(ctx context.Context, key string) (bool, error)
}

// RedisLimiter - sliding window на sorted set: score = unix millis
// события, окно непрерывно сдвигается. Атомарность ограничена
// транзакционным пайплайном, дополнительных локов нет.
type RedisLimiter struct {
	client   *redis.Client
	capacity int
	window   time.Duration
}

func NewRedisLimiter(client *redis.Client, capacity int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, capacity: capacity, window: window}
}

func (l *RedisLimiter) Admit(ctx context.Context, key string) (bool, error) {
	now := time.Now()
	member := uuid.NewString()
	zkey := rateLimitKeyPrefix + key
	cutoff := strconv.FormatInt(now.Add(-l.window).UnixMilli(), 10)

	var count *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		// Выкидываем события, выпавшие из окна
		pipe.ZRemRangeByScore(ctx, zkey, "0", cutoff)
		pipe.ZAdd(ctx, zkey, &redis.Z{
			Score:  float64(now.UnixMilli()),
			Member: member,
		})
		count = pipe.ZCard(ctx, zkey)
		pipe.Expire(ctx, zkey, l.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("rate limiter unavailable: %w", err)
	}

	if count.Val() > int64(l.capacity) {
		// Откатываем свое событие, отказ не должен занимать квоту
		l.client.ZRem(ctx, zkey, member)
		return false, nil
	}
	return true, nil
}

// MemoryLimiter - in-process реализация с той же семантикой окна.
// Используется в тестах и в dev-режиме без Redis.
type MemoryLimiter struct {
	mu       sync.Mutex
	events   map[string][]time.Time
	capacity int
	window   time.Duration
}

func NewMemoryLimiter(capacity int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		events:   make(map[string][]time.Time),
		capacity: capacity,
		window:   window,
	}
}

func (l *MemoryLimiter) Admit(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-l.window)

	kept := l.events[key][:0]
	for _, t := range l.events[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= l.capacity {
		l.events[key] = kept
		return false, nil
	}
	l.events[key] = append(kept, now)
	return true, nil
}
