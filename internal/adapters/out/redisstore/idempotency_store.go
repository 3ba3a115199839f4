// Package redisstore keeps payment side-effect records in Redis.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fulfillment/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

const (
	keyNamespace     = "fulfillment"
	sideEffectPrefix = "side_effect"

	// DefaultDoneTTL bounds how long a completed side effect is remembered.
	// It outlives the processor's own idempotency window.
	DefaultDoneTTL = 7 * 24 * time.Hour
)

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	SetNX(context.Context, string, any, time.Duration) *redis.BoolCmd
	Exists(context.Context, ...string) *redis.IntCmd
	Del(context.Context, ...string) *redis.IntCmd
}

type IdempotencyStore struct {
	store   cmdable
	raw     *redis.Client
	doneTTL time.Duration
}

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// New connects to url (redis://...) and verifies connectivity.
func New(ctx context.Context, url string) (*IdempotencyStore, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("redis url is required")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &IdempotencyStore{store: raw, raw: raw, doneTTL: DefaultDoneTTL}, nil
}

func (s *IdempotencyStore) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.store.SetNX(ctx, lockKey(key), time.Now().UTC().Format(time.RFC3339Nano), ttl).Result()
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.store.Del(ctx, lockKey(key)).Err()
}

func (s *IdempotencyStore) MarkDone(ctx context.Context, key string) error {
	if err := s.store.Set(ctx, doneKey(key), time.Now().UTC().Format(time.RFC3339Nano), s.doneTTL).Err(); err != nil {
		return err
	}
	return s.store.Del(ctx, lockKey(key)).Err()
}

func (s *IdempotencyStore) Done(ctx context.Context, key string) (bool, error) {
	n, err := s.store.Exists(ctx, doneKey(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *IdempotencyStore) Ping(ctx context.Context) error {
	return s.store.Ping(ctx).Err()
}

func (s *IdempotencyStore) Close() error {
	if s.raw == nil {
		return nil
	}
	return s.raw.Close()
}

func lockKey(key string) string {
	return buildKey(sideEffectPrefix, key, "lock")
}

func doneKey(key string) string {
	return buildKey(sideEffectPrefix, key, "done")
}

func buildKey(parts ...string) string {
	return keyNamespace + ":" + strings.Join(parts, ":")
}
