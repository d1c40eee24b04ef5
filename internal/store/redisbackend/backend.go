// Package redisbackend adapts a go-redis client to store.Backend.
package redisbackend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// Backend wraps a go-redis client as a store.Backend.
type Backend struct {
	client *redis.Client
	logger *slog.Logger
}

// New connects to a Redis server at host:port and verifies reachability.
// logger may be nil, in which case a text handler on stdout is used.
func New(ctx context.Context, host string, port int, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	addr := fmt.Sprintf("%s:%d", host, port)
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}

	logger.Info("connected to redis backend", "addr", addr)
	return &Backend{client: client, logger: logger}, nil
}

// Close closes the underlying Redis connection pool.
func (b *Backend) Close() error {
	b.logger.Info("closing redis backend")
	return b.client.Close()
}

func (b *Backend) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	return b.client.Set(ctx, key, value, ttl).Err()
}

func (b *Backend) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := b.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (b *Backend) ListPushRight(ctx context.Context, key, value string) error {
	return b.client.RPush(ctx, key, value).Err()
}

func (b *Backend) ListRange(ctx context.Context, key string, lo, hi int64) ([]string, error) {
	return b.client.LRange(ctx, key, lo, hi).Result()
}

func (b *Backend) SetAdd(ctx context.Context, key, member string) error {
	return b.client.SAdd(ctx, key, member).Err()
}

func (b *Backend) SetMembers(ctx context.Context, key string) ([]string, error) {
	return b.client.SMembers(ctx, key).Result()
}

func (b *Backend) SetContains(ctx context.Context, key, member string) (bool, error) {
	return b.client.SIsMember(ctx, key, member).Result()
}

func (b *Backend) SetCardinality(ctx context.Context, key string) (int64, error) {
	return b.client.SCard(ctx, key).Result()
}

func (b *Backend) SortedSetAdd(ctx context.Context, key, member string, score float64) error {
	return b.client.ZAdd(ctx, key, redis.Z{Score: score, Member: member}).Err()
}

func (b *Backend) SortedSetRangeByRankDesc(ctx context.Context, key string, lo, hi int64) ([]string, error) {
	return b.client.ZRevRange(ctx, key, lo, hi).Result()
}

func (b *Backend) SortedSetRangeByScore(ctx context.Context, key string, min, max float64) ([]string, error) {
	return b.client.ZRangeByScore(ctx, key, &redis.ZRangeBy{
		Min: formatScore(min),
		Max: formatScore(max),
	}).Result()
}

func (b *Backend) SortedSetCardinality(ctx context.Context, key string) (int64, error) {
	return b.client.ZCard(ctx, key).Result()
}

func (b *Backend) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return b.client.Expire(ctx, key, ttl).Err()
}

func (b *Backend) Increment(ctx context.Context, key string) (int64, error) {
	return b.client.Incr(ctx, key).Result()
}

func (b *Backend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func formatScore(f float64) string {
	return fmt.Sprintf("%f", f)
}
