// Package store implements the keyed, time-indexed, TTL-governed persistence
// layer that sits between the normalizer and the query layer.
package store

import (
	"context"
	"time"
)

// Backend is the narrow key-value capability set the storage layer needs.
// Any KV store offering strings with expiry, sorted sets, lists, sets, and
// atomic counters can implement it; no multi-key transactions are required,
// and every primitive is expected to be atomic per call.
type Backend interface {
	// SetWithTTL stores value under key, replacing any prior value, and
	// sets its expiry to ttl.
	SetWithTTL(ctx context.Context, key string, value string, ttl time.Duration) error
	// Get returns the value stored at key, or ok=false if absent/expired.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// ListPushRight appends value to the list at key.
	ListPushRight(ctx context.Context, key string, value string) error
	// ListRange returns list elements in [lo, hi] inclusive, 0-indexed;
	// negative indices count from the end, as in Redis LRANGE.
	ListRange(ctx context.Context, key string, lo, hi int64) ([]string, error)

	// SetAdd adds member to the set at key.
	SetAdd(ctx context.Context, key string, member string) error
	// SetMembers returns every member of the set at key.
	SetMembers(ctx context.Context, key string) ([]string, error)
	// SetContains reports whether member is in the set at key.
	SetContains(ctx context.Context, key string, member string) (bool, error)
	// SetCardinality returns the number of members in the set at key.
	SetCardinality(ctx context.Context, key string) (int64, error)

	// SortedSetAdd adds member to the sorted set at key with the given
	// score, or updates its score if already present.
	SortedSetAdd(ctx context.Context, key string, member string, score float64) error
	// SortedSetRangeByRankDesc returns members ordered by descending
	// score, by rank range [lo, hi] inclusive (0 = highest score).
	SortedSetRangeByRankDesc(ctx context.Context, key string, lo, hi int64) ([]string, error)
	// SortedSetRangeByScore returns members with score in [min, max],
	// ascending by score.
	SortedSetRangeByScore(ctx context.Context, key string, min, max float64) ([]string, error)
	// SortedSetCardinality returns the number of members in the sorted
	// set at key.
	SortedSetCardinality(ctx context.Context, key string) (int64, error)

	// Expire resets the TTL of key to ttl. A no-op if key does not exist.
	Expire(ctx context.Context, key string, ttl time.Duration) error
	// Increment atomically increments the counter at key by 1 and
	// returns its new value.
	Increment(ctx context.Context, key string) (int64, error)
	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
}
