package revocation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/juju/clock"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces revocation keys.
const DefaultRedisPrefix = "jwtauth:revoked"

// minEntryTTL keeps an entry briefly even when its retention already lapsed, so a
// concurrent check racing the revocation still observes it.
const minEntryTTL = time.Second

// RedisStore is a Store backed by one Redis key per identifier.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
	clock  clock.Clock
}

// NewRedisStore creates a RedisStore. An empty prefix selects DefaultRedisPrefix and a
// nil clock selects the wall clock.
func NewRedisStore(rdb redis.UniversalClient, prefix string, clk clock.Clock) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	if clk == nil {
		clk = clock.WallClock
	}
	return &RedisStore{
		redis:  rdb,
		prefix: prefix,
		clock:  clk,
	}
}

func (s *RedisStore) key(jti string) string {
	return s.prefix + ":" + jti
}

// Add writes jti with a TTL of the time remaining until expiresAt. A zero expiresAt
// stores the key without a TTL.
//
//	Performance: 1 Redis SET.
func (s *RedisStore) Add(ctx context.Context, jti string, expiresAt time.Time) error {
	if jti == "" {
		return ErrEmptyID
	}

	var (
		ttl   time.Duration
		value = "0"
	)
	if !expiresAt.IsZero() {
		ttl = expiresAt.Sub(s.clock.Now())
		if ttl < minEntryTTL {
			ttl = minEntryTTL
		}
		value = strconv.FormatInt(expiresAt.Unix(), 10)
	}

	if err := s.redis.Set(ctx, s.key(jti), value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Has reports whether a key exists for jti.
//
//	Performance: 1 Redis EXISTS.
func (s *RedisStore) Has(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	n, err := s.redis.Exists(ctx, s.key(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n > 0, nil
}

// Count scans the prefix and returns the number of live entries.
// This is an admin-only O(n) operation and must not be used in request hot paths.
func (s *RedisStore) Count(ctx context.Context) (int, error) {
	var (
		cursor uint64
		total  int
	)

	for {
		keys, next, err := s.redis.Scan(ctx, cursor, s.prefix+":*", 1000).Result()
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		total += len(keys)
		cursor = next
		if cursor == 0 {
			break
		}
	}

	return total, nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *RedisStore) Ping(ctx context.Context) (time.Duration, error) {
	start := s.clock.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return s.clock.Now().Sub(start), fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return s.clock.Now().Sub(start), nil
}
