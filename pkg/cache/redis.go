package cache

import (
	"context"
	stderrors "errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/ctabridge/pkg/errors"
)

// DefaultRedisPrefix namespaces cache keys in a shared Redis database.
const DefaultRedisPrefix = "ctabridge:cache:"

// redisRetention bounds how long Redis keeps an entry nobody reads again.
// Expiry inside the TTL is still decided by Load.
const redisRetention = 10 * TTL

// watchAttempts limits optimistic retries when a key changes between WATCH
// and EXEC.
const watchAttempts = 3

// RedisStore keeps one hash per URL with the fields "data" and "time".
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore wraps a Redis client. An empty prefix uses
// DefaultRedisPrefix.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

// OpenRedis connects to the Redis server at addr.
func OpenRedis(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "connect redis cache %s", addr)
	}
	return NewRedisStore(client, ""), nil
}

// Load implements Store. The read and the eviction of a stale entry run
// under WATCH so a concurrent Save is never deleted.
func (s *RedisStore) Load(ctx context.Context, url string, cutoff time.Time) (*Entry, error) {
	key := s.prefix + url

	var (
		result   *Entry
		storedAt time.Time
		stale    bool
	)
	load := func(tx *redis.Tx) error {
		result, stale = nil, false
		fields, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return err
		}
		var rows []Entry
		if len(fields) > 0 {
			storedAt = parseUnixNano(fields["time"])
			rows = append(rows, Entry{URL: url, Payload: fields["data"], StoredAt: storedAt})
		}
		e, isStale, err := pick(url, rows, cutoff)
		if err != nil {
			return err
		}
		if isStale {
			_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
				p.Del(ctx, key)
				return nil
			})
			if err != nil {
				return err
			}
		}
		result, stale = e, isStale
		return nil
	}

	var err error
	for i := 0; i < watchAttempts; i++ {
		err = s.client.Watch(ctx, load, key)
		if !stderrors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		if errors.GetCode(err) != "" {
			return nil, err
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "cache load %s", url)
	}
	if stale {
		evicted(ctx, s.Name(), storedAt, cutoff)
	}
	return result, nil
}

// Save implements Store. HSET overwrites the previous fields, so the key
// never holds more than one entry.
func (s *RedisStore) Save(ctx context.Context, e Entry) error {
	key := s.prefix + e.URL
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key, "data", e.Payload, "time", strconv.FormatInt(e.StoredAt.UnixNano(), 10))
		p.Expire(ctx, key, redisRetention)
		return nil
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "cache save %s", e.URL)
	}
	return nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, url string) error {
	if err := s.client.Del(ctx, s.prefix+url).Err(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "cache delete %s", url)
	}
	return nil
}

// Purge implements Store.
func (s *RedisStore) Purge(ctx context.Context, cutoff time.Time) (int, error) {
	n := 0
	err := s.scan(ctx, func(key string) error {
		when, err := s.client.HGet(ctx, key, "time").Result()
		if err != nil && !stderrors.Is(err, redis.Nil) {
			return err
		}
		if !parseUnixNano(when).Before(cutoff) {
			return nil
		}
		removed, err := s.client.Del(ctx, key).Result()
		n += int(removed)
		return err
	})
	if err != nil {
		return n, errors.Wrap(errors.ErrCodeInternal, err, "cache purge")
	}
	return n, nil
}

// Clear implements Store.
func (s *RedisStore) Clear(ctx context.Context) (int, error) {
	n := 0
	err := s.scan(ctx, func(key string) error {
		removed, err := s.client.Del(ctx, key).Result()
		n += int(removed)
		return err
	})
	if err != nil {
		return n, errors.Wrap(errors.ErrCodeInternal, err, "cache clear")
	}
	return n, nil
}

// Name implements Store.
func (s *RedisStore) Name() string { return "redis" }

// Close closes the client.
func (s *RedisStore) Close() error { return s.client.Close() }

func (s *RedisStore) scan(ctx context.Context, fn func(key string) error) error {
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := fn(iter.Val()); err != nil {
			return err
		}
	}
	return iter.Err()
}

func parseUnixNano(s string) time.Time {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(0, n)
}

var _ Store = (*RedisStore)(nil)
