package store

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const scanBatch = 256

// RedisStore is the distributed [Store] backend.
type RedisStore struct {
	client    redis.UniversalClient
	timeout   time.Duration
	closeOnce sync.Once
	closeErr  error
}

// NewRedisStore wraps client. Every call is bounded by opTimeout when it is > 0.
// The store takes ownership of client and closes it in Close.
func NewRedisStore(client redis.UniversalClient, opTimeout time.Duration) *RedisStore {
	return &RedisStore{
		client:  client,
		timeout: opTimeout,
	}
}

func (s *RedisStore) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	value, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", unavailable(err)
	}
	return value, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) (bool, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	n, err := s.client.Del(ctx, key).Result()
	if err != nil {
		return false, unavailable(err)
	}
	return n > 0, nil
}

func (s *RedisStore) Increment(ctx context.Context, key string) (int64, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	n, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		if strings.Contains(err.Error(), "not an integer") {
			return 0, ErrNotInteger
		}
		return 0, unavailable(err)
	}
	return n, nil
}

func (s *RedisStore) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, ErrInvalidTTL
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	ok, err := s.client.PExpire(ctx, key, ttl).Result()
	if err != nil {
		return false, unavailable(err)
	}
	return ok, nil
}

func (s *RedisStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	d, err := s.client.PTTL(ctx, key).Result()
	if err != nil {
		return 0, unavailable(err)
	}

	// PTTL replies -2 for missing keys and -1 for keys without expiry; go-redis
	// passes both through unscaled.
	switch d {
	case -2:
		return 0, ErrNotFound
	case -1:
		return NoExpiry, nil
	}
	return d, nil
}

func (s *RedisStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if cluster, ok := s.client.(*redis.ClusterClient); ok {
		var (
			mu   sync.Mutex
			keys []string
		)
		err := cluster.ForEachMaster(ctx, func(ctx context.Context, node *redis.Client) error {
			found, err := scanAll(ctx, node, pattern)
			if err != nil {
				return err
			}
			mu.Lock()
			keys = append(keys, found...)
			mu.Unlock()
			return nil
		})
		if err != nil {
			return nil, unavailable(err)
		}
		return keys, nil
	}

	keys, err := scanAll(ctx, s.client, pattern)
	if err != nil {
		return nil, unavailable(err)
	}
	return keys, nil
}

type scanner interface {
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
}

func scanAll(ctx context.Context, client scanner, pattern string) ([]string, error) {
	var (
		cursor uint64
		keys   []string
	)
	seen := make(map[string]struct{})

	for {
		batch, next, err := client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return nil, err
		}
		// SCAN may return a key more than once across iterations.
		for _, k := range batch {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
		if next == 0 {
			return keys, nil
		}
		cursor = next
	}
}

// Ping checks connectivity to the backend.
func (s *RedisStore) Ping(ctx context.Context) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if err := s.client.Ping(ctx).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.client.Close()
	})
	return s.closeErr
}
