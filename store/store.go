package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// NoExpiry is returned by TTL for keys that never expire.
const NoExpiry time.Duration = -1

const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

var (
	// ErrNotFound is returned for keys that are unset or past their deadline.
	ErrNotFound = errors.New("store: key not found")
	// ErrUnavailable wraps every backend failure (unreachable, timeout, closed).
	ErrUnavailable = errors.New("store: backend unavailable")
	// ErrNotInteger is returned by Increment when the stored value is not an integer.
	ErrNotInteger = errors.New("store: value is not an integer")
	// ErrInvalidTTL is returned by Expire for non-positive durations.
	ErrInvalidTTL = errors.New("store: ttl must be > 0")
)

// Store is a key/value store with per-key expiry.
//
// Implementations must be safe for concurrent use. A key whose deadline has
// passed is absent for every operation, whether or not it was physically removed.
type Store interface {
	// Get returns the live value for key or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set overwrites key. ttl <= 0 stores the key without expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Delete removes key and reports whether a live value was present.
	Delete(ctx context.Context, key string) (bool, error)
	// Increment adds one to the integer at key, treating an absent key as 0.
	// It never sets or clears a TTL.
	Increment(ctx context.Context, key string) (int64, error)
	// Expire replaces the TTL of a live key. It reports false for absent keys.
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// TTL returns the remaining lifetime of key, NoExpiry for persistent keys,
	// or ErrNotFound.
	TTL(ctx context.Context, key string) (time.Duration, error)
	// Keys lists live keys matching a glob pattern ('*', '?', '\' escape).
	Keys(ctx context.Context, pattern string) ([]string, error)
	// Close releases backend resources. Calling it twice is a no-op.
	Close() error
}

// Config selects and tunes the backend. It is read once by [Open].
type Config struct {
	Backend          string
	RedisAddrs       []string
	RedisUsername    string
	RedisPassword    string
	RedisDB          int
	OpTimeout        time.Duration
	DialTimeout      time.Duration
	MaxRetries       int
	FallbackToMemory bool
	CleanupInterval  time.Duration
}

// DefaultConfig returns an in-process configuration with a 60s sweep.
func DefaultConfig() Config {
	return Config{
		Backend:          BackendMemory,
		OpTimeout:        250 * time.Millisecond,
		DialTimeout:      2 * time.Second,
		FallbackToMemory: true,
		CleanupInterval:  time.Minute,
	}
}

// Validate reports configuration errors.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendMemory:
	case BackendRedis:
		if len(c.RedisAddrs) == 0 {
			return errors.New("store: redis backend requires at least one address")
		}
		for _, addr := range c.RedisAddrs {
			if strings.TrimSpace(addr) == "" {
				return errors.New("store: redis address must not be blank")
			}
		}
	default:
		return fmt.Errorf("store: unknown backend %q", c.Backend)
	}
	if c.OpTimeout < 0 {
		return errors.New("store: OpTimeout must be >= 0")
	}
	if c.CleanupInterval < 0 {
		return errors.New("store: CleanupInterval must be >= 0")
	}
	return nil
}

// Open builds the backend named by cfg.Backend.
//
// A Redis backend is pinged once. If the ping fails and FallbackToMemory is set,
// Open logs a warning and returns a MemoryStore instead; otherwise the ping error
// is returned wrapped in ErrUnavailable.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Backend == BackendMemory {
		return NewMemoryStore(WithCleanupInterval(cfg.CleanupInterval)), nil
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        cfg.RedisAddrs,
		Username:     cfg.RedisUsername,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  cfg.DialTimeout,
		MaxRetries:   cfg.MaxRetries,
		ReadTimeout:  cfg.OpTimeout,
		WriteTimeout: cfg.OpTimeout,
	})

	pingTimeout := cfg.DialTimeout
	if pingTimeout <= 0 {
		pingTimeout = 2 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		if !cfg.FallbackToMemory {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		logger.Warn("redis unreachable, using in-process store",
			"addrs", strings.Join(cfg.RedisAddrs, ","),
			"error", err,
		)
		return NewMemoryStore(WithCleanupInterval(cfg.CleanupInterval)), nil
	}

	return NewRedisStore(client, cfg.OpTimeout), nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
