package rate

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/MrEthical07/goGuard/store"
)

const blockedValue = "1"

// Policy is one fixed-window budget.
type Policy struct {
	Points int
	Window time.Duration
	Block  time.Duration // 0 = reject only until the window lapses
}

// Config holds rate limiter tuning parameters.
type Config struct {
	EnableIPThrottle       bool
	EnableEndpointThrottle bool
	IP                     Policy
	Endpoint               Policy
}

// Decision is the outcome of a single consumption attempt.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
	Key        string
}

// Limiter enforces per-IP and per-endpoint budgets using store counters.
type Limiter struct {
	store  store.Store
	config Config
}

// New creates a rate [Limiter] backed by s.
func New(s store.Store, cfg Config) *Limiter {
	return &Limiter{
		store:  s,
		config: cfg,
	}
}

// IPKey is the counter key for the global per-IP budget.
func IPKey(ip string) string {
	return "ip_rate_limit:" + ip
}

// EndpointKey is the counter key for a sensitive endpoint budget.
func EndpointKey(endpoint, ip string) string {
	return endpoint + "_limit:" + ip
}

// BlockKey is the cool-down marker key for a counter key.
func BlockKey(counterKey string) string {
	return "blocked:" + counterKey
}

// CheckRequest consumes one point from the IP budget and, when endpoint is not
// empty, one point from that endpoint's budget. Both must pass.
//
// A rejected request returns ErrRateLimited together with the decision that
// carries RetryAfter. Store failures return ErrStoreUnavailable.
func (l *Limiter) CheckRequest(ctx context.Context, ip, endpoint string) (Decision, error) {
	if l == nil || ip == "" {
		return Decision{Allowed: true}, nil
	}

	decision := Decision{Allowed: true}

	if l.config.EnableIPThrottle {
		d, err := l.Consume(ctx, IPKey(ip), l.config.IP)
		if err != nil {
			return d, err
		}
		decision = d
	}

	if l.config.EnableEndpointThrottle && endpoint != "" {
		d, err := l.Consume(ctx, EndpointKey(endpoint, ip), l.config.Endpoint)
		if err != nil {
			return d, err
		}
		decision = d
	}

	return decision, nil
}

// Consume takes one point from key under policy p.
//
// The request whose increment crosses the budget is itself rejected, so with a
// budget of N the (N+1)-th call in a window is the first rejection.
func (l *Limiter) Consume(ctx context.Context, key string, p Policy) (Decision, error) {
	blockKey := BlockKey(key)

	remaining, err := l.store.TTL(ctx, blockKey)
	switch {
	case err == nil:
		if remaining == store.NoExpiry {
			remaining = p.Block
		}
		return Decision{Key: key, RetryAfter: remaining}, ErrRateLimited
	case errors.Is(err, store.ErrNotFound):
	default:
		return Decision{Key: key}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	count, err := l.store.Increment(ctx, key)
	if err != nil {
		return Decision{Key: key}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	// Later hits repair a window whose first expire was lost, so stale points
	// never carry over into the next window.
	windowLeft := p.Window
	if count == 1 {
		if _, err := l.store.Expire(ctx, key, p.Window); err != nil {
			return Decision{Key: key}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	} else {
		windowLeft, err = l.ensureWindow(ctx, key, p.Window)
		if err != nil {
			return Decision{Key: key}, err
		}
	}

	if count <= int64(p.Points) {
		return Decision{
			Allowed:   true,
			Key:       key,
			Remaining: p.Points - int(count),
		}, nil
	}

	if p.Block <= 0 {
		return Decision{Key: key, RetryAfter: windowLeft}, ErrRateLimited
	}

	if err := l.store.Set(ctx, blockKey, blockedValue, p.Block); err != nil {
		return Decision{Key: key}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return Decision{Key: key, RetryAfter: p.Block}, ErrRateLimited
}

// ensureWindow returns the remaining window for key, re-applying the window TTL
// when a previous first hit incremented the counter but never set its expiry.
func (l *Limiter) ensureWindow(ctx context.Context, key string, window time.Duration) (time.Duration, error) {
	ttl, err := l.store.TTL(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if ttl != store.NoExpiry {
		return ttl, nil
	}
	if _, err := l.store.Expire(ctx, key, window); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return window, nil
}

// Attempts returns the points consumed in the current window for key.
// Missing keys return zero.
func (l *Limiter) Attempts(ctx context.Context, key string) (int, error) {
	raw, err := l.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, nil
	}
	return n, nil
}

// Reset clears the IP budget and the given endpoint budgets for ip, including
// any live block markers.
func (l *Limiter) Reset(ctx context.Context, ip string, endpoints ...string) error {
	if l == nil || ip == "" {
		return nil
	}

	keys := []string{IPKey(ip)}
	for _, endpoint := range endpoints {
		keys = append(keys, EndpointKey(endpoint, ip))
	}

	for _, key := range keys {
		for _, k := range []string{key, BlockKey(key)} {
			if _, err := l.store.Delete(ctx, k); err != nil {
				return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
			}
		}
	}
	return nil
}
