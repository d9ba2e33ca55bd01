package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrEthical07/goGuard/store"
)

// DefaultCacheTTL is how long a resolved location stays cached.
const DefaultCacheTTL = time.Hour

// Outcome classifies one Resolve call for observers.
type Outcome int

const (
	OutcomeHit Outcome = iota
	OutcomeMiss
	OutcomeLookupFailed
	OutcomeSkipped
)

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithCacheTTL overrides DefaultCacheTTL.
func WithCacheTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithLookupTimeout bounds every provider call. Zero leaves the caller's
// context as the only bound.
func WithLookupTimeout(d time.Duration) CacheOption {
	return func(c *Cache) {
		if d > 0 {
			c.lookupTimeout = d
		}
	}
}

// WithLogger sets the logger used for fail-open warnings.
func WithLogger(logger *slog.Logger) CacheOption {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver registers a callback invoked once per Resolve.
func WithObserver(fn func(Outcome)) CacheOption {
	return func(c *Cache) {
		c.observe = fn
	}
}

// Cache fronts a Lookup with the TTL store.
type Cache struct {
	store         store.Store
	lookup        Lookup
	ttl           time.Duration
	lookupTimeout time.Duration
	logger        *slog.Logger
	observe       func(Outcome)
}

// NewCache creates a cache over s. A nil lookup makes every miss unresolvable.
func NewCache(s store.Store, lookup Lookup, opts ...CacheOption) *Cache {
	c := &Cache{
		store:  s,
		lookup: lookup,
		ttl:    DefaultCacheTTL,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.observe == nil {
		c.observe = func(Outcome) {}
	}
	return c
}

// CacheKey is the store key for ip.
func CacheKey(ip string) string {
	return "geo:" + ip
}

// Resolve returns the location for ip and whether it is known. Cached entries
// are served without calling the provider; fresh answers are cached for the
// configured TTL. Any failure yields (nil, false).
func (c *Cache) Resolve(ctx context.Context, ip string) (*Location, bool) {
	if c == nil || !Routable(ip) {
		if c != nil {
			c.observe(OutcomeSkipped)
		}
		return nil, false
	}

	key := CacheKey(ip)
	raw, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		var loc Location
		if jsonErr := json.Unmarshal([]byte(raw), &loc); jsonErr == nil {
			c.observe(OutcomeHit)
			return &loc, true
		}
		c.logger.Warn("geo cache entry unreadable", "ip", ip, "stage", "geo")
	case !errors.Is(err, store.ErrNotFound):
		c.logger.Warn("geo cache read failed", "ip", ip, "stage", "geo", "error", err)
	}

	if c.lookup == nil {
		c.observe(OutcomeLookupFailed)
		return nil, false
	}

	loc, err := c.lookupBounded(ctx, ip)
	if err != nil || loc == nil {
		c.observe(OutcomeLookupFailed)
		c.logger.Warn("geo lookup failed", "ip", ip, "stage", "geo", "error", err)
		return nil, false
	}
	c.observe(OutcomeMiss)

	encoded, err := json.Marshal(loc)
	if err == nil {
		err = c.store.Set(ctx, key, string(encoded), c.ttl)
	}
	if err != nil {
		c.logger.Warn("geo cache write failed", "ip", ip, "stage", "geo", "error", err)
	}
	return loc, true
}

type lookupResult struct {
	loc *Location
	err error
}

// lookupBounded calls the provider under the lookup timeout. A provider that
// ignores its context is abandoned once the deadline passes.
func (c *Cache) lookupBounded(ctx context.Context, ip string) (*Location, error) {
	if c.lookupTimeout <= 0 {
		return c.lookup.Lookup(ctx, ip)
	}
	lookupCtx, cancel := context.WithTimeout(ctx, c.lookupTimeout)
	defer cancel()

	done := make(chan lookupResult, 1)
	go func() {
		loc, err := c.lookup.Lookup(lookupCtx, ip)
		done <- lookupResult{loc: loc, err: err}
	}()

	select {
	case r := <-done:
		return r.loc, r.err
	case <-lookupCtx.Done():
		return nil, fmt.Errorf("%w: %v", ErrLookupFailed, lookupCtx.Err())
	}
}
