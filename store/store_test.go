package store

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// fakeClock is a manually advanced time source for MemoryStore.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type backend struct {
	name string
	open func(t *testing.T) (Store, func(time.Duration))
}

func backends() []backend {
	return []backend{
		{
			name: "memory",
			open: func(t *testing.T) (Store, func(time.Duration)) {
				t.Helper()
				clock := newFakeClock()
				s := NewMemoryStore(WithClock(clock.Now), WithCleanupInterval(0))
				t.Cleanup(func() { _ = s.Close() })
				return s, clock.Advance
			},
		},
		{
			name: "redis",
			open: func(t *testing.T) (Store, func(time.Duration)) {
				t.Helper()
				mr, err := miniredis.Run()
				if err != nil {
					t.Fatalf("miniredis run failed: %v", err)
				}
				rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
				s := NewRedisStore(rdb, 2*time.Second)
				t.Cleanup(func() {
					_ = s.Close()
					mr.Close()
				})
				return s, mr.FastForward
			},
		},
	}
}

func forEachBackend(t *testing.T, fn func(t *testing.T, s Store, advance func(time.Duration))) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			s, advance := b.open(t)
			fn(t, s, advance)
		})
	}
}

func TestSetGetRoundTripAndExpiry(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store, advance func(time.Duration)) {
		ctx := context.Background()

		if err := s.Set(ctx, "k", "v", 10*time.Second); err != nil {
			t.Fatalf("set: %v", err)
		}
		got, err := s.Get(ctx, "k")
		if err != nil || got != "v" {
			t.Fatalf("expected v, got %q err=%v", got, err)
		}

		advance(9 * time.Second)
		if _, err := s.Get(ctx, "k"); err != nil {
			t.Fatalf("key expired early: %v", err)
		}

		advance(2 * time.Second)
		if _, err := s.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound after ttl, got %v", err)
		}
	})
}

func TestSetWithoutTTLPersists(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store, advance func(time.Duration)) {
		ctx := context.Background()

		if err := s.Set(ctx, "k", "v", 5*time.Second); err != nil {
			t.Fatalf("set: %v", err)
		}
		// Overwrite without ttl clears the previous deadline.
		if err := s.Set(ctx, "k", "w", 0); err != nil {
			t.Fatalf("set: %v", err)
		}

		advance(24 * time.Hour)

		got, err := s.Get(ctx, "k")
		if err != nil || got != "w" {
			t.Fatalf("expected w, got %q err=%v", got, err)
		}
		ttl, err := s.TTL(ctx, "k")
		if err != nil || ttl != NoExpiry {
			t.Fatalf("expected NoExpiry, got %v err=%v", ttl, err)
		}
	})
}

func TestDeleteReportsPresence(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store, advance func(time.Duration)) {
		ctx := context.Background()

		if ok, err := s.Delete(ctx, "missing"); err != nil || ok {
			t.Fatalf("delete missing: ok=%v err=%v", ok, err)
		}

		_ = s.Set(ctx, "k", "v", 0)
		if ok, err := s.Delete(ctx, "k"); err != nil || !ok {
			t.Fatalf("delete present: ok=%v err=%v", ok, err)
		}
		if _, err := s.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected key gone, got %v", err)
		}

		_ = s.Set(ctx, "short", "v", time.Second)
		advance(2 * time.Second)
		if ok, err := s.Delete(ctx, "short"); err != nil || ok {
			t.Fatalf("delete expired: ok=%v err=%v", ok, err)
		}
	})
}

func TestIncrementStartsAtOneWithoutTTL(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store, advance func(time.Duration)) {
		ctx := context.Background()

		for want := int64(1); want <= 3; want++ {
			got, err := s.Increment(ctx, "counter")
			if err != nil {
				t.Fatalf("increment: %v", err)
			}
			if got != want {
				t.Fatalf("expected %d, got %d", want, got)
			}
		}

		ttl, err := s.TTL(ctx, "counter")
		if err != nil || ttl != NoExpiry {
			t.Fatalf("increment must not set a ttl, got %v err=%v", ttl, err)
		}
	})
}

func TestIncrementKeepsExistingTTL(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store, advance func(time.Duration)) {
		ctx := context.Background()

		if _, err := s.Increment(ctx, "counter"); err != nil {
			t.Fatalf("increment: %v", err)
		}
		if ok, err := s.Expire(ctx, "counter", 10*time.Second); err != nil || !ok {
			t.Fatalf("expire: ok=%v err=%v", ok, err)
		}
		advance(4 * time.Second)
		if n, err := s.Increment(ctx, "counter"); err != nil || n != 2 {
			t.Fatalf("expected 2, got %d err=%v", n, err)
		}

		advance(7 * time.Second)
		if n, err := s.Increment(ctx, "counter"); err != nil || n != 1 {
			t.Fatalf("expected window reset to 1, got %d err=%v", n, err)
		}
	})
}

func TestIncrementRejectsNonInteger(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store, advance func(time.Duration)) {
		ctx := context.Background()

		_ = s.Set(ctx, "k", "not-a-number", 0)
		if _, err := s.Increment(ctx, "k"); !errors.Is(err, ErrNotInteger) {
			t.Fatalf("expected ErrNotInteger, got %v", err)
		}
	})
}

func TestExpire(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store, advance func(time.Duration)) {
		ctx := context.Background()

		if ok, err := s.Expire(ctx, "missing", time.Second); err != nil || ok {
			t.Fatalf("expire missing: ok=%v err=%v", ok, err)
		}
		if _, err := s.Expire(ctx, "missing", 0); !errors.Is(err, ErrInvalidTTL) {
			t.Fatalf("expected ErrInvalidTTL, got %v", err)
		}

		_ = s.Set(ctx, "k", "v", 0)
		if ok, err := s.Expire(ctx, "k", 3*time.Second); err != nil || !ok {
			t.Fatalf("expire present: ok=%v err=%v", ok, err)
		}
		ttl, err := s.TTL(ctx, "k")
		if err != nil || ttl <= 0 || ttl > 3*time.Second {
			t.Fatalf("unexpected ttl %v err=%v", ttl, err)
		}

		advance(4 * time.Second)
		if _, err := s.TTL(ctx, "k"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestKeysMatchesLiveKeysOnly(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store, advance func(time.Duration)) {
		ctx := context.Background()

		_ = s.Set(ctx, "email_otp:a@example.com", "1", 0)
		_ = s.Set(ctx, "email_otp:b@example.com", "2", time.Second)
		_ = s.Set(ctx, "phone_otp:+15550100", "3", 0)
		advance(2 * time.Second)

		keys, err := s.Keys(ctx, "email_otp:*")
		if err != nil {
			t.Fatalf("keys: %v", err)
		}
		if len(keys) != 1 || keys[0] != "email_otp:a@example.com" {
			t.Fatalf("unexpected keys %v", keys)
		}
	})
}

func TestKeysCharacterClasses(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store, _ func(time.Duration)) {
		ctx := context.Background()

		_ = s.Set(ctx, "geo:10.0.0.1", "{}", 0)
		_ = s.Set(ctx, "geo:203.0.113.9", "{}", 0)
		_ = s.Set(ctx, "geo:fe80::1", "{}", 0)

		tests := []struct {
			pattern string
			want    []string
		}{
			{"geo:[0-9]*", []string{"geo:10.0.0.1", "geo:203.0.113.9"}},
			{"geo:[^0-9]*", []string{"geo:fe80::1"}},
			{"geo:[12]0*", []string{"geo:10.0.0.1", "geo:203.0.113.9"}},
			{"geo:[a-f]e80::1", []string{"geo:fe80::1"}},
		}
		for _, tt := range tests {
			keys, err := s.Keys(ctx, tt.pattern)
			if err != nil {
				t.Fatalf("keys %q: %v", tt.pattern, err)
			}
			sort.Strings(keys)
			if !reflect.DeepEqual(keys, tt.want) {
				t.Fatalf("keys %q: got %v, want %v", tt.pattern, keys, tt.want)
			}
		}
	})
}

func TestConcurrentIncrementLosesNoUpdates(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store, advance func(time.Duration)) {
		ctx := context.Background()
		const workers = 200

		var wg sync.WaitGroup
		errs := make(chan error, workers)
		wg.Add(workers)
		for i := 0; i < workers; i++ {
			go func() {
				defer wg.Done()
				if _, err := s.Increment(ctx, "hot"); err != nil {
					errs <- err
				}
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			t.Fatalf("increment failed: %v", err)
		}

		got, err := s.Get(ctx, "hot")
		if err != nil || got != "200" {
			t.Fatalf("expected 200, got %q err=%v", got, err)
		}
	})
}

func TestCloseIsIdempotent(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store, advance func(time.Duration)) {
		_ = s.Close()
		_ = s.Close()
		if _, err := s.Get(context.Background(), "k"); !errors.Is(err, ErrUnavailable) {
			t.Fatalf("expected ErrUnavailable after close, got %v", err)
		}
	})
}
