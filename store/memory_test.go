package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryJanitorEvictsExpiredEntries(t *testing.T) {
	clock := newFakeClock()
	s := NewMemoryStore(WithClock(clock.Now), WithCleanupInterval(5*time.Millisecond))
	defer s.Close()

	ctx := context.Background()
	_ = s.Set(ctx, "a", "1", time.Second)
	_ = s.Set(ctx, "b", "2", time.Second)
	_ = s.Set(ctx, "keep", "3", 0)
	clock.Advance(2 * time.Second)

	deadline := time.Now().Add(2 * time.Second)
	for s.Len() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("janitor did not evict, len=%d", s.Len())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestMemoryLazyExpiryWithoutJanitor(t *testing.T) {
	clock := newFakeClock()
	s := NewMemoryStore(WithClock(clock.Now), WithCleanupInterval(0))
	defer s.Close()

	ctx := context.Background()
	_ = s.Set(ctx, "a", "1", time.Second)
	clock.Advance(time.Second)

	// The deadline is exclusive: at exactly expiresAt the key is gone.
	if _, err := s.Get(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("expected lazy eviction on read, len=%d", s.Len())
	}
}

func TestMemoryEvictExpiredCount(t *testing.T) {
	clock := newFakeClock()
	s := NewMemoryStore(WithClock(clock.Now), WithCleanupInterval(0))
	defer s.Close()

	ctx := context.Background()
	_ = s.Set(ctx, "a", "1", time.Second)
	_ = s.Set(ctx, "b", "1", time.Minute)
	clock.Advance(2 * time.Second)

	if n := s.evictExpired(); n != 1 {
		t.Fatalf("expected 1 eviction, got %d", n)
	}
}

func TestMemoryCancelledContext(t *testing.T) {
	s := NewMemoryStore(WithCleanupInterval(0))
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Increment(ctx, "k")
	if !errors.Is(err, ErrUnavailable) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected ErrUnavailable wrapping context.Canceled, got %v", err)
	}
}

func TestMemoryCloseStopsJanitor(t *testing.T) {
	s := NewMemoryStore(WithCleanupInterval(time.Millisecond))
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	select {
	case <-s.done:
	default:
		t.Fatal("janitor still running after Close")
	}

	if err := s.Set(context.Background(), "k", "v", 0); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
