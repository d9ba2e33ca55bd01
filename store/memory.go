package store

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"
)

// ErrClosed is returned by a MemoryStore after Close. It wraps ErrUnavailable.
var ErrClosed = fmt.Errorf("%w: store closed", ErrUnavailable)

type memoryEntry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

func (e memoryEntry) live(now time.Time) bool {
	return e.expiresAt.IsZero() || now.Before(e.expiresAt)
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock replaces time.Now. Tests use it to move past deadlines.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithCleanupInterval sets the janitor period. Zero disables the janitor.
func WithCleanupInterval(d time.Duration) MemoryOption {
	return func(s *MemoryStore) {
		s.interval = d
	}
}

// MemoryStore is the in-process [Store] backend.
type MemoryStore struct {
	mu       sync.Mutex
	data     map[string]memoryEntry
	now      func() time.Time
	interval time.Duration
	closed   bool

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewMemoryStore creates a store and, unless disabled, starts its janitor.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		data:     make(map[string]memoryEntry),
		now:      time.Now,
		interval: time.Minute,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.interval > 0 {
		go s.janitor()
	} else {
		close(s.done)
	}
	return s
}

func (s *MemoryStore) janitor() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.evictExpired()
		case <-s.stop:
			return
		}
	}
}

func (s *MemoryStore) evictExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	evicted := 0
	for k, e := range s.data {
		if !e.live(now) {
			delete(s.data, k)
			evicted++
		}
	}
	return evicted
}

// lookup returns the live entry for key, dropping it if expired.
// Callers hold s.mu.
func (s *MemoryStore) lookup(key string, now time.Time) (memoryEntry, bool) {
	e, ok := s.data[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !e.live(now) {
		delete(s.data, key)
		return memoryEntry{}, false
	}
	return e, true
}

func (s *MemoryStore) begin(ctx context.Context) error {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return unavailable(err)
		}
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	if err := s.begin(ctx); err != nil {
		return "", err
	}
	defer s.mu.Unlock()

	e, ok := s.lookup(key, s.now())
	if !ok {
		return "", ErrNotFound
	}
	return e.value, nil
}

func (s *MemoryStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.begin(ctx); err != nil {
		return err
	}
	defer s.mu.Unlock()

	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.data[key] = e
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) (bool, error) {
	if err := s.begin(ctx); err != nil {
		return false, err
	}
	defer s.mu.Unlock()

	_, ok := s.lookup(key, s.now())
	delete(s.data, key)
	return ok, nil
}

func (s *MemoryStore) Increment(ctx context.Context, key string) (int64, error) {
	if err := s.begin(ctx); err != nil {
		return 0, err
	}
	defer s.mu.Unlock()

	e, ok := s.lookup(key, s.now())
	var n int64
	if ok {
		parsed, err := strconv.ParseInt(e.value, 10, 64)
		if err != nil {
			return 0, ErrNotInteger
		}
		n = parsed
	}
	n++
	e.value = strconv.FormatInt(n, 10)
	s.data[key] = e
	return n, nil
}

func (s *MemoryStore) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, ErrInvalidTTL
	}
	if err := s.begin(ctx); err != nil {
		return false, err
	}
	defer s.mu.Unlock()

	now := s.now()
	e, ok := s.lookup(key, now)
	if !ok {
		return false, nil
	}
	e.expiresAt = now.Add(ttl)
	s.data[key] = e
	return true, nil
}

func (s *MemoryStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	if err := s.begin(ctx); err != nil {
		return 0, err
	}
	defer s.mu.Unlock()

	now := s.now()
	e, ok := s.lookup(key, now)
	if !ok {
		return 0, ErrNotFound
	}
	if e.expiresAt.IsZero() {
		return NoExpiry, nil
	}
	return e.expiresAt.Sub(now), nil
}

func (s *MemoryStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	now := s.now()
	keys := make([]string, 0)
	for k, e := range s.data {
		if !e.live(now) {
			continue
		}
		if Match(pattern, k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Len returns the number of physically stored entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// Close stops the janitor and rejects further calls with ErrClosed.
func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.data = make(map[string]memoryEntry)
		s.mu.Unlock()

		close(s.stop)
		<-s.done
	})
	return nil
}

var _ Store = (*MemoryStore)(nil)
var _ Store = (*RedisStore)(nil)
