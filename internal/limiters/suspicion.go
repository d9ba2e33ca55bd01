package limiters

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/MrEthical07/goGuard/store"
)

var (
	// ErrSuspicionUnavailable indicates the suspicion backend is unreachable.
	ErrSuspicionUnavailable = errors.New("suspicion backend unavailable")
)

// SuspicionConfig holds configuration for the suspicious-activity monitor.
type SuspicionConfig struct {
	Enabled   bool
	Threshold int
	Window    time.Duration
}

// SuspicionMonitor counts flagged requests per IP and denies past Threshold.
// The counter is never decremented; it disappears when Window lapses.
type SuspicionMonitor struct {
	store  store.Store
	config SuspicionConfig
}

// NewSuspicionMonitor creates a monitor over s.
func NewSuspicionMonitor(s store.Store, cfg SuspicionConfig) *SuspicionMonitor {
	return &SuspicionMonitor{store: s, config: cfg}
}

// SuspicionKey is the counter key for ip.
func SuspicionKey(ip string) string {
	return "suspicious_activity:" + ip
}

// RecordAndCheck increments the counter for ip and reports whether the caller
// is still allowed. A store failure returns allowed=true with the error so the
// caller can log it.
func (m *SuspicionMonitor) RecordAndCheck(ctx context.Context, ip string) (bool, int64, error) {
	if m == nil || !m.config.Enabled || ip == "" {
		return true, 0, nil
	}

	key := SuspicionKey(ip)
	count, err := m.store.Increment(ctx, key)
	if err != nil {
		return true, 0, fmt.Errorf("%w: %v", ErrSuspicionUnavailable, err)
	}

	if err := m.ensureWindow(ctx, key, count); err != nil {
		return true, count, err
	}

	return count <= int64(m.config.Threshold), count, nil
}

// ensureWindow sets the TTL on the first hit so the counter resets when the
// window lapses. Later hits re-apply it if that first expire was lost.
func (m *SuspicionMonitor) ensureWindow(ctx context.Context, key string, count int64) error {
	if count > 1 {
		ttl, err := m.store.TTL(ctx, key)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			return fmt.Errorf("%w: %v", ErrSuspicionUnavailable, err)
		}
		if ttl != store.NoExpiry {
			return nil
		}
	}

	if _, err := m.store.Expire(ctx, key, m.config.Window); err != nil {
		return fmt.Errorf("%w: %v", ErrSuspicionUnavailable, err)
	}
	return nil
}

// Peek reports whether ip is still allowed without recording a hit.
func (m *SuspicionMonitor) Peek(ctx context.Context, ip string) (bool, int64, error) {
	if m == nil || !m.config.Enabled || ip == "" {
		return true, 0, nil
	}

	n, err := m.Count(ctx, ip)
	if err != nil {
		return true, 0, err
	}
	return n <= m.config.Threshold, int64(n), nil
}

// Count returns the current counter for ip.
func (m *SuspicionMonitor) Count(ctx context.Context, ip string) (int, error) {
	if m == nil || !m.config.Enabled || ip == "" {
		return 0, nil
	}

	raw, err := m.store.Get(ctx, SuspicionKey(ip))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrSuspicionUnavailable, err)
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, nil
	}
	return n, nil
}

// Reset clears the counter for ip (manual unblock).
func (m *SuspicionMonitor) Reset(ctx context.Context, ip string) error {
	if m == nil || !m.config.Enabled || ip == "" {
		return nil
	}

	if _, err := m.store.Delete(ctx, SuspicionKey(ip)); err != nil {
		return fmt.Errorf("%w: %v", ErrSuspicionUnavailable, err)
	}
	return nil
}
