package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/MrEthical07/goGuard/store"
)

// BlocklistKey holds the JSON array of blocked country names.
const BlocklistKey = "blocked_countries"

// Cause names why an address was blocked.
type Cause string

const (
	CauseNone    Cause = ""
	CauseCountry Cause = "country"
	CauseProxy   Cause = "proxy"
	CauseVPN     Cause = "vpn"
)

// Verdict is the detailed result of a blocklist check.
type Verdict struct {
	Blocked  bool
	Cause    Cause
	Location *Location
}

// Blocklist is the mutable set of blocked countries.
// Add and Remove are read-modify-write cycles serialised by an in-process mutex;
// concurrent writers in other processes can still lose updates.
type Blocklist struct {
	store  store.Store
	cache  *Cache
	logger *slog.Logger

	mu sync.Mutex
}

// NewBlocklist creates a blocklist that resolves addresses through cache.
func NewBlocklist(s store.Store, cache *Cache, logger *slog.Logger) *Blocklist {
	if logger == nil {
		logger = slog.Default()
	}
	return &Blocklist{store: s, cache: cache, logger: logger}
}

// IsBlocked reports whether ip resolves to a blocked country or is flagged as
// a proxy or VPN. Unresolvable addresses are not blocked.
func (b *Blocklist) IsBlocked(ctx context.Context, ip string) bool {
	return b.Evaluate(ctx, ip).Blocked
}

// Evaluate is IsBlocked with the cause and resolved location attached.
func (b *Blocklist) Evaluate(ctx context.Context, ip string) Verdict {
	if b == nil {
		return Verdict{}
	}

	loc, ok := b.cache.Resolve(ctx, ip)
	if !ok {
		return Verdict{}
	}
	if loc.IsProxy {
		return Verdict{Blocked: true, Cause: CauseProxy, Location: loc}
	}
	if loc.IsVPN {
		return Verdict{Blocked: true, Cause: CauseVPN, Location: loc}
	}

	countries, err := b.List(ctx)
	if err != nil {
		b.logger.Warn("blocked countries unavailable", "ip", ip, "stage", "geo", "error", err)
		return Verdict{Location: loc}
	}
	if indexFold(countries, loc.Country) >= 0 {
		return Verdict{Blocked: true, Cause: CauseCountry, Location: loc}
	}
	return Verdict{Location: loc}
}

// List returns the blocked countries in insertion order.
func (b *Blocklist) List(ctx context.Context) ([]string, error) {
	raw, err := b.store.Get(ctx, BlocklistKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrBlocklistUnavailable, err)
	}

	var countries []string
	if err := json.Unmarshal([]byte(raw), &countries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBlocklistUnavailable, err)
	}
	if countries == nil {
		countries = []string{}
	}
	return countries, nil
}

// Add inserts country unless an entry with the same name in any letter case
// exists. It reports whether the set changed.
func (b *Blocklist) Add(ctx context.Context, country string) (bool, error) {
	country = strings.TrimSpace(country)
	if country == "" {
		return false, ErrInvalidCountry
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	countries, err := b.List(ctx)
	if err != nil {
		return false, err
	}
	if indexFold(countries, country) >= 0 {
		return false, nil
	}
	return true, b.save(ctx, append(countries, country))
}

// Remove deletes country, matched case-insensitively. Removing an absent
// country is a no-op. It reports whether the set changed.
func (b *Blocklist) Remove(ctx context.Context, country string) (bool, error) {
	country = strings.TrimSpace(country)
	if country == "" {
		return false, ErrInvalidCountry
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	countries, err := b.List(ctx)
	if err != nil {
		return false, err
	}
	i := indexFold(countries, country)
	if i < 0 {
		return false, nil
	}
	countries = append(countries[:i], countries[i+1:]...)
	return true, b.save(ctx, countries)
}

func (b *Blocklist) save(ctx context.Context, countries []string) error {
	encoded, err := json.Marshal(countries)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBlocklistUnavailable, err)
	}
	if err := b.store.Set(ctx, BlocklistKey, string(encoded), 0); err != nil {
		return fmt.Errorf("%w: %v", ErrBlocklistUnavailable, err)
	}
	return nil
}

func indexFold(list []string, s string) int {
	if s == "" {
		return -1
	}
	for i, v := range list {
		if strings.EqualFold(v, s) {
			return i
		}
	}
	return -1
}
