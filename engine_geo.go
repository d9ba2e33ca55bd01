package goGuard

import (
	"context"
	"errors"
	"strings"
)

// ResolveLocation returns the cached or freshly looked-up location of ip.
// Lookup failures and non-routable addresses report false.
func (e *Engine) ResolveLocation(ctx context.Context, ip string) (*Location, bool) {
	if !e.ready() {
		return nil, false
	}
	return e.geoCache.Resolve(ctx, ip)
}

// IsGeoBlocked reports whether ip resolves to a blocked country or is flagged
// as a proxy or VPN. Unresolvable addresses are never blocked.
func (e *Engine) IsGeoBlocked(ctx context.Context, ip string) bool {
	if !e.ready() {
		return false
	}
	return e.blocklist.IsBlocked(ctx, ip)
}

// BlockedCountries lists the blocked countries in insertion order.
func (e *Engine) BlockedCountries(ctx context.Context) ([]string, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	list, err := e.blocklist.List(ctx)
	if err != nil {
		return nil, storeUnavailable(err)
	}
	return list, nil
}

// AddBlockedCountry adds country unless it is already present in any letter
// case. It reports whether the set changed.
func (e *Engine) AddBlockedCountry(ctx context.Context, country string) (bool, error) {
	if !e.ready() {
		return false, ErrEngineNotReady
	}

	changed, err := e.blocklist.Add(ctx, country)
	if err != nil {
		if errors.Is(err, ErrInvalidCountry) {
			return false, err
		}
		return false, storeUnavailable(err)
	}
	if changed {
		e.metricInc(MetricBlocklistChanged)
		e.logger.Info("country blocked", "country", strings.TrimSpace(country))
		e.emitAudit(ctx, AuditCountryBlocked, "", "", true, nil, func() map[string]string {
			return map[string]string{"country": strings.TrimSpace(country)}
		})
	}
	return changed, nil
}

// RemoveBlockedCountry removes country. Removing an absent country is a no-op.
func (e *Engine) RemoveBlockedCountry(ctx context.Context, country string) (bool, error) {
	if !e.ready() {
		return false, ErrEngineNotReady
	}

	changed, err := e.blocklist.Remove(ctx, country)
	if err != nil {
		if errors.Is(err, ErrInvalidCountry) {
			return false, err
		}
		return false, storeUnavailable(err)
	}
	if changed {
		e.metricInc(MetricBlocklistChanged)
		e.logger.Info("country unblocked", "country", strings.TrimSpace(country))
		e.emitAudit(ctx, AuditCountryUnblocked, "", "", true, nil, func() map[string]string {
			return map[string]string{"country": strings.TrimSpace(country)}
		})
	}
	return changed, nil
}
