package geo

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// MaxMindLookup resolves addresses from local GeoLite2/GeoIP2 databases.
type MaxMindLookup struct {
	city      *geoip2.Reader
	anonymous *geoip2.Reader
	language  string
}

// OpenMaxMind opens the City database at cityPath and, when anonymousPath is
// not empty, the Anonymous IP database used for proxy and VPN flags.
func OpenMaxMind(cityPath, anonymousPath string) (*MaxMindLookup, error) {
	city, err := geoip2.Open(cityPath)
	if err != nil {
		return nil, fmt.Errorf("open city database: %w", err)
	}

	m := &MaxMindLookup{city: city, language: "en"}
	if anonymousPath != "" {
		anon, err := geoip2.Open(anonymousPath)
		if err != nil {
			_ = city.Close()
			return nil, fmt.Errorf("open anonymous ip database: %w", err)
		}
		m.anonymous = anon
	}
	return m, nil
}

// Lookup reads both databases. The context is unused; reads are memory-mapped.
func (m *MaxMindLookup) Lookup(_ context.Context, ip string) (*Location, error) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return nil, fmt.Errorf("%w: invalid ip %q", ErrLookupFailed, ip)
	}

	record, err := m.city.City(parsed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	if record.Country.IsoCode == "" {
		return nil, fmt.Errorf("%w: no country for %s", ErrLookupFailed, ip)
	}

	loc := &Location{
		Country: record.Country.Names[m.language],
		City:    record.City.Names[m.language],
		IsProxy: record.Traits.IsAnonymousProxy,
	}
	if loc.Country == "" {
		loc.Country = record.Country.IsoCode
	}
	if len(record.Subdivisions) > 0 {
		loc.Region = record.Subdivisions[0].Names[m.language]
	}

	if m.anonymous != nil {
		anon, err := m.anonymous.AnonymousIP(parsed)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLookupFailed, err)
		}
		loc.IsProxy = loc.IsProxy || anon.IsPublicProxy || anon.IsResidentialProxy || anon.IsTorExitNode
		loc.IsVPN = anon.IsAnonymousVPN
	}
	return loc, nil
}

// Close releases both database readers.
func (m *MaxMindLookup) Close() error {
	var errs []error
	if m.city != nil {
		errs = append(errs, m.city.Close())
	}
	if m.anonymous != nil {
		errs = append(errs, m.anonymous.Close())
	}
	return errors.Join(errs...)
}
