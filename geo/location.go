package geo

import (
	"context"
	"errors"
	"net"
)

var (
	// ErrLookupFailed indicates the provider could not resolve an address.
	ErrLookupFailed = errors.New("geolocation lookup failed")
	// ErrInvalidCountry indicates an empty country name.
	ErrInvalidCountry = errors.New("country name is empty")
	// ErrBlocklistUnavailable indicates the blocklist could not be read or written.
	ErrBlocklistUnavailable = errors.New("country blocklist unavailable")
)

// Location is the cached answer for one IP address.
type Location struct {
	Country string `json:"country"`
	Region  string `json:"region"`
	City    string `json:"city"`
	ISP     string `json:"isp"`
	IsProxy bool   `json:"isProxy"`
	IsVPN   bool   `json:"isVpn"`
}

// Lookup resolves an IP address through an external provider.
type Lookup interface {
	Lookup(ctx context.Context, ip string) (*Location, error)
}

// LookupFunc adapts a plain function to [Lookup].
type LookupFunc func(ctx context.Context, ip string) (*Location, error)

func (f LookupFunc) Lookup(ctx context.Context, ip string) (*Location, error) {
	return f(ctx, ip)
}

// Routable reports whether ip is a well-formed public address worth looking up.
// Private, loopback, link-local and unspecified addresses are not.
func Routable(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	return !(parsed.IsPrivate() ||
		parsed.IsLoopback() ||
		parsed.IsLinkLocalUnicast() ||
		parsed.IsLinkLocalMulticast() ||
		parsed.IsUnspecified())
}
