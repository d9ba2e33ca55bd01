package goGuard

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/goGuard/store"
)

// Endpoint names with their own rate budget.
const (
	EndpointEmailOTP = "email_otp"
	EndpointPhoneOTP = "phone_otp"
	EndpointWhatsApp = "whatsapp"
)

// Geo providers understood by Build.
const (
	GeoProviderNone    = "none"
	GeoProviderIPAPI   = "ip-api"
	GeoProviderMaxMind = "maxmind"
)

// Config defines every tunable of the Engine.
//
// Config instances are intended to be configured during initialization and then
// treated as immutable.
type Config struct {
	Store     store.Config
	RateLimit RateLimitConfig
	Suspicion SuspicionConfig
	OTP       OTPConfig
	Geo       GeoConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// RateLimitConfig holds the two fixed-window budgets.
type RateLimitConfig struct {
	EnableIPThrottle       bool
	EnableEndpointThrottle bool

	IPPoints int
	IPWindow time.Duration
	IPBlock  time.Duration

	EndpointPoints int
	EndpointWindow time.Duration
	EndpointBlock  time.Duration

	// Endpoints maps request paths to endpoint budget names. Paths not listed
	// only consume the IP budget.
	Endpoints map[string]string
}

/*
====================================
SUSPICION CONFIG
====================================
*/

type SuspicionConfig struct {
	Enabled   bool
	Threshold int
	Window    time.Duration
}

/*
====================================
OTP CONFIG
====================================
*/

type OTPConfig struct {
	TTL time.Duration
}

/*
====================================
GEO CONFIG
====================================
*/

// GeoConfig selects the geolocation provider. A lookup passed to
// Builder.WithGeoLookup overrides Provider.
type GeoConfig struct {
	Enabled           bool
	Provider          string
	CacheTTL          time.Duration
	LookupTimeout     time.Duration
	HTTPEndpoint      string
	RequestsPerMinute int
	MaxMindCityDB     string
	MaxMindAnonIPDB   string
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the production defaults: 100 points per minute per IP,
// 5 per minute on the OTP and WhatsApp endpoints, 15 minute blocks, a 10 hit
// hourly suspicion threshold and 10 minute OTP codes.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Store: store.DefaultConfig(),
		RateLimit: RateLimitConfig{
			EnableIPThrottle:       true,
			EnableEndpointThrottle: true,
			IPPoints:               100,
			IPWindow:               time.Minute,
			IPBlock:                15 * time.Minute,
			EndpointPoints:         5,
			EndpointWindow:         time.Minute,
			EndpointBlock:          15 * time.Minute,
			Endpoints: map[string]string{
				"/api/otp/email":         EndpointEmailOTP,
				"/api/otp/phone":         EndpointPhoneOTP,
				"/api/messages/whatsapp": EndpointWhatsApp,
			},
		},
		Suspicion: SuspicionConfig{
			Enabled:   true,
			Threshold: 10,
			Window:    time.Hour,
		},
		OTP: OTPConfig{
			TTL: 10 * time.Minute,
		},
		Geo: GeoConfig{
			Enabled:           true,
			Provider:          GeoProviderIPAPI,
			CacheTTL:          time.Hour,
			LookupTimeout:     3 * time.Second,
			RequestsPerMinute: 45,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	if cfg.Store.RedisAddrs != nil {
		out.Store.RedisAddrs = append([]string(nil), cfg.Store.RedisAddrs...)
	}
	if cfg.RateLimit.Endpoints != nil {
		out.RateLimit.Endpoints = make(map[string]string, len(cfg.RateLimit.Endpoints))
		for path, name := range cfg.RateLimit.Endpoints {
			out.RateLimit.Endpoints[path] = name
		}
	}
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate rejects nonsensical values. It does not mutate c.
func (c *Config) Validate() error {
	if err := c.Store.Validate(); err != nil {
		return err
	}

	// Rate limiting
	if c.RateLimit.EnableIPThrottle {
		if c.RateLimit.IPPoints <= 0 {
			return errors.New("RateLimit IPPoints must be > 0")
		}
		if c.RateLimit.IPWindow <= 0 {
			return errors.New("RateLimit IPWindow must be > 0")
		}
		if c.RateLimit.IPBlock < 0 {
			return errors.New("RateLimit IPBlock must be >= 0")
		}
	}
	if c.RateLimit.EnableEndpointThrottle {
		if c.RateLimit.EndpointPoints <= 0 {
			return errors.New("RateLimit EndpointPoints must be > 0")
		}
		if c.RateLimit.EndpointWindow <= 0 {
			return errors.New("RateLimit EndpointWindow must be > 0")
		}
		if c.RateLimit.EndpointBlock < 0 {
			return errors.New("RateLimit EndpointBlock must be >= 0")
		}
	}
	for path, name := range c.RateLimit.Endpoints {
		if !strings.HasPrefix(path, "/") {
			return fmt.Errorf("RateLimit endpoint path %q must start with '/'", path)
		}
		if strings.TrimSpace(name) == "" || strings.ContainsAny(name, ":*? ") {
			return fmt.Errorf("RateLimit endpoint name %q is not a valid key segment", name)
		}
	}

	// Suspicion
	if c.Suspicion.Enabled {
		if c.Suspicion.Threshold <= 0 {
			return errors.New("Suspicion Threshold must be > 0")
		}
		if c.Suspicion.Window <= 0 {
			return errors.New("Suspicion Window must be > 0")
		}
	}

	// OTP
	if c.OTP.TTL <= 0 {
		return errors.New("OTP TTL must be > 0")
	}

	// Geo
	if c.Geo.Enabled {
		switch c.Geo.Provider {
		case GeoProviderNone, GeoProviderIPAPI:
		case GeoProviderMaxMind:
			if c.Geo.MaxMindCityDB == "" {
				return errors.New("Geo maxmind provider requires MaxMindCityDB")
			}
		default:
			return fmt.Errorf("unsupported Geo provider %q", c.Geo.Provider)
		}
		if c.Geo.CacheTTL <= 0 {
			return errors.New("Geo CacheTTL must be > 0")
		}
		if c.Geo.LookupTimeout <= 0 {
			return errors.New("Geo LookupTimeout must be > 0")
		}
		if c.Geo.RequestsPerMinute < 0 {
			return errors.New("Geo RequestsPerMinute must be >= 0")
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}

	return nil
}
