package goGuard

import (
	"testing"
	"time"

	"github.com/MrEthical07/goGuard/store"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.RateLimit.IPPoints != 100 || cfg.RateLimit.IPBlock != 900*time.Second {
		t.Fatalf("unexpected IP budget %+v", cfg.RateLimit)
	}
	if cfg.RateLimit.EndpointPoints != 5 || cfg.OTP.TTL != 600*time.Second {
		t.Fatalf("unexpected endpoint/otp defaults %+v %+v", cfg.RateLimit, cfg.OTP)
	}
	if cfg.Suspicion.Threshold != 10 || cfg.Suspicion.Window != time.Hour {
		t.Fatalf("unexpected suspicion defaults %+v", cfg.Suspicion)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{
			name:      "ip points zero",
			mutate:    func(c *Config) { c.RateLimit.IPPoints = 0 },
			wantValid: false,
		},
		{
			name: "ip points zero with throttle off",
			mutate: func(c *Config) {
				c.RateLimit.EnableIPThrottle = false
				c.RateLimit.IPPoints = 0
			},
			wantValid: true,
		},
		{
			name:      "endpoint window negative",
			mutate:    func(c *Config) { c.RateLimit.EndpointWindow = -time.Second },
			wantValid: false,
		},
		{
			name:      "zero block allowed",
			mutate:    func(c *Config) { c.RateLimit.IPBlock = 0 },
			wantValid: true,
		},
		{
			name:      "endpoint path without slash",
			mutate:    func(c *Config) { c.RateLimit.Endpoints["api/otp"] = "otp" },
			wantValid: false,
		},
		{
			name:      "endpoint name with glob",
			mutate:    func(c *Config) { c.RateLimit.Endpoints["/api/x"] = "x*" },
			wantValid: false,
		},
		{
			name:      "suspicion threshold zero",
			mutate:    func(c *Config) { c.Suspicion.Threshold = 0 },
			wantValid: false,
		},
		{
			name:      "otp ttl zero",
			mutate:    func(c *Config) { c.OTP.TTL = 0 },
			wantValid: false,
		},
		{
			name:      "unknown geo provider",
			mutate:    func(c *Config) { c.Geo.Provider = "freegeoip" },
			wantValid: false,
		},
		{
			name:      "maxmind without database",
			mutate:    func(c *Config) { c.Geo.Provider = GeoProviderMaxMind },
			wantValid: false,
		},
		{
			name: "geo disabled ignores provider",
			mutate: func(c *Config) {
				c.Geo.Enabled = false
				c.Geo.Provider = "freegeoip"
			},
			wantValid: true,
		},
		{
			name:      "unknown store backend",
			mutate:    func(c *Config) { c.Store.Backend = "memcached" },
			wantValid: false,
		},
		{
			name: "redis backend with address",
			mutate: func(c *Config) {
				c.Store.Backend = store.BackendRedis
				c.Store.RedisAddrs = []string{"127.0.0.1:6379"}
			},
			wantValid: true,
		},
		{
			name: "audit enabled without buffer",
			mutate: func(c *Config) {
				c.Audit.Enabled = true
				c.Audit.BufferSize = 0
			},
			wantValid: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantValid && err != nil {
				t.Fatalf("expected valid config, got %v", err)
			}
			if !tc.wantValid && err == nil {
				t.Fatal("expected invalid config, got nil")
			}
		})
	}
}

func TestCloneConfigDetachesMaps(t *testing.T) {
	cfg := DefaultConfig()
	clone := cloneConfig(cfg)
	clone.RateLimit.Endpoints["/api/other"] = "other"

	if _, ok := cfg.RateLimit.Endpoints["/api/other"]; ok {
		t.Fatal("clone must not share the endpoints map")
	}
}
