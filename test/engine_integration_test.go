//go:build integration
// +build integration

package test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/store"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// redisMode describes which Redis backend the suite is running against.
type redisMode struct {
	name  string
	setup func(t *testing.T) (addr string, cleanup func())
}

// redisModes returns miniredis always, plus a real server when REDIS_ADDR is set.
func redisModes(t *testing.T) []redisMode {
	t.Helper()
	modes := []redisMode{
		{
			name: "miniredis",
			setup: func(t *testing.T) (string, func()) {
				t.Helper()
				mr, err := miniredis.Run()
				if err != nil {
					t.Fatalf("miniredis: %v", err)
				}
				return mr.Addr(), mr.Close
			},
		},
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		modes = append(modes, redisMode{
			name: "standalone:" + addr,
			setup: func(t *testing.T) (string, func()) {
				t.Helper()
				rdb := redis.NewClient(&redis.Options{Addr: addr})
				defer rdb.Close()
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				if err := rdb.Ping(ctx).Err(); err != nil {
					t.Skipf("cannot connect to Redis at %s: %v", addr, err)
				}
				rdb.FlushDB(context.Background())
				return addr, func() {
					c := redis.NewClient(&redis.Options{Addr: addr})
					c.FlushDB(context.Background())
					_ = c.Close()
				}
			},
		})
	}
	return modes
}

func newEngine(t *testing.T, addr string) *goGuard.Engine {
	t.Helper()

	cfg := goGuard.DefaultConfig()
	cfg.Geo.Enabled = false

	engine, err := goGuard.New().
		WithConfig(cfg).
		WithStore(store.NewRedisStore(redis.NewClient(&redis.Options{Addr: addr}), time.Second)).
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(func() { _ = engine.Close() })
	return engine
}

// Two engines over one Redis act as one deployment: budgets, codes and the
// blocklist are shared.
func TestEnginesShareState(t *testing.T) {
	for _, mode := range redisModes(t) {
		t.Run(mode.name, func(t *testing.T) {
			addr, cleanup := mode.setup(t)
			defer cleanup()

			a := newEngine(t, addr)
			b := newEngine(t, addr)
			ctx := context.Background()

			for i := 0; i < 5; i++ {
				engine := a
				if i%2 == 1 {
					engine = b
				}
				d, err := engine.Check(ctx, goGuard.Request{IP: "198.51.100.9", Path: "/api/otp/email"})
				if err != nil || !d.Allowed {
					t.Fatalf("request %d: %+v %v", i+1, d, err)
				}
			}
			d, _ := b.Check(ctx, goGuard.Request{IP: "198.51.100.9", Path: "/api/otp/email"})
			if d.Allowed || d.Reason != goGuard.ReasonRateLimited {
				t.Fatalf("shared endpoint budget must reject the 6th request, got %+v", d)
			}

			key, _ := goGuard.PhoneOTPKey("+2348012345678")
			code, err := a.IssueOTP(ctx, key, 0)
			if err != nil {
				t.Fatalf("issue: %v", err)
			}
			if ok, err := b.VerifyOTP(ctx, key, code); err != nil || !ok {
				t.Fatalf("code issued on one engine must verify on another: %v %v", ok, err)
			}

			if _, err := a.AddBlockedCountry(ctx, "Nigeria"); err != nil {
				t.Fatalf("add: %v", err)
			}
			list, err := b.BlockedCountries(ctx)
			if err != nil || len(list) != 1 || list[0] != "Nigeria" {
				t.Fatalf("blocklist must be shared, got %v %v", list, err)
			}
		})
	}
}
