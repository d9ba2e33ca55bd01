package goGuard

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"testing"

	"github.com/MrEthical07/goGuard/store"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func BenchmarkCheckAdmitted(b *testing.B) {
	engine, cleanup := newBenchmarkEngine(b)
	defer cleanup()

	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		// Rotate addresses so the budget never runs out.
		ip := "10.1." + strconv.Itoa((i/250)%250) + "." + strconv.Itoa(i%250)
		if _, err := engine.Check(ctx, Request{IP: ip, Path: "/members"}); err != nil {
			b.Fatalf("check failed: %v", err)
		}
	}
}

func BenchmarkCheckRejected(b *testing.B) {
	engine, cleanup := newBenchmarkEngine(b)
	defer cleanup()

	ctx := context.Background()
	for i := 0; i < 101; i++ {
		_, _ = engine.Check(ctx, Request{IP: "10.0.0.1", Path: "/members"})
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		d, err := engine.Check(ctx, Request{IP: "10.0.0.1", Path: "/members"})
		if err != nil || d.Allowed {
			b.Fatalf("expected rejection, got %+v %v", d, err)
		}
	}
}

func BenchmarkIssueAndVerifyOTP(b *testing.B) {
	engine, cleanup := newBenchmarkEngine(b)
	defer cleanup()

	ctx := context.Background()
	key, _ := EmailOTPKey("bench@example.com")
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		code, err := engine.IssueOTP(ctx, key, 0)
		if err != nil {
			b.Fatalf("issue failed: %v", err)
		}
		if ok, err := engine.VerifyOTP(ctx, key, code); err != nil || !ok {
			b.Fatalf("verify failed: %v %v", ok, err)
		}
	}
}

func newBenchmarkEngine(b *testing.B) (*Engine, func()) {
	b.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		b.Fatalf("miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := DefaultConfig()
	cfg.Geo.Enabled = false

	engine, err := New().
		WithConfig(cfg).
		WithStore(store.NewRedisStore(client, 0)).
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))).
		Build()
	if err != nil {
		mr.Close()
		b.Fatalf("build failed: %v", err)
	}

	return engine, func() {
		_ = engine.Close()
		mr.Close()
	}
}
