package test

import (
	"context"
	"errors"
	"fmt"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/store"
)

// ExampleNew demonstrates engine construction against a Redis deployment.
func ExampleNew() {
	cfg := goGuard.DefaultConfig()
	cfg.Store.Backend = store.BackendRedis
	cfg.Store.RedisAddrs = []string{"127.0.0.1:6379"}
	cfg.Geo.Provider = goGuard.GeoProviderMaxMind
	cfg.Geo.MaxMindCityDB = "/var/lib/GeoIP/GeoLite2-City.mmdb"

	engine, err := goGuard.New().WithConfig(cfg).Build()
	if err != nil {
		return
	}
	defer engine.Close()
}

// ExampleEngine_Check shows how a caller turns a decision into a response.
func ExampleEngine_Check() {
	var engine *goGuard.Engine
	d, err := engine.Check(context.Background(), goGuard.Request{IP: "203.0.113.7", Path: "/api/otp/email"})
	if err != nil {
		_ = err
		return
	}
	if !d.Allowed {
		_ = d.Reason
		_ = d.RetryAfter
	}
}

// ExampleEngine_VerifyOTP separates a wrong code from an unavailable store.
func ExampleEngine_VerifyOTP() {
	var engine *goGuard.Engine
	key, _ := goGuard.EmailOTPKey("member@example.com")
	ok, err := engine.VerifyOTP(context.Background(), key, "123456")
	switch {
	case errors.Is(err, goGuard.ErrStoreUnavailable):
		_ = err
	case err != nil:
		_ = err
	case !ok:
		_ = ok
	}
}

func ExampleEmailOTPKey() {
	key, _ := goGuard.EmailOTPKey(" Member@Example.com ")
	fmt.Println(key)
	// Output: email_otp:member@example.com
}
