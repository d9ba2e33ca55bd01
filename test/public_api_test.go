package test

import (
	"context"
	"net/http"
	"testing"
	"time"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/geo"
	"github.com/MrEthical07/goGuard/jwt"
	"github.com/MrEthical07/goGuard/middleware"
	"github.com/MrEthical07/goGuard/store"
)

// This test intentionally guards public API compile-compat for consumers.
func TestPublicAPISurfaceCompile(t *testing.T) {
	_ = goGuard.New

	var _ *goGuard.Engine
	var _ goGuard.Config
	var _ goGuard.Decision
	var _ goGuard.Request
	var _ goGuard.OTPCheck
	var _ goGuard.AuditSink
	var _ goGuard.Location = geo.Location{}
	var _ goGuard.GeoLookup = geo.LookupFunc(nil)
	var _ store.Store = (*store.MemoryStore)(nil)
	var _ store.Store = (*store.RedisStore)(nil)

	var _ error = goGuard.ErrStoreUnavailable
	var _ error = goGuard.ErrRateLimited
	var _ error = goGuard.ErrInvalidOTP
	var _ error = goGuard.ErrLookupFailed
	var _ error = goGuard.ErrEngineNotReady
	var _ error = goGuard.ErrInvalidSubject
	var _ error = goGuard.ErrInvalidCountry

	var _ func(*goGuard.Engine, ...middleware.Option) func(http.Handler) http.Handler = middleware.Guard
	var _ func(*jwt.Manager) func(http.Handler) http.Handler = middleware.RequireAdmin

	var _ func(*goGuard.Engine, context.Context, goGuard.Request) (goGuard.Decision, error) = (*goGuard.Engine).Check
	var _ func(*goGuard.Engine, context.Context, string, time.Duration) (string, error) = (*goGuard.Engine).IssueOTP
	var _ func(*goGuard.Engine, context.Context, string, string) (bool, error) = (*goGuard.Engine).VerifyOTP
	var _ func(*goGuard.Engine, context.Context, string) error = (*goGuard.Engine).ClearOTP
	var _ func(*goGuard.Engine, context.Context, string) bool = (*goGuard.Engine).IsGeoBlocked
	var _ func(*goGuard.Engine, context.Context, string) (*goGuard.Location, bool) = (*goGuard.Engine).ResolveLocation
	var _ func(*goGuard.Engine, context.Context, string) (bool, error) = (*goGuard.Engine).AddBlockedCountry
	var _ func(*goGuard.Engine, context.Context, string) (bool, error) = (*goGuard.Engine).RemoveBlockedCountry
	var _ func(*goGuard.Engine, context.Context) ([]string, error) = (*goGuard.Engine).BlockedCountries
}
