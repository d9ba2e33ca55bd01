package middleware

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/geo"
	"github.com/MrEthical07/goGuard/jwt"
	"github.com/MrEthical07/goGuard/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *goGuard.Engine {
	t.Helper()

	lookup := geo.LookupFunc(func(_ context.Context, ip string) (*geo.Location, error) {
		if ip == "41.58.10.20" {
			return &geo.Location{Country: "Nigeria"}, nil
		}
		return &geo.Location{Country: "Ghana"}, nil
	})

	cfg := goGuard.DefaultConfig()
	cfg.Geo.Provider = goGuard.GeoProviderNone

	engine, err := goGuard.New().
		WithConfig(cfg).
		WithStore(store.NewMemoryStore(store.WithCleanupInterval(0))).
		WithGeoLookup(lookup).
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))).
		Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close() })
	return engine
}

func okHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d, ok := goGuard.DecisionFromContext(r.Context())
		assert.True(t, ok)
		assert.True(t, d.Allowed)
		assert.NotEmpty(t, goGuard.ClientIPFromContext(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		trust   bool
		want    string
	}{
		{name: "forwarded for first hop", headers: map[string]string{"X-Forwarded-For": "1.2.3.4, 5.6.7.8"}, trust: true, want: "1.2.3.4"},
		{name: "real ip fallback", headers: map[string]string{"X-Real-Ip": "9.10.11.12"}, trust: true, want: "9.10.11.12"},
		{name: "forwarded for wins", headers: map[string]string{"X-Forwarded-For": "1.1.1.1", "X-Real-Ip": "2.2.2.2"}, trust: true, want: "1.1.1.1"},
		{name: "remote addr", remote: "192.168.1.1:54321", trust: true, want: "192.168.1.1"},
		{name: "headers ignored when untrusted", headers: map[string]string{"X-Forwarded-For": "1.1.1.1"}, remote: "10.0.0.9:80", want: "10.0.0.9"},
		{name: "remote addr without port", remote: "10.0.0.7", want: "10.0.0.7"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			if tc.remote != "" {
				req.RemoteAddr = tc.remote
			}
			assert.Equal(t, tc.want, clientIP(req, tc.trust))
		})
	}
}

func TestGuardRateLimited(t *testing.T) {
	handler := Guard(newTestEngine(t))(okHandler(t))

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/otp/email", nil)
		req.RemoteAddr = "203.0.113.7:41000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code, "request %d", i+1)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/otp/email", nil)
	req.RemoteAddr = "203.0.113.7:41000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "900", rec.Header().Get("Retry-After"))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body rejection
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, goGuard.ReasonRateLimited, body.Reason)
	assert.Equal(t, 900, body.RetryAfter)
}

func TestGuardGeoBlocked(t *testing.T) {
	engine := newTestEngine(t)
	_, err := engine.AddBlockedCountry(context.Background(), "Nigeria")
	require.NoError(t, err)

	handler := Guard(engine, TrustProxyHeaders(true))(okHandler(t))

	req := httptest.NewRequest(http.MethodGet, "/members", nil)
	req.Header.Set("X-Real-IP", "41.58.10.20")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/members", nil)
	req.Header.Set("X-Real-IP", "41.66.200.1")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestGuardIgnoresForwardedHeadersByDefault(t *testing.T) {
	handler := Guard(newTestEngine(t))(okHandler(t))

	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/otp/email", nil)
		req.RemoteAddr = "198.51.100.23:52000"
		req.Header.Set("X-Forwarded-For", "203.0.113."+strconv.Itoa(10+i))
		req.Header.Set("X-Real-IP", "203.0.113."+strconv.Itoa(10+i))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if i < 5 {
			require.Equal(t, http.StatusNoContent, rec.Code, "request %d", i+1)
			continue
		}
		assert.Equal(t, http.StatusTooManyRequests, rec.Code, "rotating forwarded headers must not reset the budget")
	}
}

func TestGuardNilEngine(t *testing.T) {
	rec := httptest.NewRecorder()
	Guard(nil)(okHandler(t)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	manager, err := jwt.NewManager(jwt.Config{
		TokenTTL:      time.Minute,
		SigningMethod: jwt.MethodHS256,
		PrivateKey:    []byte("0123456789abcdef0123456789abcdef"),
	})
	require.NoError(t, err)

	admin, err := manager.CreateAdmin("ops@example.com", jwt.ScopeAdmin)
	require.NoError(t, err)
	viewer, err := manager.CreateAdmin("viewer@example.com", "guard:read")
	require.NoError(t, err)

	handler := RequireAdmin(manager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := AdminClaimsFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, "ops@example.com", claims.Subject)
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing header", want: http.StatusUnauthorized},
		{name: "not bearer", header: "Basic abc", want: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer not.a.jwt", want: http.StatusUnauthorized},
		{name: "missing scope", header: "Bearer " + viewer, want: http.StatusForbidden},
		{name: "admin", header: "Bearer " + admin, want: http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/blocked-countries", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}
