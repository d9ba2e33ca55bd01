package middleware

import (
	"encoding/json"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"

	goGuard "github.com/MrEthical07/goGuard"
)

// Option tunes Guard.
type Option func(*guardOptions)

type guardOptions struct {
	trustProxyHeaders bool
	logger            *slog.Logger
}

// TrustProxyHeaders controls whether X-Forwarded-For and X-Real-IP are read.
// By default only RemoteAddr is used; enable it only behind a reverse proxy
// that overwrites those headers.
func TrustProxyHeaders(trust bool) Option {
	return func(o *guardOptions) { o.trustProxyHeaders = trust }
}

// WithLogger sets the logger used for engine errors.
func WithLogger(logger *slog.Logger) Option {
	return func(o *guardOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Guard returns middleware that admits or rejects each request through
// engine.Check. Rate-limited requests get 429 with Retry-After; suspicious and
// geo-blocked requests get 403. Engine errors other than a cancelled request
// are treated as admission, matching the engine's fail-open guard chain.
func Guard(engine *goGuard.Engine, opts ...Option) func(http.Handler) http.Handler {
	o := guardOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				writeJSONError(w, http.StatusServiceUnavailable, "guard unavailable")
				return
			}

			ip := clientIP(r, o.trustProxyHeaders)
			ctx := goGuard.WithClientIP(r.Context(), ip)

			decision, err := engine.Check(ctx, goGuard.Request{IP: ip, Path: r.URL.Path})
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				o.logger.Warn("guard check failed", "ip", ip, "path", r.URL.Path, "error", err)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			if !decision.Allowed {
				writeRejection(w, decision)
				return
			}

			ctx = goGuard.WithDecision(ctx, decision)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type rejection struct {
	Error      string `json:"error"`
	Reason     string `json:"reason"`
	RetryAfter int    `json:"retryAfter,omitempty"`
}

func writeRejection(w http.ResponseWriter, d goGuard.Decision) {
	switch d.Reason {
	case goGuard.ReasonRateLimited:
		secs := int(math.Ceil(d.RetryAfter.Seconds()))
		if secs < 1 {
			secs = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(secs))
		writeJSON(w, http.StatusTooManyRequests, rejection{
			Error:      "too many requests",
			Reason:     d.Reason,
			RetryAfter: secs,
		})
	case goGuard.ReasonGeoBlocked:
		writeJSON(w, http.StatusForbidden, rejection{Error: "access denied from your location", Reason: d.Reason})
	default:
		writeJSON(w, http.StatusForbidden, rejection{Error: "suspicious activity detected", Reason: d.Reason})
	}
}

// clientIP returns the first X-Forwarded-For entry, then X-Real-IP, then the
// host part of RemoteAddr.
func clientIP(r *http.Request, trustHeaders bool) string {
	if trustHeaders {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
		if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
