package main

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/store"
)

// serverConfig holds the runtime configuration loaded from environment variables.
type serverConfig struct {
	Addr              string
	LogLevel          slog.Level
	AllowedOrigins    []string
	TrustProxyHeaders bool
	AuditLog          bool

	AdminJWTSecret string
	AdminJWTIssuer string
	AdminTokenTTL  time.Duration

	// SMSProvider selects phone OTP delivery: "log" or "sns".
	SMSProvider string
	SNSRegion   string

	Guard goGuard.Config
}

func loadConfig() serverConfig {
	guard := goGuard.DefaultConfig()

	guard.Store.Backend = getEnv("GUARD_STORE_BACKEND", store.BackendMemory)
	if addrs := getEnv("REDIS_ADDRS", ""); addrs != "" {
		guard.Store.RedisAddrs = splitList(addrs)
	}
	guard.Store.RedisUsername = getEnv("REDIS_USERNAME", "")
	guard.Store.RedisPassword = getEnv("REDIS_PASSWORD", "")
	guard.Store.RedisDB = getEnvInt("REDIS_DB", 0)
	guard.Store.MaxRetries = getEnvInt("REDIS_MAX_RETRIES", 0)
	guard.Store.FallbackToMemory = getEnvBool("REDIS_FALLBACK_TO_MEMORY", true)

	guard.RateLimit.IPPoints = getEnvInt("RATE_LIMIT_IP_POINTS", guard.RateLimit.IPPoints)
	guard.RateLimit.EndpointPoints = getEnvInt("RATE_LIMIT_ENDPOINT_POINTS", guard.RateLimit.EndpointPoints)
	guard.Suspicion.Threshold = getEnvInt("SUSPICION_THRESHOLD", guard.Suspicion.Threshold)
	guard.OTP.TTL = getEnvDuration("OTP_TTL", guard.OTP.TTL)

	guard.Geo.Enabled = getEnvBool("GEO_ENABLED", guard.Geo.Enabled)
	guard.Geo.Provider = getEnv("GEO_PROVIDER", guard.Geo.Provider)
	guard.Geo.HTTPEndpoint = getEnv("GEO_HTTP_ENDPOINT", guard.Geo.HTTPEndpoint)
	guard.Geo.MaxMindCityDB = getEnv("MAXMIND_CITY_DB", "")
	guard.Geo.MaxMindAnonIPDB = getEnv("MAXMIND_ANONYMOUS_IP_DB", "")

	guard.Audit.Enabled = getEnvBool("AUDIT_ENABLED", false)

	return serverConfig{
		Addr:              ":" + getEnv("APP_PORT", "8080"),
		LogLevel:          parseLevel(getEnv("LOG_LEVEL", "info")),
		AllowedOrigins:    splitList(getEnv("ALLOWED_ORIGINS", "*")),
		TrustProxyHeaders: getEnvBool("TRUST_PROXY_HEADERS", false),
		AuditLog:          guard.Audit.Enabled,
		AdminJWTSecret:    getEnv("ADMIN_JWT_SECRET", ""),
		SMSProvider:       getEnv("SMS_PROVIDER", "log"),
		SNSRegion:         getEnv("SNS_REGION", "us-east-1"),
		AdminJWTIssuer:    getEnv("ADMIN_JWT_ISSUER", "goguard"),
		AdminTokenTTL:     getEnvDuration("ADMIN_TOKEN_TTL", 15*time.Minute),
		Guard:             guard,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseLevel(raw string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return slog.LevelInfo
	}
	return level
}
