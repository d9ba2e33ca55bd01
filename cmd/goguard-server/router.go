package main

import (
	"log/slog"
	"net/http"
	"time"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/jwt"
	"github.com/MrEthical07/goGuard/metrics/export/prometheus"
	"github.com/MrEthical07/goGuard/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type routerDeps struct {
	Engine            *goGuard.Engine
	Sender            otpSender
	Admin             *jwt.Manager
	Logger            *slog.Logger
	AllowedOrigins    []string
	TrustProxyHeaders bool
}

func newRouter(deps routerDeps) http.Handler {
	h := &handler{engine: deps.Engine, sender: deps.Sender, logger: deps.Logger}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(requestLogger(deps.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: deps.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Retry-After"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.health)
	r.Handle("/metrics", prometheus.NewPrometheusExporter(deps.Engine).Handler())

	guard := middleware.Guard(deps.Engine,
		middleware.TrustProxyHeaders(deps.TrustProxyHeaders),
		middleware.WithLogger(deps.Logger),
	)

	r.Route("/api", func(r chi.Router) {
		r.Use(guard)
		r.Post("/otp/email", h.emailOTP)
		r.Post("/otp/phone", h.phoneOTP)
		r.Post("/otp/verify", h.verifyOTP)
		r.Post("/messages/whatsapp", h.whatsApp)
	})

	if deps.Admin != nil {
		r.Route("/admin", func(r chi.Router) {
			r.Use(guard)
			r.Use(middleware.RequireAdmin(deps.Admin))
			r.Get("/blocked-countries", h.listBlockedCountries)
			r.Post("/blocked-countries", h.addBlockedCountry)
			r.Delete("/blocked-countries/{country}", h.removeBlockedCountry)
			r.Delete("/rate-limits/{ip}", h.resetRateLimit)
			r.Get("/report", h.securityReport)
		})
	}

	return r
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", chimiddleware.GetReqID(r.Context()),
			)
		})
	}
}
