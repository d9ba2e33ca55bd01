// Command goguard-server exposes the OTP, messaging and admin endpoints of a
// membership platform behind the goGuard abuse-prevention chain.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/MrEthical07/goGuard/jwt"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, reading from environment")
	}

	cfg := loadConfig()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg serverConfig, logger *slog.Logger) error {
	builder := goGuard.New().
		WithConfig(cfg.Guard).
		WithLogger(logger)
	if cfg.AuditLog {
		builder = builder.WithAuditSink(goGuard.NewJSONWriterSink(os.Stdout))
	}

	engine, err := builder.Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	report := engine.SecurityReport()
	logger.Info("guard ready",
		"store", report.StoreBackend,
		"geo_provider", report.GeoProvider,
		"geo_blocking", report.GeoBlockingActive,
		"ip_points", report.IPBudget.Points,
		"endpoint_points", report.EndpointBudget.Points,
	)

	var admin *jwt.Manager
	if cfg.AdminJWTSecret != "" {
		admin, err = jwt.NewManager(jwt.Config{
			TokenTTL:      cfg.AdminTokenTTL,
			SigningMethod: jwt.MethodHS256,
			PrivateKey:    []byte(cfg.AdminJWTSecret),
			Issuer:        cfg.AdminJWTIssuer,
		})
		if err != nil {
			return err
		}
	} else {
		logger.Warn("ADMIN_JWT_SECRET not set, admin routes disabled")
	}

	sender, err := newSender(context.Background(), cfg, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: newRouter(routerDeps{
			Engine:            engine,
			Sender:            sender,
			Admin:             admin,
			Logger:            logger,
			AllowedOrigins:    cfg.AllowedOrigins,
			TrustProxyHeaders: cfg.TrustProxyHeaders,
		}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
