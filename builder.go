package goGuard

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/MrEthical07/goGuard/geo"
	"github.com/MrEthical07/goGuard/internal/limiters"
	"github.com/MrEthical07/goGuard/internal/rate"
	"github.com/MrEthical07/goGuard/internal/stores"
	"github.com/MrEthical07/goGuard/store"
)

// Builder assembles an Engine. A Builder can be built only once.
type Builder struct {
	config    Config
	store     store.Store
	geoLookup geo.Lookup
	logger    *slog.Logger
	auditSink AuditSink

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStore injects a ready store. The Engine takes ownership and closes it.
// Without one, Build opens Config.Store.
func (b *Builder) WithStore(s store.Store) *Builder {
	b.store = s
	return b
}

// WithGeoLookup overrides Config.Geo.Provider.
func (b *Builder) WithGeoLookup(lookup geo.Lookup) *Builder {
	b.geoLookup = lookup
	return b
}

func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, opens the store when none was injected,
// and wires every component.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	// -------- STORE --------
	s := b.store
	if s == nil {
		opened, err := store.Open(context.Background(), cfg.Store, logger)
		if err != nil {
			return nil, err
		}
		s = opened
	}

	engine := &Engine{
		config: cloneConfig(cfg),
		store:  s,
		logger: logger,
	}

	engine.metrics = NewMetrics(cfg.Metrics)
	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)

	// -------- GUARDS --------
	engine.rateLimiter = rate.New(s, rate.Config{
		EnableIPThrottle:       cfg.RateLimit.EnableIPThrottle,
		EnableEndpointThrottle: cfg.RateLimit.EnableEndpointThrottle,
		IP: rate.Policy{
			Points: cfg.RateLimit.IPPoints,
			Window: cfg.RateLimit.IPWindow,
			Block:  cfg.RateLimit.IPBlock,
		},
		Endpoint: rate.Policy{
			Points: cfg.RateLimit.EndpointPoints,
			Window: cfg.RateLimit.EndpointWindow,
			Block:  cfg.RateLimit.EndpointBlock,
		},
	})
	engine.suspicion = limiters.NewSuspicionMonitor(s, limiters.SuspicionConfig{
		Enabled:   cfg.Suspicion.Enabled,
		Threshold: cfg.Suspicion.Threshold,
		Window:    cfg.Suspicion.Window,
	})
	engine.otpStore = stores.NewOTPStore(s)

	// -------- GEO --------
	lookup := b.geoLookup
	if lookup == nil && cfg.Geo.Enabled {
		built, closer, err := newGeoLookup(cfg.Geo)
		if err != nil {
			_ = engine.Close()
			return nil, err
		}
		lookup = built
		engine.geoCloser = closer
	}
	engine.geoCache = geo.NewCache(s, lookup,
		geo.WithCacheTTL(cfg.Geo.CacheTTL),
		geo.WithLookupTimeout(cfg.Geo.LookupTimeout),
		geo.WithLogger(logger),
		geo.WithObserver(engine.observeGeo),
	)
	engine.blocklist = geo.NewBlocklist(s, engine.geoCache, logger)

	engine.flow = engine.buildFlowService()

	b.built = true

	return engine, nil
}

func newGeoLookup(cfg GeoConfig) (geo.Lookup, io.Closer, error) {
	switch cfg.Provider {
	case GeoProviderIPAPI:
		return geo.NewHTTPLookup(geo.HTTPLookupConfig{
			Endpoint:          cfg.HTTPEndpoint,
			Timeout:           cfg.LookupTimeout,
			RequestsPerMinute: cfg.RequestsPerMinute,
		}), nil, nil
	case GeoProviderMaxMind:
		mm, err := geo.OpenMaxMind(cfg.MaxMindCityDB, cfg.MaxMindAnonIPDB)
		if err != nil {
			return nil, nil, err
		}
		return mm, mm, nil
	case GeoProviderNone:
		return nil, nil, nil
	default:
		return nil, nil, errors.New("unsupported Geo provider")
	}
}
