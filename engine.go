package goGuard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/MrEthical07/goGuard/geo"
	"github.com/MrEthical07/goGuard/internal"
	"github.com/MrEthical07/goGuard/internal/flows"
	"github.com/MrEthical07/goGuard/internal/limiters"
	"github.com/MrEthical07/goGuard/internal/rate"
	"github.com/MrEthical07/goGuard/internal/stores"
	"github.com/MrEthical07/goGuard/store"
)

// Engine runs the guard chain and the OTP manager over one TTL store.
//
// Engine methods are safe for concurrent use once Build returns.
type Engine struct {
	config      Config
	store       store.Store
	logger      *slog.Logger
	rateLimiter *rate.Limiter
	suspicion   *limiters.SuspicionMonitor
	otpStore    *stores.OTPStore
	geoCache    *geo.Cache
	blocklist   *geo.Blocklist
	geoCloser   io.Closer
	audit       *auditDispatcher
	metrics     *Metrics
	flow        flows.Service
}

// Close flushes audit events and releases the store and geo databases.
func (e *Engine) Close() error {
	if e == nil {
		return nil
	}
	if e.audit != nil {
		e.audit.Close()
	}
	return e.closeOwned()
}

func (e *Engine) closeOwned() error {
	var errs []error
	if e.geoCloser != nil {
		errs = append(errs, e.geoCloser.Close())
	}
	if e.store != nil {
		errs = append(errs, e.store.Close())
	}
	return errors.Join(errs...)
}

// Store returns the underlying TTL store.
func (e *Engine) Store() store.Store {
	if e == nil {
		return nil
	}
	return e.store
}

// AuditDropped returns how many audit events were dropped on a full queue.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a copy of every counter.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:      map[MetricID]uint64{},
			Histograms:    map[MetricID][]uint64{},
			HistogramSums: map[MetricID]time.Duration{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) observeGeo(o geo.Outcome) {
	switch o {
	case geo.OutcomeHit:
		e.metricInc(MetricGeoCacheHit)
	case geo.OutcomeMiss:
		e.metricInc(MetricGeoCacheMiss)
	case geo.OutcomeLookupFailed:
		e.metricInc(MetricGeoLookupFailure)
	}
}

func (e *Engine) ready() bool {
	return e != nil && e.store != nil && e.flow.Initialized()
}

func (e *Engine) buildFlowService() flows.Service {
	check := flows.CheckDeps{
		Logger:         e.logger,
		Now:            time.Now,
		ObserveLatency: func(d time.Duration) { e.metrics.Observe(MetricCheckLatency, d) },
		MetricInc:      func(id int) { e.metricInc(MetricID(id)) },
		EmitAudit:      e.emitAudit,
		Metrics: flows.CheckMetrics{
			Admitted:    int(MetricCheckAdmitted),
			RateLimited: int(MetricCheckRateLimited),
			Suspicious:  int(MetricCheckSuspicious),
			GeoBlocked:  int(MetricCheckGeoBlocked),
			FailOpen:    int(MetricCheckFailOpen),
		},
		Events: flows.CheckEvents{
			RateLimited: AuditRateLimited,
			Suspicious:  AuditSuspicious,
			GeoBlocked:  AuditGeoBlocked,
		},
	}
	if e.config.RateLimit.EnableIPThrottle || e.config.RateLimit.EnableEndpointThrottle {
		check.ConsumeRate = e.rateLimiter.CheckRequest
	}
	if e.config.Suspicion.Enabled {
		check.RecordSuspicion = e.suspicion.RecordAndCheck
		check.PeekSuspicion = e.suspicion.Peek
	}
	if e.config.Geo.Enabled {
		check.EvaluateGeo = e.blocklist.Evaluate
	}

	otp := flows.OTPDeps{
		DefaultTTL: e.config.OTP.TTL,
		Generate:   internal.NewOTP,
		Save:       e.otpStore.Save,
		Matches:    e.otpStore.Matches,
		Delete:     e.otpStore.Delete,
		MapStoreError: func(err error) error {
			if errors.Is(err, stores.ErrOTPInvalidSubject) {
				return ErrInvalidSubject
			}
			return storeUnavailable(err)
		},
		MetricInc: func(id int) { e.metricInc(MetricID(id)) },
		EmitAudit: e.emitAudit,
		Metrics: flows.OTPMetrics{
			Issued:      int(MetricOTPIssued),
			Verified:    int(MetricOTPVerified),
			Failed:      int(MetricOTPFailed),
			StoreErrors: int(MetricOTPStoreError),
		},
		Events: flows.OTPEvents{
			Issued:   AuditOTPIssued,
			Verified: AuditOTPVerified,
			Failed:   AuditOTPFailed,
			Cleared:  AuditOTPCleared,
		},
		Errors: flows.OTPErrors{
			EngineNotReady:   ErrEngineNotReady,
			InvalidOTP:       ErrInvalidOTP,
			InvalidSubject:   ErrInvalidSubject,
			StoreUnavailable: ErrStoreUnavailable,
		},
	}

	return flows.New(flows.Deps{Check: check, OTP: otp})
}

// Check runs the guard chain for req: rate limiting, then suspicious-activity
// counting, then the geolocation blocklist. The first rejecting stage decides.
//
// Requests to a path listed in Config.RateLimit.Endpoints add a hit to the
// suspicious-activity counter; other paths are rejected only once the counter
// is already past the threshold.
//
// A store failure in any stage is logged and that stage is skipped. A cancelled
// ctx returns ctx.Err(); counters already incremented stay incremented.
func (e *Engine) Check(ctx context.Context, req Request) (Decision, error) {
	if !e.ready() {
		return Decision{}, ErrEngineNotReady
	}

	endpoint := e.config.RateLimit.Endpoints[req.Path]
	res, err := e.flow.Check(ctx, flows.CheckRequest{
		IP:       req.IP,
		Endpoint: endpoint,
		Flagged:  endpoint != "",
	})
	if err != nil {
		return Decision{}, err
	}

	return Decision{
		Allowed:    res.Allowed,
		Reason:     res.Reason,
		RetryAfter: res.RetryAfter,
		Remaining:  res.Remaining,
		Endpoint:   endpoint,
		Location:   res.Location,
	}, nil
}

// ResetRateLimit clears every rate counter and cool-down for ip, including all
// configured endpoint budgets, and the suspicious-activity counter.
func (e *Engine) ResetRateLimit(ctx context.Context, ip string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if ip == "" {
		return ErrInvalidIP
	}

	seen := make(map[string]struct{}, len(e.config.RateLimit.Endpoints))
	endpoints := make([]string, 0, len(e.config.RateLimit.Endpoints))
	for _, name := range e.config.RateLimit.Endpoints {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		endpoints = append(endpoints, name)
	}

	if err := e.rateLimiter.Reset(ctx, ip, endpoints...); err != nil {
		return storeUnavailable(err)
	}
	if err := e.suspicion.Reset(ctx, ip); err != nil {
		return storeUnavailable(err)
	}

	e.emitAudit(ctx, AuditRateLimitReset, ip, "", true, nil, nil)
	return nil
}

// RateLimitAttempts returns the points ip consumed in the current IP window.
func (e *Engine) RateLimitAttempts(ctx context.Context, ip string) (int, error) {
	if !e.ready() {
		return 0, ErrEngineNotReady
	}
	n, err := e.rateLimiter.Attempts(ctx, rate.IPKey(ip))
	if err != nil {
		return 0, storeUnavailable(err)
	}
	return n, nil
}

// FlagSuspicious records one suspicious hit for ip and reports whether ip is
// still allowed. Store failures allow and are logged.
func (e *Engine) FlagSuspicious(ctx context.Context, ip string) bool {
	if !e.ready() {
		return true
	}
	allowed, count, err := e.suspicion.RecordAndCheck(ctx, ip)
	if err != nil {
		e.metricInc(MetricCheckFailOpen)
		e.logger.Warn("guard stage failed open", "ip", ip, "stage", flows.StageSuspicion, "error", err)
		return true
	}
	if !allowed {
		e.logger.Warn("suspicious activity threshold exceeded", "ip", ip, "count", count)
	}
	return allowed
}

// SuspicionCount returns the suspicious-activity counter for ip.
func (e *Engine) SuspicionCount(ctx context.Context, ip string) (int, error) {
	if !e.ready() {
		return 0, ErrEngineNotReady
	}
	n, err := e.suspicion.Count(ctx, ip)
	if err != nil {
		return 0, storeUnavailable(err)
	}
	return n, nil
}
