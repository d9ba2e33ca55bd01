package flows

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/MrEthical07/goGuard/geo"
	"github.com/MrEthical07/goGuard/internal/rate"
)

// Rejection reasons reported by RunCheck.
const (
	ReasonRateLimited = "rate_limited"
	ReasonSuspicious  = "suspicious"
	ReasonGeoBlocked  = "geo_blocked"
)

// Stage names used in fail-open logs.
const (
	StageRateLimit = "rate_limit"
	StageSuspicion = "suspicion"
	StageGeo       = "geo"
)

// CheckRequest is one inbound request to admit or reject.
type CheckRequest struct {
	IP       string
	Endpoint string
	// Flagged requests add a hit to the suspicion counter; others only read it.
	Flagged bool
}

// CheckResult is the outcome of the guard chain.
type CheckResult struct {
	Allowed    bool
	Reason     string
	RetryAfter time.Duration
	Remaining  int
	Location   *geo.Location
}

type CheckMetrics struct {
	Admitted    int
	RateLimited int
	Suspicious  int
	GeoBlocked  int
	FailOpen    int
}

type CheckEvents struct {
	RateLimited string
	Suspicious  string
	GeoBlocked  string
}

type CheckDeps struct {
	ConsumeRate     func(context.Context, string, string) (rate.Decision, error)
	RecordSuspicion func(context.Context, string) (bool, int64, error)
	PeekSuspicion   func(context.Context, string) (bool, int64, error)
	EvaluateGeo     func(context.Context, string) geo.Verdict

	Logger         *slog.Logger
	Now            func() time.Time
	ObserveLatency func(time.Duration)
	MetricInc      func(int)
	EmitAudit      AuditFunc

	Metrics CheckMetrics
	Events  CheckEvents
}

// RunCheck runs the guard chain: rate limit, then suspicion, then geolocation.
// The first rejecting stage short-circuits the rest. Backend failures in any
// stage are logged and the stage is skipped. A cancelled context aborts the
// chain with ctx.Err(); counters already incremented stay incremented.
func RunCheck(ctx context.Context, req CheckRequest, deps CheckDeps) (CheckResult, error) {
	normalizeCheckDeps(&deps)

	start := deps.Now()
	defer func() { deps.ObserveLatency(deps.Now().Sub(start)) }()

	if err := ctx.Err(); err != nil {
		return CheckResult{}, err
	}

	result := CheckResult{Allowed: true}

	if deps.ConsumeRate != nil {
		decision, err := deps.ConsumeRate(ctx, req.IP, req.Endpoint)
		switch {
		case err == nil:
			result.Remaining = decision.Remaining
		case errors.Is(err, rate.ErrRateLimited):
			deps.MetricInc(deps.Metrics.RateLimited)
			deps.EmitAudit(ctx, deps.Events.RateLimited, req.IP, "", false, err, func() map[string]string {
				return map[string]string{
					"key":         decision.Key,
					"endpoint":    req.Endpoint,
					"retry_after": strconv.Itoa(int(decision.RetryAfter.Seconds())),
				}
			})
			return CheckResult{Reason: ReasonRateLimited, RetryAfter: decision.RetryAfter}, nil
		default:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return CheckResult{}, ctxErr
			}
			failOpen(deps, req.IP, StageRateLimit, err)
		}
	}

	if err := ctx.Err(); err != nil {
		return CheckResult{}, err
	}

	suspicion := deps.PeekSuspicion
	if req.Flagged {
		suspicion = deps.RecordSuspicion
	}
	if suspicion != nil {
		allowed, count, err := suspicion(ctx, req.IP)
		switch {
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return CheckResult{}, ctxErr
			}
			failOpen(deps, req.IP, StageSuspicion, err)
		case !allowed:
			deps.Logger.Warn("suspicious activity threshold exceeded", "ip", req.IP, "count", count)
			deps.MetricInc(deps.Metrics.Suspicious)
			deps.EmitAudit(ctx, deps.Events.Suspicious, req.IP, "", false, nil, func() map[string]string {
				return map[string]string{
					"count": strconv.FormatInt(count, 10),
				}
			})
			return CheckResult{Reason: ReasonSuspicious}, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return CheckResult{}, err
	}

	if deps.EvaluateGeo != nil {
		verdict := deps.EvaluateGeo(ctx, req.IP)
		if err := ctx.Err(); err != nil {
			return CheckResult{}, err
		}
		result.Location = verdict.Location
		if verdict.Blocked {
			deps.MetricInc(deps.Metrics.GeoBlocked)
			deps.EmitAudit(ctx, deps.Events.GeoBlocked, req.IP, "", false, nil, func() map[string]string {
				meta := map[string]string{"cause": string(verdict.Cause)}
				if verdict.Location != nil {
					meta["country"] = verdict.Location.Country
				}
				return meta
			})
			return CheckResult{Reason: ReasonGeoBlocked, Location: verdict.Location}, nil
		}
	}

	deps.MetricInc(deps.Metrics.Admitted)
	return result, nil
}

func failOpen(deps CheckDeps, ip, stage string, err error) {
	deps.MetricInc(deps.Metrics.FailOpen)
	deps.Logger.Warn("guard stage failed open", "ip", ip, "stage", stage, "error", err)
}

func normalizeCheckDeps(deps *CheckDeps) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.ObserveLatency == nil {
		deps.ObserveLatency = func(time.Duration) {}
	}
	if deps.MetricInc == nil {
		deps.MetricInc = noopMetric
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = noopAudit
	}
}
