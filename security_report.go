package goGuard

import (
	"sort"
	"time"

	"github.com/MrEthical07/goGuard/store"
)

// SecurityReport summarises the effective protection settings of an Engine,
// for startup logs and health endpoints.
type SecurityReport struct {
	StoreBackend       string
	DistributedStore   bool
	IPThrottleActive   bool
	IPBudget           BudgetReport
	EndpointThrottle   bool
	EndpointBudget     BudgetReport
	ThrottledEndpoints []string
	SuspicionActive    bool
	SuspicionThreshold int
	SuspicionWindow    time.Duration
	GeoBlockingActive  bool
	GeoProvider        string
	OTPTTL             time.Duration
	AuditActive        bool
	MetricsActive      bool
}

type BudgetReport struct {
	Points int
	Window time.Duration
	Block  time.Duration
}

func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	backend := store.BackendMemory
	if _, ok := e.store.(*store.RedisStore); ok {
		backend = store.BackendRedis
	}

	endpoints := make([]string, 0, len(e.config.RateLimit.Endpoints))
	for path := range e.config.RateLimit.Endpoints {
		endpoints = append(endpoints, path)
	}
	sort.Strings(endpoints)

	return SecurityReport{
		StoreBackend:     backend,
		DistributedStore: backend == store.BackendRedis,
		IPThrottleActive: e.config.RateLimit.EnableIPThrottle,
		IPBudget: BudgetReport{
			Points: e.config.RateLimit.IPPoints,
			Window: e.config.RateLimit.IPWindow,
			Block:  e.config.RateLimit.IPBlock,
		},
		EndpointThrottle: e.config.RateLimit.EnableEndpointThrottle,
		EndpointBudget: BudgetReport{
			Points: e.config.RateLimit.EndpointPoints,
			Window: e.config.RateLimit.EndpointWindow,
			Block:  e.config.RateLimit.EndpointBlock,
		},
		ThrottledEndpoints: endpoints,
		SuspicionActive:    e.config.Suspicion.Enabled,
		SuspicionThreshold: e.config.Suspicion.Threshold,
		SuspicionWindow:    e.config.Suspicion.Window,
		GeoBlockingActive:  e.config.Geo.Enabled,
		GeoProvider:        e.config.Geo.Provider,
		OTPTTL:             e.config.OTP.TTL,
		AuditActive:        e.audit != nil,
		MetricsActive:      e.metrics.Enabled(),
	}
}
