package goGuard

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one counter or histogram.
type MetricID uint16

const (
	// MetricCheckAdmitted counts requests that passed every guard stage.
	MetricCheckAdmitted MetricID = iota
	// MetricCheckRateLimited counts requests rejected by a rate budget.
	MetricCheckRateLimited
	// MetricCheckSuspicious counts requests rejected by the suspicion monitor.
	MetricCheckSuspicious
	// MetricCheckGeoBlocked counts requests rejected by the country blocklist.
	MetricCheckGeoBlocked
	// MetricCheckFailOpen counts guard stages skipped because the store failed.
	MetricCheckFailOpen
	MetricOTPIssued
	MetricOTPVerified
	MetricOTPFailed
	MetricOTPStoreError
	MetricGeoCacheHit
	MetricGeoCacheMiss
	MetricGeoLookupFailure
	MetricBlocklistChanged
	// MetricCheckLatency is the only histogram.
	MetricCheckLatency
	metricIDCount
)

// MetricNames maps every MetricID to its stable exported name.
var MetricNames = map[MetricID]string{
	MetricCheckAdmitted:    "check_admitted_total",
	MetricCheckRateLimited: "check_rate_limited_total",
	MetricCheckSuspicious:  "check_suspicious_total",
	MetricCheckGeoBlocked:  "check_geo_blocked_total",
	MetricCheckFailOpen:    "check_fail_open_total",
	MetricOTPIssued:        "otp_issued_total",
	MetricOTPVerified:      "otp_verified_total",
	MetricOTPFailed:        "otp_failed_total",
	MetricOTPStoreError:    "otp_store_error_total",
	MetricGeoCacheHit:      "geo_cache_hit_total",
	MetricGeoCacheMiss:     "geo_cache_miss_total",
	MetricGeoLookupFailure: "geo_lookup_failure_total",
	MetricBlocklistChanged: "blocklist_changed_total",
	MetricCheckLatency:     "check_latency",
}

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

// LatencyBucketBounds are the inclusive upper bounds of the histogram buckets
// in milliseconds. The last bucket is unbounded.
var LatencyBucketBounds = [histBucketCount - 1]float64{5, 10, 25, 50, 100, 250, 500}

type metricHistogram struct {
	buckets  [histBucketCount]uint64
	sumNanos uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free counters for the engine.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of every counter.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
	// HistogramSums holds the total observed duration per histogram.
	HistogramSums map[MetricID]time.Duration
}

// NewMetrics creates metrics honouring cfg. Disabled metrics ignore every call.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in the latency histogram for id. Only MetricCheckLatency
// carries a histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricCheckLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
	if d > 0 {
		atomic.AddUint64(&m.histograms[id].sumNanos, uint64(d))
	}
}

func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter and, when enabled, the latency histogram.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:      map[MetricID]uint64{},
			Histograms:    map[MetricID][]uint64{},
			HistogramSums: map[MetricID]time.Duration{},
		}
	}

	s := MetricsSnapshot{
		Counters:      make(map[MetricID]uint64, int(metricIDCount)),
		Histograms:    make(map[MetricID][]uint64, 1),
		HistogramSums: make(map[MetricID]time.Duration, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if id == MetricCheckLatency {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricCheckLatency].buckets[i])
		}
		s.Histograms[MetricCheckLatency] = buckets
		s.HistogramSums[MetricCheckLatency] = time.Duration(atomic.LoadUint64(&m.histograms[MetricCheckLatency].sumNanos))
	}

	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
