package internaldefs

import (
	goGuard "github.com/MrEthical07/goGuard"
)

// Prefix is prepended to every exported metric name.
const Prefix = "goguard_"

// Series is one labelled value of a family. LabelValue is empty for
// unlabelled families.
type Series struct {
	ID         goGuard.MetricID
	LabelValue string
}

// Family is one exported counter. Families with a LabelKey expose one series
// per label value; the others expose a single series.
type Family struct {
	Name     string
	Help     string
	LabelKey string
	Series   []Series
}

type HistogramDef struct {
	ID   goGuard.MetricID
	Name string
	Help string
}

// AuditDroppedName is the counter for audit events lost to a full queue.
const AuditDroppedName = Prefix + "audit_dropped_total"

// Families groups engine counters by what they describe: guard decisions are
// one family split by outcome, OTP operations one family split by result.
var Families = []Family{
	{
		Name:     Prefix + "check_decisions_total",
		Help:     "Guard chain decisions by outcome.",
		LabelKey: "outcome",
		Series: []Series{
			{ID: goGuard.MetricCheckAdmitted, LabelValue: "admitted"},
			{ID: goGuard.MetricCheckRateLimited, LabelValue: goGuard.ReasonRateLimited},
			{ID: goGuard.MetricCheckSuspicious, LabelValue: goGuard.ReasonSuspicious},
			{ID: goGuard.MetricCheckGeoBlocked, LabelValue: goGuard.ReasonGeoBlocked},
		},
	},
	{
		Name:   Prefix + "check_fail_open_total",
		Help:   "Guard stages skipped because a backend was unavailable.",
		Series: []Series{{ID: goGuard.MetricCheckFailOpen}},
	},
	{
		Name:     Prefix + "otp_operations_total",
		Help:     "One-time password operations by result.",
		LabelKey: "result",
		Series: []Series{
			{ID: goGuard.MetricOTPIssued, LabelValue: "issued"},
			{ID: goGuard.MetricOTPVerified, LabelValue: "verified"},
			{ID: goGuard.MetricOTPFailed, LabelValue: "failed"},
			{ID: goGuard.MetricOTPStoreError, LabelValue: "store_error"},
		},
	},
	{
		Name:     Prefix + "geo_resolutions_total",
		Help:     "Geolocation resolutions by source.",
		LabelKey: "result",
		Series: []Series{
			{ID: goGuard.MetricGeoCacheHit, LabelValue: "cache_hit"},
			{ID: goGuard.MetricGeoCacheMiss, LabelValue: "provider"},
			{ID: goGuard.MetricGeoLookupFailure, LabelValue: "failed"},
		},
	},
	{
		Name:   Prefix + "blocklist_changes_total",
		Help:   "Countries added to or removed from the blocklist.",
		Series: []Series{{ID: goGuard.MetricBlocklistChanged}},
	},
}

var HistogramDefs = []HistogramDef{
	{ID: goGuard.MetricCheckLatency, Name: Prefix + "check_latency_seconds", Help: "Guard chain latency."},
}

// HistogramBounds are the le label values matching goGuard.LatencyBucketBounds.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// NormalizeBuckets copies raw into a fixed array, zero-filling missing buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
