// Package prometheus renders goGuard metrics in Prometheus text exposition
// format.
//
// Counters are grouped into labelled families, for example
// goguard_check_decisions_total{outcome="rate_limited"}. The check latency
// histogram is goguard_check_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global registry. Callers mount the Handler.
//   - Mutate engine state.
package prometheus
