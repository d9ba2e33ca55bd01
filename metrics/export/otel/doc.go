// Package otel exports goGuard counters and the check latency histogram as
// OpenTelemetry observable instruments.
//
// [NewOTelExporter] registers one Int64ObservableCounter per counter family.
// Each series is observed with its label as an attribute, so guard decisions
// appear as goguard_check_decisions_total{outcome=...}. The latency histogram
// is a bucket gauge keyed by the le attribute plus count and sum gauges. One
// callback reads [goGuard.Engine.MetricsSnapshot] on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the MeterProvider. Callers supply the Meter.
//   - Mutate engine state.
package otel
