// Package goGuard provides the abuse-prevention layer of a membership platform:
// a fixed-window rate limiter, a suspicious-activity monitor, a geolocation
// country blocklist and a one-time-code manager, all persisted in a pluggable
// TTL store (Redis or in-process).
//
// The package is designed for concurrent server workloads: Engine methods are safe
// to call from multiple goroutines after initialization through [Builder.Build].
//
// # Guard chain
//
// [Engine.Check] runs the rate limiter, then the suspicion monitor, then the
// blocklist, and stops at the first rejection. Store failures inside the chain
// fail open and are logged; OTP operations fail closed with [ErrStoreUnavailable].
//
// # Architecture boundaries
//
// goGuard is the public surface. It exposes [Engine], [Builder], [Config], and value
// types (Decision, MetricsSnapshot, AuditEvent). Flow orchestration, counting and
// OTP persistence live under internal/ and are never exported. The store and geo
// packages are public so hosts can share a backend or plug in a provider.
//
// # What this package must NOT do
//
//   - Deliver OTP codes. IssueOTP returns the plaintext and delivery is the caller's.
//   - Retry failed store or lookup calls.
//   - Import any sub-package that re-imports goGuard (no import cycles).
package goGuard
