// Package internal contains helper utilities that are intentionally private to goGuard,
// currently the cryptographically random OTP generator.
//
// # Sub-packages
//
//   - flows: pure-function orchestrators for the guard chain and OTP operations
//   - limiters: domain guards built on counters (suspicious-activity monitor)
//   - rate: fixed-window rate limiter with cool-down block markers
//   - stores: OTP record persistence and key layout
//
// # What this package must NOT do
//
//   - Export types that appear in the public goGuard API.
//   - Be imported by any package outside the goGuard module.
package internal
