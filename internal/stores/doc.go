// Package stores provides short-lived record stores for verification flows,
// persisted through the pluggable TTL store.
//
// # Design
//
// One-time codes are stored as plain 6-digit strings under a subject key
// (email_otp:<address>, phone_otp:<number>) with a TTL. Issuing again for the
// same subject overwrites the previous code, so at most one code is live.
// Comparisons use constant-time compare.
//
// # Architecture boundaries
//
// This package owns key construction and persistence for OTP records. It does
// NOT generate codes, enforce rate limits, or decide whether a verification
// succeeds overall. Those responsibilities belong to internal/flows.
//
// # What this package must NOT do
//
//   - Import goGuard or any sibling internal package.
//   - Log or expose plaintext codes.
//   - Use non-constant-time comparisons for code matching.
package stores
