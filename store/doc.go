// Package store provides the time-expiring key/value store every goGuard guard
// persists its state in.
//
// # Backends
//
//   - [RedisStore]: distributed backend over a go-redis UniversalClient. Native
//     INCR/PEXPIRE give atomic counters; key enumeration uses SCAN.
//   - [MemoryStore]: in-process fallback. A single mutex guards the map and an
//     owned janitor goroutine evicts expired entries until [MemoryStore.Close].
//
// Both satisfy [Store] with identical observable semantics. Expiry is checked on
// every read, so the janitor only bounds memory and is never needed for
// correctness.
//
// # Architecture boundaries
//
// This package owns persistence and key lifetime. It knows nothing about OTP
// codes, rate-limit budgets, or geolocation; callers own their key layout.
//
// # What this package must NOT do
//
//   - Import goGuard or any sibling package.
//   - Retry failed backend calls (retry policy belongs to the caller).
//   - Pick a backend after [Open] has returned.
package store
