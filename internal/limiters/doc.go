// Package limiters provides domain-specific guards built on plain store counters,
// next to the budgeted limiter in internal/rate.
//
// # Limiters
//
//   - [SuspicionMonitor]: per-IP counter over a fixed 1-hour window. Denies once
//     the count passes a threshold and stays denied until the window lapses.
//
// All limiters are nil-safe: calling any method on a nil receiver allows.
//
// # Architecture boundaries
//
// Each limiter owns its own key namespace and error types. Policy thresholds come
// from Config structs supplied at construction time.
//
// # What this package must NOT do
//
//   - Import goGuard or any sibling internal package.
//   - Log or decide how failures surface. Flow functions do that.
package limiters
