// Package rate implements the fixed-window, block-on-exhaustion rate limiter that
// guards every inbound request, on top of any [store.Store] backend.
//
// # Window semantics
//
// Fixed-window counters: Increment + Expire on the first hit of a window. Once a
// counter passes its budget a block marker is written with the cool-down TTL and
// every attempt is rejected, without touching the counter, until the marker
// lapses. Key layout:
//   - ip_rate_limit:<ip>         : global per-IP budget
//   - <endpoint>_limit:<ip>       : per-endpoint budget for sensitive routes
//   - blocked:<counter key>       : cool-down marker
//
// # What this package must NOT do
//
//   - Decide fail-open vs fail-closed (callers do; store errors are returned).
//   - Decrement or partially decay counters mid-window.
//   - Be imported outside the goGuard module.
package rate
