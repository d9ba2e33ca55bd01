// Package flows contains pure-function orchestrators for every Engine operation.
//
// Each flow function (RunCheck, RunIssueOTP, RunVerifyOTP, etc.) accepts a typed
// dependency struct and returns results without side-effects beyond those
// dependencies. This design enables exhaustive unit testing with stub
// dependencies and keeps the Engine type thin.
//
// # Architecture boundaries
//
// Flow functions coordinate calls to the rate limiter, suspicion monitor,
// geolocation blocklist, OTP store, audit dispatcher, and metrics. They decide
// how failures surface: store errors fail open in the guard chain and fail
// closed in OTP flows. They do NOT own any of these resources; ownership stays
// with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goGuard (to avoid import cycles).
//   - Perform I/O directly. All I/O goes through dependency funcs.
package flows
