// Package middleware adapts goGuard.Engine to net/http.
//
// # Guards
//
//   - [Guard] runs Engine.Check for every request and rejects with 429 or 403.
//   - [RequireAdmin] requires a bearer token carrying the admin scope.
//
// Guard resolves the client address from X-Forwarded-For, then X-Real-IP,
// then RemoteAddr, and stores it on the request context together with the
// decision so handlers can read both back.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. Every admit or
// reject decision comes from Engine.Check.
//
// # What this package must NOT do
//
//   - Access the store directly.
//   - Decide rate limits, suspicion or geolocation itself.
package middleware
