// Package jwt issues and verifies the bearer tokens that guard the admin
// surface: blocked-country management and rate-limit resets.
//
// Tokens are signed with Ed25519 or HS256 through github.com/golang-jwt/jwt/v5.
// Verification pins the algorithm, supports key rotation through kid-indexed
// verify keys, and enforces issuer, audience and expiry.
package jwt
