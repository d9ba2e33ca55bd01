// Package geo resolves client IP addresses to coarse locations and decides
// whether a location is blocked.
//
// Resolution goes through a [Cache] that keeps provider answers in the TTL
// store under geo:<ip> for an hour. Providers implement [Lookup]; two are
// included: [HTTPLookup] for the ip-api.com JSON endpoint and [MaxMindLookup]
// for local GeoLite2/GeoIP2 databases.
//
// The [Blocklist] keeps a set of country names under blocked_countries and
// rejects addresses located in one of them, as well as any address flagged as
// a proxy or VPN.
//
// Every failure on the resolution path fails open: an address that cannot be
// resolved is never blocked.
package geo
