package goGuard

import (
	"time"

	"github.com/MrEthical07/goGuard/geo"
	"github.com/MrEthical07/goGuard/internal/flows"
)

// Location is the resolved geolocation of an address.
type Location = geo.Location

// GeoLookup resolves addresses through an external provider.
type GeoLookup = geo.Lookup

// Rejection reasons carried by Decision.Reason.
const (
	ReasonRateLimited = flows.ReasonRateLimited
	ReasonSuspicious  = flows.ReasonSuspicious
	ReasonGeoBlocked  = flows.ReasonGeoBlocked
)

// Request is one inbound request presented to Engine.Check.
type Request struct {
	IP   string
	Path string
}

// Decision is the outcome of Engine.Check.
type Decision struct {
	Allowed bool
	// Reason is empty when Allowed, otherwise one of the Reason constants.
	Reason string
	// RetryAfter is set for rate-limited rejections.
	RetryAfter time.Duration
	// Remaining is the budget left after an admitted request.
	Remaining int
	// Endpoint is the budget name the request path mapped to, if any.
	Endpoint string
	Location *Location
}

// OTPCheck pairs a subject key with a submitted code for ConfirmOTPs.
type OTPCheck struct {
	SubjectKey string
	Code       string
}
