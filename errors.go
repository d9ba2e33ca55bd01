package goGuard

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/goGuard/geo"
	"github.com/MrEthical07/goGuard/store"
)

var (
	// ErrStoreUnavailable indicates the TTL store could not serve a request.
	ErrStoreUnavailable = store.ErrUnavailable
	// ErrRateLimited indicates a rate budget is exhausted or a cool-down is active.
	ErrRateLimited = errors.New("rate limited")
	// ErrInvalidOTP indicates a submitted code did not match.
	ErrInvalidOTP = errors.New("invalid otp")
	// ErrLookupFailed indicates a geolocation provider failure.
	ErrLookupFailed = geo.ErrLookupFailed
	// ErrEngineNotReady indicates a zero-value or partially built Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrInvalidSubject indicates an empty email address, phone number or subject key.
	ErrInvalidSubject = errors.New("invalid otp subject")
	// ErrInvalidCountry indicates an empty country name.
	ErrInvalidCountry = geo.ErrInvalidCountry
	// ErrInvalidIP indicates an address that does not parse.
	ErrInvalidIP = errors.New("invalid ip address")
	// ErrBuilderUsed indicates Build was called twice on one Builder.
	ErrBuilderUsed = errors.New("builder already used")
)

// storeUnavailable wraps a backend failure seen by an Engine operation.
// Context errors pass through unchanged.
func storeUnavailable(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
