package goGuard

import (
	"context"
	"time"

	"github.com/MrEthical07/goGuard/internal/flows"
	"github.com/MrEthical07/goGuard/internal/stores"
)

// EmailOTPKey returns the subject key for an email address after trimming and
// lower-casing it.
func EmailOTPKey(address string) (string, error) {
	key, err := stores.EmailKey(address)
	if err != nil {
		return "", ErrInvalidSubject
	}
	return key, nil
}

// PhoneOTPKey returns the subject key for a phone number.
func PhoneOTPKey(number string) (string, error) {
	key, err := stores.PhoneKey(number)
	if err != nil {
		return "", ErrInvalidSubject
	}
	return key, nil
}

// IssueOTP stores a fresh 6-digit code under subjectKey and returns it for
// out-of-band delivery. Any previous code for the subject is replaced.
// ttl <= 0 uses Config.OTP.TTL. Store failures return ErrStoreUnavailable.
func (e *Engine) IssueOTP(ctx context.Context, subjectKey string, ttl time.Duration) (string, error) {
	if !e.ready() {
		return "", ErrEngineNotReady
	}
	return e.flow.IssueOTP(ctx, subjectKey, ttl)
}

// IssueEmailOTP issues a code for an email address with the default lifetime.
func (e *Engine) IssueEmailOTP(ctx context.Context, address string) (string, error) {
	key, err := EmailOTPKey(address)
	if err != nil {
		return "", err
	}
	return e.IssueOTP(ctx, key, 0)
}

// IssuePhoneOTP issues a code for a phone number with the default lifetime.
func (e *Engine) IssuePhoneOTP(ctx context.Context, number string) (string, error) {
	key, err := PhoneOTPKey(number)
	if err != nil {
		return "", err
	}
	return e.IssueOTP(ctx, key, 0)
}

// VerifyOTP reports whether candidate equals the live code for subjectKey.
// Absent and expired codes verify false. The code is not cleared.
//
// A mismatch counts as suspicious activity for the client IP attached with
// WithClientIP, when there is one.
func (e *Engine) VerifyOTP(ctx context.Context, subjectKey, candidate string) (bool, error) {
	if !e.ready() {
		return false, ErrEngineNotReady
	}

	ok, err := e.flow.VerifyOTP(ctx, subjectKey, candidate)
	if err == nil && !ok {
		if ip := ClientIPFromContext(ctx); ip != "" {
			e.FlagSuspicious(ctx, ip)
		}
	}
	return ok, err
}

// ClearOTP removes the code for subjectKey.
func (e *Engine) ClearOTP(ctx context.Context, subjectKey string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	return e.flow.ClearOTP(ctx, subjectKey)
}

// ConfirmOTPs verifies every check and clears all of them only when every code
// matches. A single mismatch returns ErrInvalidOTP and clears nothing.
func (e *Engine) ConfirmOTPs(ctx context.Context, checks ...OTPCheck) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	converted := make([]flows.OTPCheck, len(checks))
	for i, c := range checks {
		converted[i] = flows.OTPCheck{SubjectKey: c.SubjectKey, Code: c.Code}
	}
	return e.flow.ConfirmOTPs(ctx, converted)
}
