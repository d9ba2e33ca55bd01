package stores

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/goGuard/store"
)

const (
	emailOTPPrefix = "email_otp:"
	phoneOTPPrefix = "phone_otp:"
)

var (
	ErrOTPNotFound         = errors.New("otp record not found")
	ErrOTPStoreUnavailable = errors.New("otp store unavailable")
	ErrOTPInvalidSubject   = errors.New("otp subject is empty")
)

// EmailKey builds the subject key for an email address. The address is trimmed
// and lower-cased.
func EmailKey(address string) (string, error) {
	address = strings.ToLower(strings.TrimSpace(address))
	if address == "" {
		return "", ErrOTPInvalidSubject
	}
	return emailOTPPrefix + address, nil
}

// PhoneKey builds the subject key for a phone number.
func PhoneKey(number string) (string, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return "", ErrOTPInvalidSubject
	}
	return phoneOTPPrefix + number, nil
}

// OTPStore persists one code per subject key.
type OTPStore struct {
	store store.Store
}

// NewOTPStore creates an OTP store over s.
func NewOTPStore(s store.Store) *OTPStore {
	return &OTPStore{store: s}
}

// Save stores code under subjectKey, replacing any previous code.
func (s *OTPStore) Save(ctx context.Context, subjectKey, code string, ttl time.Duration) error {
	if subjectKey == "" {
		return ErrOTPInvalidSubject
	}
	if err := s.store.Set(ctx, subjectKey, code, ttl); err != nil {
		return fmt.Errorf("%w: %w", ErrOTPStoreUnavailable, err)
	}
	return nil
}

// Get returns the live code for subjectKey or ErrOTPNotFound.
func (s *OTPStore) Get(ctx context.Context, subjectKey string) (string, error) {
	if subjectKey == "" {
		return "", ErrOTPInvalidSubject
	}
	code, err := s.store.Get(ctx, subjectKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrOTPNotFound
		}
		return "", fmt.Errorf("%w: %w", ErrOTPStoreUnavailable, err)
	}
	return code, nil
}

// Matches reports whether candidate equals the live code for subjectKey.
// An absent or expired code never matches.
func (s *OTPStore) Matches(ctx context.Context, subjectKey, candidate string) (bool, error) {
	code, err := s.Get(ctx, subjectKey)
	if err != nil {
		if errors.Is(err, ErrOTPNotFound) {
			return false, nil
		}
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(code), []byte(candidate)) == 1, nil
}

// Delete removes the code for subjectKey. Deleting an absent code is not an error.
func (s *OTPStore) Delete(ctx context.Context, subjectKey string) error {
	if subjectKey == "" {
		return ErrOTPInvalidSubject
	}
	if _, err := s.store.Delete(ctx, subjectKey); err != nil {
		return fmt.Errorf("%w: %w", ErrOTPStoreUnavailable, err)
	}
	return nil
}
