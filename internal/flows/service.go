package flows

import (
	"context"
	"time"
)

// Service is the centralized flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.OTP.Save != nil
}

func (s Service) Check(ctx context.Context, req CheckRequest) (CheckResult, error) {
	return RunCheck(ctx, req, s.deps.Check)
}

func (s Service) IssueOTP(ctx context.Context, subjectKey string, ttl time.Duration) (string, error) {
	return RunIssueOTP(ctx, subjectKey, ttl, s.deps.OTP)
}

func (s Service) VerifyOTP(ctx context.Context, subjectKey, candidate string) (bool, error) {
	return RunVerifyOTP(ctx, subjectKey, candidate, s.deps.OTP)
}

func (s Service) ClearOTP(ctx context.Context, subjectKey string) error {
	return RunClearOTP(ctx, subjectKey, s.deps.OTP)
}

func (s Service) ConfirmOTPs(ctx context.Context, checks []OTPCheck) error {
	return RunConfirmOTPs(ctx, checks, s.deps.OTP)
}
