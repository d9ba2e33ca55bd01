package flows

import (
	"context"
	"errors"
	"time"
)

// OTPCheck pairs a subject key with the code submitted for it.
type OTPCheck struct {
	SubjectKey string
	Code       string
}

type OTPMetrics struct {
	Issued      int
	Verified    int
	Failed      int
	StoreErrors int
}

type OTPEvents struct {
	Issued   string
	Verified string
	Failed   string
	Cleared  string
}

type OTPErrors struct {
	EngineNotReady   error
	InvalidOTP       error
	InvalidSubject   error
	StoreUnavailable error
}

type OTPDeps struct {
	DefaultTTL time.Duration

	Generate func() (string, error)
	Save     func(context.Context, string, string, time.Duration) error
	Matches  func(context.Context, string, string) (bool, error)
	Delete   func(context.Context, string) error

	MapStoreError func(error) error
	MetricInc     func(int)
	EmitAudit     AuditFunc

	Metrics OTPMetrics
	Events  OTPEvents
	Errors  OTPErrors
}

// RunIssueOTP generates a code for subjectKey, stores it for ttl (DefaultTTL
// when ttl <= 0) and returns the plaintext for delivery.
func RunIssueOTP(ctx context.Context, subjectKey string, ttl time.Duration, deps OTPDeps) (string, error) {
	normalizeOTPDeps(&deps)

	if deps.Generate == nil || deps.Save == nil {
		return "", deps.Errors.EngineNotReady
	}
	if subjectKey == "" {
		return "", deps.Errors.InvalidSubject
	}
	if ttl <= 0 {
		ttl = deps.DefaultTTL
	}

	code, err := deps.Generate()
	if err != nil {
		return "", err
	}

	if err := deps.Save(ctx, subjectKey, code, ttl); err != nil {
		mapped := deps.MapStoreError(err)
		deps.MetricInc(deps.Metrics.StoreErrors)
		deps.EmitAudit(ctx, deps.Events.Issued, "", subjectKey, false, mapped, nil)
		return "", mapped
	}

	deps.MetricInc(deps.Metrics.Issued)
	deps.EmitAudit(ctx, deps.Events.Issued, "", subjectKey, true, nil, nil)
	return code, nil
}

// RunVerifyOTP reports whether candidate matches the live code for subjectKey.
// The code is left in place.
func RunVerifyOTP(ctx context.Context, subjectKey, candidate string, deps OTPDeps) (bool, error) {
	normalizeOTPDeps(&deps)

	if deps.Matches == nil {
		return false, deps.Errors.EngineNotReady
	}
	if subjectKey == "" {
		return false, deps.Errors.InvalidSubject
	}

	ok, err := deps.Matches(ctx, subjectKey, candidate)
	if err != nil {
		mapped := deps.MapStoreError(err)
		deps.MetricInc(deps.Metrics.StoreErrors)
		deps.EmitAudit(ctx, deps.Events.Failed, "", subjectKey, false, mapped, nil)
		return false, mapped
	}

	if !ok {
		deps.MetricInc(deps.Metrics.Failed)
		deps.EmitAudit(ctx, deps.Events.Failed, "", subjectKey, false, deps.Errors.InvalidOTP, nil)
		return false, nil
	}

	deps.MetricInc(deps.Metrics.Verified)
	deps.EmitAudit(ctx, deps.Events.Verified, "", subjectKey, true, nil, nil)
	return true, nil
}

// RunClearOTP removes the code for subjectKey.
func RunClearOTP(ctx context.Context, subjectKey string, deps OTPDeps) error {
	normalizeOTPDeps(&deps)

	if deps.Delete == nil {
		return deps.Errors.EngineNotReady
	}
	if subjectKey == "" {
		return deps.Errors.InvalidSubject
	}

	if err := deps.Delete(ctx, subjectKey); err != nil {
		deps.MetricInc(deps.Metrics.StoreErrors)
		return deps.MapStoreError(err)
	}
	deps.EmitAudit(ctx, deps.Events.Cleared, "", subjectKey, true, nil, nil)
	return nil
}

// RunConfirmOTPs verifies every check and, only when all of them match, clears
// every subject. Any mismatch returns InvalidOTP and leaves all codes in place.
func RunConfirmOTPs(ctx context.Context, checks []OTPCheck, deps OTPDeps) error {
	normalizeOTPDeps(&deps)

	if len(checks) == 0 {
		return deps.Errors.InvalidSubject
	}

	for _, check := range checks {
		ok, err := RunVerifyOTP(ctx, check.SubjectKey, check.Code, deps)
		if err != nil {
			return err
		}
		if !ok {
			return deps.Errors.InvalidOTP
		}
	}

	var errs []error
	for _, check := range checks {
		if err := RunClearOTP(ctx, check.SubjectKey, deps); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func normalizeOTPDeps(deps *OTPDeps) {
	if deps.DefaultTTL <= 0 {
		deps.DefaultTTL = 10 * time.Minute
	}
	if deps.MetricInc == nil {
		deps.MetricInc = noopMetric
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = noopAudit
	}
	if deps.MapStoreError == nil {
		deps.MapStoreError = func(err error) error {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			if deps.Errors.StoreUnavailable != nil {
				return deps.Errors.StoreUnavailable
			}
			return err
		}
	}
}
