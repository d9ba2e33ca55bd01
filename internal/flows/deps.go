package flows

import "context"

// Deps groups flow dependency sets. Root engine builds this once and delegates
// request methods to the matching flow implementation.
type Deps struct {
	Check CheckDeps
	OTP   OTPDeps
}

// AuditFunc emits one audit event. meta is evaluated only when the event is kept.
type AuditFunc func(ctx context.Context, event, ip, subject string, success bool, err error, meta func() map[string]string)

func noopAudit(context.Context, string, string, string, bool, error, func() map[string]string) {}

func noopMetric(int) {}
