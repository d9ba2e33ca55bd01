package goGuard

import (
	"context"
	"errors"
)

// AuditErrorCode is the coarse error class recorded in AuditEvent.Error.
type AuditErrorCode string

const (
	auditErrRateLimited    AuditErrorCode = "rate_limited"
	auditErrInvalidOTP     AuditErrorCode = "invalid_otp"
	auditErrInvalidSubject AuditErrorCode = "invalid_subject"
	auditErrUnavailable    AuditErrorCode = "backend_unavailable"
	auditErrLookupFailed   AuditErrorCode = "lookup_failed"
	auditErrCanceled       AuditErrorCode = "canceled"
	auditErrInternal       AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	ip string,
	subject string,
	success bool,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}
	if ip == "" {
		ip = ClientIPFromContext(ctx)
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		EventType: eventType,
		IP:        ip,
		Subject:   subject,
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return auditErrCanceled
	case errors.Is(err, ErrRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrInvalidOTP):
		return auditErrInvalidOTP
	case errors.Is(err, ErrInvalidSubject):
		return auditErrInvalidSubject
	case errors.Is(err, ErrStoreUnavailable):
		return auditErrUnavailable
	case errors.Is(err, ErrLookupFailed):
		return auditErrLookupFailed
	default:
		return auditErrInternal
	}
}
