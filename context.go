package goGuard

import "context"

type clientIPContextKey struct{}
type decisionContextKey struct{}

// WithClientIP attaches the caller's IP address to ctx. Audit events emitted
// during OTP operations pick it up.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// ClientIPFromContext returns the address set by WithClientIP.
func ClientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}

// WithDecision attaches the guard decision for the current request to ctx.
func WithDecision(ctx context.Context, d Decision) context.Context {
	return context.WithValue(ctx, decisionContextKey{}, d)
}

// DecisionFromContext returns the decision attached by WithDecision.
func DecisionFromContext(ctx context.Context) (Decision, bool) {
	if ctx == nil {
		return Decision{}, false
	}

	d, ok := ctx.Value(decisionContextKey{}).(Decision)
	return d, ok
}
