package rate

import "errors"

var (
	// ErrRateLimited is returned when a budget is exhausted or a block marker is live.
	ErrRateLimited = errors.New("rate limited")
	// ErrStoreUnavailable wraps backend failures seen while counting.
	ErrStoreUnavailable = errors.New("rate limit store unavailable")
)
