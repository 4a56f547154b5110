package providers

import (
	"context"
	"errors"
)

// classifyRetryable treats everything as a retryable transport failure
// except context cancellation/deadline, which a backoff retry can
// never fix.
func classifyRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}
