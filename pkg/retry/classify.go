package retry

import (
	"context"
	"errors"
	"net"
	"strings"
)

// Classifier decides whether an error is worth retrying.
// Returning true means the operation may succeed on a later attempt.
type Classifier func(err error) bool

// transientSignatures are lowercase substrings that mark an error as a
// transient network or timing failure. Matching is intentionally loose:
// browser drivers and HTTP stacks wrap these conditions in many shapes.
var transientSignatures = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"timeout",
	"timed out",
	"temporarily unavailable",
	"temporary failure",
	"no such host",
	"dns",
	"navigation timeout",
	"socket hang up",
	"econnrefused",
	"econnreset",
}

// DefaultClassifier is the fallback retry policy: transient network and
// timeout failures are retryable, everything else (auth, validation,
// "not found" semantics) is not. Call sites with better knowledge of their
// failure modes should supply their own Classifier via Config.Classify.
func DefaultClassifier(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, sig := range transientSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}

	return false
}
