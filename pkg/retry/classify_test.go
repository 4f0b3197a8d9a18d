package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeNetError struct {
	timeout bool
}

func (e *fakeNetError) Error() string   { return "fake net error" }
func (e *fakeNetError) Timeout() bool   { return e.timeout }
func (e *fakeNetError) Temporary() bool { return false }

func TestDefaultClassifier(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil", nil, false},
		{"connection refused", errors.New("dial tcp 127.0.0.1:443: connect: connection refused"), true},
		{"connection reset", errors.New("read tcp: connection reset by peer"), true},
		{"generic timeout", errors.New("timeout 30000ms exceeded"), true},
		{"navigation timeout", errors.New("playwright: navigation timeout of 30000 ms exceeded"), true},
		{"dns failure", errors.New("lookup example.com: no such host"), true},
		{"temporarily unavailable", errors.New("service temporarily unavailable"), true},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"wrapped deadline", fmt.Errorf("fetch page: %w", context.DeadlineExceeded), true},
		{"attempt timeout", &TimeoutError{Budget: time.Second}, true},
		{"net error timeout", &fakeNetError{timeout: true}, true},
		{"net error non-timeout", &fakeNetError{timeout: false}, false},
		{"auth failure", errors.New("401 unauthorized: invalid api key"), false},
		{"validation failure", errors.New("invalid selector: expected non-empty string"), false},
		{"not found", errors.New("session \"main\" not found"), false},
		{"context cancelled", context.Canceled, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.retryable, DefaultClassifier(tc.err))
		})
	}
}
