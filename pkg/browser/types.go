// Package browser manages long-lived automation sessions: a bounded,
// eviction-driven pool of sessions and the playwright-backed handle that
// implements each session's capability surface.
package browser

import (
	"context"
	"errors"
	"time"
)

// Handle is the capability surface of one automation session. The pool owns
// handles and guarantees Close is attempted exactly once per session
// lifetime, on eviction or explicit destruction.
type Handle interface {
	// Navigate loads the URL and waits for the load event.
	Navigate(ctx context.Context, url string) error

	// WaitUntilLoaded blocks until the page reaches network-idle.
	WaitUntilLoaded(ctx context.Context) error

	// Act performs a natural-language action against the current page and
	// returns a short description of what was done.
	Act(ctx context.Context, instruction string) (string, error)

	// Extract pulls structured content from the current page following
	// the instruction, optionally shaped by a JSON schema.
	Extract(ctx context.Context, instruction string, schema map[string]interface{}) (string, error)

	// URL returns the current page URL.
	URL() string

	// Title returns the current page title.
	Title() (string, error)

	// Content returns the raw page HTML.
	Content() (string, error)

	// Screenshot captures the current viewport as PNG bytes.
	Screenshot() ([]byte, error)

	// PDF renders the current page as PDF bytes.
	PDF() ([]byte, error)

	// Evaluate runs a JavaScript expression in page context.
	Evaluate(expression string, arg ...interface{}) (interface{}, error)

	// Close releases every resource behind the handle.
	Close() error
}

// Session is a pooled automation session. Sessions are owned by the pool
// from creation until eviction or explicit destruction; the handle's
// lifetime is bound to the session's.
type Session struct {
	// ID is the unique identifier for this session.
	ID string

	// CreatedAt orders sessions for eviction.
	CreatedAt time.Time

	// LastUsedAt is the timestamp of the last operation on this session.
	LastUsedAt time.Time

	// Handle is the automation context behind this session.
	Handle Handle
}

// Touch updates the LastUsedAt timestamp to the current time.
func (s *Session) Touch() {
	s.LastUsedAt = time.Now()
}

// Factory creates the handle for a new session.
type Factory func(ctx context.Context, id string) (Handle, error)

// SessionOptions configures new playwright sessions.
type SessionOptions struct {
	// Headless controls whether the browser runs without a window.
	Headless bool

	// Viewport sets the initial viewport size.
	Viewport *Viewport

	// Timeout is the default per-operation timeout in milliseconds.
	Timeout float64
}

// Viewport represents the browser viewport dimensions.
type Viewport struct {
	Width  int
	Height int
}

// Defaults for pool and session construction.
const (
	DefaultCapacity       = 3
	DefaultTimeout        = 30000.0 // milliseconds
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
)

var (
	// ErrSessionNotFound is returned when a session id is not in the pool.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExists is returned when creating a session whose id is
	// already pooled.
	ErrSessionExists = errors.New("session already exists")
)
