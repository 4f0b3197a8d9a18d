package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/entrhq/surf/pkg/logging"
)

// Pool is a bounded registry of automation sessions. When the pool is at
// capacity, creating a session evicts the one with the earliest CreatedAt
// (insertion order breaks ties) through the same teardown path used by
// explicit destruction, so no handle is ever dropped without an attempted
// close.
//
// The mutex is held for entire lookup+mutate sequences: the capacity check
// and the insert must be atomic for the size invariant to hold under
// interleaved callers.
type Pool struct {
	mu        sync.Mutex
	capacity  int
	sessions  map[string]*Session
	order     []string // insertion order, eviction tie-break
	currentID string
	factory   Factory
	logger    *logging.Logger

	// now is a test seam; nil uses time.Now.
	now func() time.Time
}

// NewPool creates a session pool. A capacity below 1 falls back to
// DefaultCapacity.
func NewPool(capacity int, factory Factory, logger *logging.Logger) (*Pool, error) {
	if factory == nil {
		return nil, fmt.Errorf("browser pool: factory is required")
	}
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	if logger == nil {
		logger, _ = logging.NewLogger("browser-pool")
	}

	return &Pool{
		capacity: capacity,
		sessions: make(map[string]*Session),
		factory:  factory,
		logger:   logger,
	}, nil
}

// Create builds a new session under the given id and makes it current.
// At capacity the least-recently-created session is evicted first.
func (p *Pool) Create(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, fmt.Errorf("browser pool: session id is required")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.sessions[id]; exists {
		return nil, fmt.Errorf("session %q: %w", id, ErrSessionExists)
	}

	for len(p.sessions) >= p.capacity {
		p.evictOldestLocked()
	}

	handle, err := p.factory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("create session %q: %w", id, err)
	}

	now := time.Now()
	if p.now != nil {
		now = p.now()
	}
	session := &Session{
		ID:         id,
		CreatedAt:  now,
		LastUsedAt: now,
		Handle:     handle,
	}

	p.sessions[id] = session
	p.order = append(p.order, id)
	p.currentID = id

	p.logger.Infof("created session %s (pool %d/%d)", id, len(p.sessions), p.capacity)
	return session, nil
}

// Get returns the session with the given id.
func (p *Pool) Get(id string) (*Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	session, exists := p.sessions[id]
	if !exists {
		return nil, fmt.Errorf("session %q: %w", id, ErrSessionNotFound)
	}
	return session, nil
}

// Current returns the most recently activated session, or nil when none is
// set or it no longer exists.
func (p *Pool) Current() *Session {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.currentID == "" {
		return nil
	}
	return p.sessions[p.currentID]
}

// Activate marks an existing session as current.
func (p *Pool) Activate(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.sessions[id]; !exists {
		return fmt.Errorf("session %q: %w", id, ErrSessionNotFound)
	}
	p.currentID = id
	return nil
}

// Destroy tears down the session with the given id. Destroying a missing
// session is a no-op; handle-close failures are logged, never propagated,
// so one broken handle cannot block teardown of others.
func (p *Pool) Destroy(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	session, exists := p.sessions[id]
	if !exists {
		return
	}
	p.teardownLocked(session, "destroy")
}

// DestroyAll tears down every session. The pool is empty on return
// regardless of individual close failures.
func (p *Pool) DestroyAll() {
	p.mu.Lock()
	defer p.mu.Unlock()

	ids := make([]string, len(p.order))
	copy(ids, p.order)
	for _, id := range ids {
		if session, exists := p.sessions[id]; exists {
			p.teardownLocked(session, "shutdown")
		}
	}

	// Teardown removes entries one by one; this is a final guarantee.
	p.sessions = make(map[string]*Session)
	p.order = nil
	p.currentID = ""
}

// Size returns the number of pooled sessions.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sessions)
}

// Capacity returns the pool capacity.
func (p *Pool) Capacity() int {
	return p.capacity
}

// List returns the pooled sessions in insertion order.
func (p *Pool) List() []*Session {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]*Session, 0, len(p.sessions))
	for _, id := range p.order {
		if session, exists := p.sessions[id]; exists {
			out = append(out, session)
		}
	}
	return out
}

// evictOldestLocked removes the session with the earliest CreatedAt.
// Iterating the insertion order means the first of any CreatedAt tie wins.
func (p *Pool) evictOldestLocked() {
	var victim *Session
	for _, id := range p.order {
		session, exists := p.sessions[id]
		if !exists {
			continue
		}
		if victim == nil || session.CreatedAt.Before(victim.CreatedAt) {
			victim = session
		}
	}
	if victim == nil {
		return
	}

	p.logger.Infof("pool at capacity, evicting session %s (created %s)", victim.ID, victim.CreatedAt.Format(time.RFC3339))
	p.teardownLocked(victim, "evict")
}

// teardownLocked is the single teardown path shared by eviction, explicit
// destruction, and shutdown.
func (p *Pool) teardownLocked(session *Session, reason string) {
	if err := session.Handle.Close(); err != nil {
		p.logger.Warnf("close handle for session %s (%s): %v", session.ID, reason, err)
	}

	delete(p.sessions, session.ID)
	for i, id := range p.order {
		if id == session.ID {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	if p.currentID == session.ID {
		p.currentID = ""
	}
}
