package config

import (
	"fmt"
	"sync"
)

const (
	browserSectionID = "browser"

	defaultHeadless       = true
	defaultPoolCapacity   = 3
	defaultViewportWidth  = 1280
	defaultViewportHeight = 720
)

// BrowserSection holds browser runtime settings: headless mode, how many
// concurrent sessions the pool keeps, viewport size, and the navigation
// domain allowlist.
type BrowserSection struct {
	mu             sync.RWMutex
	headless       bool
	poolCapacity   int
	viewportWidth  int
	viewportHeight int
	allowedDomains []string
}

// NewBrowserSection creates a browser section with defaults.
func NewBrowserSection() *BrowserSection {
	return &BrowserSection{
		headless:       defaultHeadless,
		poolCapacity:   defaultPoolCapacity,
		viewportWidth:  defaultViewportWidth,
		viewportHeight: defaultViewportHeight,
	}
}

// ID returns the section identifier.
func (s *BrowserSection) ID() string {
	return browserSectionID
}

// Data returns the section's current settings.
func (s *BrowserSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	domains := make([]interface{}, len(s.allowedDomains))
	for i, d := range s.allowedDomains {
		domains[i] = d
	}

	return map[string]interface{}{
		"headless":        s.headless,
		"pool_capacity":   s.poolCapacity,
		"viewport_width":  s.viewportWidth,
		"viewport_height": s.viewportHeight,
		"allowed_domains": domains,
	}
}

// SetData applies stored settings.
func (s *BrowserSection) SetData(data map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := data["headless"].(bool); ok {
		s.headless = v
	}
	if v, ok := asInt(data["pool_capacity"]); ok {
		s.poolCapacity = v
	}
	if v, ok := asInt(data["viewport_width"]); ok {
		s.viewportWidth = v
	}
	if v, ok := asInt(data["viewport_height"]); ok {
		s.viewportHeight = v
	}
	if raw, ok := data["allowed_domains"].([]interface{}); ok {
		domains := make([]string, 0, len(raw))
		for _, item := range raw {
			domain, ok := item.(string)
			if !ok {
				return fmt.Errorf("allowed_domains entries must be strings, got %T", item)
			}
			domains = append(domains, domain)
		}
		s.allowedDomains = domains
	}
	return nil
}

// Validate checks the current settings.
func (s *BrowserSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.poolCapacity < 1 {
		return fmt.Errorf("pool_capacity must be at least 1, got %d", s.poolCapacity)
	}
	if s.viewportWidth < 1 || s.viewportHeight < 1 {
		return fmt.Errorf("viewport dimensions must be positive, got %dx%d", s.viewportWidth, s.viewportHeight)
	}
	return nil
}

// Reset restores defaults.
func (s *BrowserSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.headless = defaultHeadless
	s.poolCapacity = defaultPoolCapacity
	s.viewportWidth = defaultViewportWidth
	s.viewportHeight = defaultViewportHeight
	s.allowedDomains = nil
}

// GetHeadless returns whether browsers launch headless.
func (s *BrowserSection) GetHeadless() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.headless
}

// GetPoolCapacity returns the session pool capacity.
func (s *BrowserSection) GetPoolCapacity() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.poolCapacity
}

// GetViewport returns the configured viewport size.
func (s *BrowserSection) GetViewport() (width, height int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewportWidth, s.viewportHeight
}

// GetAllowedDomains returns the navigation domain allowlist. Empty means
// unrestricted.
func (s *BrowserSection) GetAllowedDomains() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.allowedDomains))
	copy(out, s.allowedDomains)
	return out
}

// SetAllowedDomains replaces the navigation domain allowlist.
func (s *BrowserSection) SetAllowedDomains(domains []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allowedDomains = make([]string, len(domains))
	copy(s.allowedDomains, domains)
}

// asInt normalizes the numeric types JSON decoding can produce.
func asInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	}
	return 0, false
}
