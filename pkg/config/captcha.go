package config

import (
	"fmt"
	"os"
	"sync"
)

const (
	captchaSectionID = "captcha"

	// APIKeyEnvVar overrides the stored captcha API key when set.
	APIKeyEnvVar = "SURF_CAPTCHA_API_KEY"

	defaultPollIntervalSeconds = 3
	defaultMaxPollAttempts     = 20
)

// CaptchaSection holds captcha solving service settings.
type CaptchaSection struct {
	mu                  sync.RWMutex
	apiKey              string
	baseURL             string
	pollIntervalSeconds int
	maxPollAttempts     int
	autoSolve           bool
	proxy               string
}

// NewCaptchaSection creates a captcha section with defaults.
func NewCaptchaSection() *CaptchaSection {
	return &CaptchaSection{
		pollIntervalSeconds: defaultPollIntervalSeconds,
		maxPollAttempts:     defaultMaxPollAttempts,
		autoSolve:           true,
	}
}

// ID returns the section identifier.
func (s *CaptchaSection) ID() string {
	return captchaSectionID
}

// Data returns the section's current settings.
func (s *CaptchaSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"api_key":               s.apiKey,
		"base_url":              s.baseURL,
		"poll_interval_seconds": s.pollIntervalSeconds,
		"max_poll_attempts":     s.maxPollAttempts,
		"auto_solve":            s.autoSolve,
		"proxy":                 s.proxy,
	}
}

// SetData applies stored settings.
func (s *CaptchaSection) SetData(data map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := data["api_key"].(string); ok {
		s.apiKey = v
	}
	if v, ok := data["base_url"].(string); ok {
		s.baseURL = v
	}
	if v, ok := asInt(data["poll_interval_seconds"]); ok {
		s.pollIntervalSeconds = v
	}
	if v, ok := asInt(data["max_poll_attempts"]); ok {
		s.maxPollAttempts = v
	}
	if v, ok := data["auto_solve"].(bool); ok {
		s.autoSolve = v
	}
	if v, ok := data["proxy"].(string); ok {
		s.proxy = v
	}
	return nil
}

// Validate checks the current settings.
func (s *CaptchaSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.pollIntervalSeconds < 1 {
		return fmt.Errorf("poll_interval_seconds must be at least 1, got %d", s.pollIntervalSeconds)
	}
	if s.maxPollAttempts < 1 {
		return fmt.Errorf("max_poll_attempts must be at least 1, got %d", s.maxPollAttempts)
	}
	return nil
}

// Reset restores defaults.
func (s *CaptchaSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.apiKey = ""
	s.baseURL = ""
	s.pollIntervalSeconds = defaultPollIntervalSeconds
	s.maxPollAttempts = defaultMaxPollAttempts
	s.autoSolve = true
	s.proxy = ""
}

// GetAPIKey returns the solving service API key. The SURF_CAPTCHA_API_KEY
// environment variable takes precedence over the stored value.
func (s *CaptchaSection) GetAPIKey() string {
	if key := os.Getenv(APIKeyEnvVar); key != "" {
		return key
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.apiKey
}

// SetAPIKey stores the solving service API key.
func (s *CaptchaSection) SetAPIKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apiKey = key
}

// GetBaseURL returns the solving service endpoint override, if any.
func (s *CaptchaSection) GetBaseURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.baseURL
}

// GetPollIntervalSeconds returns the fixed delay between result polls.
func (s *CaptchaSection) GetPollIntervalSeconds() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pollIntervalSeconds
}

// GetMaxPollAttempts returns the poll budget per solving task.
func (s *CaptchaSection) GetMaxPollAttempts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxPollAttempts
}

// GetAutoSolve returns whether captchas found after navigation are solved
// automatically.
func (s *CaptchaSection) GetAutoSolve() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.autoSolve
}

// GetProxy returns the "host:port[:user:pass]" proxy for proxied task
// types, if configured.
func (s *CaptchaSection) GetProxy() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.proxy
}
