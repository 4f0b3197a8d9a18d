package config

import (
	"fmt"
	"strings"
	"sync"
)

const llmSectionID = "llm"

// LLMSection holds the model provider settings used for natural-language
// page actions and extraction.
type LLMSection struct {
	mu      sync.RWMutex
	model   string
	baseURL string
	apiKey  string
}

// NewLLMSection creates an LLM section with defaults.
func NewLLMSection() *LLMSection {
	return &LLMSection{}
}

// ID returns the section identifier.
func (s *LLMSection) ID() string {
	return llmSectionID
}

// Data returns the section's current settings.
func (s *LLMSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"model":    s.model,
		"base_url": s.baseURL,
		"api_key":  s.apiKey,
	}
}

// SetData applies stored settings.
func (s *LLMSection) SetData(data map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := data["model"].(string); ok {
		s.model = v
	}
	if v, ok := data["base_url"].(string); ok {
		s.baseURL = v
	}
	if v, ok := data["api_key"].(string); ok {
		s.apiKey = v
	}
	return nil
}

// Validate checks the current settings.
func (s *LLMSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.baseURL != "" && !strings.HasPrefix(s.baseURL, "http://") && !strings.HasPrefix(s.baseURL, "https://") {
		return fmt.Errorf("base_url must start with http:// or https://, got %q", s.baseURL)
	}
	return nil
}

// Reset restores defaults.
func (s *LLMSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.model = ""
	s.baseURL = ""
	s.apiKey = ""
}

// GetModel returns the configured model, or empty for the provider default.
func (s *LLMSection) GetModel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

// SetModel sets the model.
func (s *LLMSection) SetModel(model string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = model
}

// GetBaseURL returns the configured endpoint, or empty for the default.
func (s *LLMSection) GetBaseURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.baseURL
}

// GetAPIKey returns the stored API key, or empty.
func (s *LLMSection) GetAPIKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.apiKey
}

// SetAPIKey stores the API key.
func (s *LLMSection) SetAPIKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apiKey = key
}
