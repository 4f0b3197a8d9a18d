package config

import (
	"fmt"
	"sync"
)

// Section is a named group of related settings with its own validation and
// defaults. Sections serialize to and from generic maps so the store stays
// schema-agnostic.
type Section interface {
	// ID returns the stable identifier used as the section's key in the store
	ID() string

	// Data returns the section's current settings
	Data() map[string]interface{}

	// SetData applies stored settings to the section
	SetData(data map[string]interface{}) error

	// Validate checks the section's current settings
	Validate() error

	// Reset restores the section's defaults
	Reset()
}

// Manager coordinates configuration sections with a backing store.
type Manager struct {
	mu       sync.RWMutex
	store    Store
	sections map[string]Section
}

// NewManager creates a manager over the given store.
func NewManager(store Store) *Manager {
	return &Manager{
		store:    store,
		sections: make(map[string]Section),
	}
}

// RegisterSection adds a section to the manager. Section IDs must be unique.
func (m *Manager) RegisterSection(section Section) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := section.ID()
	if _, exists := m.sections[id]; exists {
		return fmt.Errorf("config section %q already registered", id)
	}
	m.sections[id] = section
	return nil
}

// GetSection returns a registered section by ID.
func (m *Manager) GetSection(id string) (Section, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	section, exists := m.sections[id]
	if !exists {
		return nil, fmt.Errorf("config section %q not registered", id)
	}
	return section, nil
}

// LoadAll applies stored data to every registered section and validates the
// result. Sections absent from the store keep their defaults.
func (m *Manager) LoadAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, section := range m.sections {
		data, err := m.store.GetSection(id)
		if err != nil {
			return fmt.Errorf("failed to load config section %q: %w", id, err)
		}
		if len(data) == 0 {
			continue
		}
		if err := section.SetData(data); err != nil {
			return fmt.Errorf("failed to apply config section %q: %w", id, err)
		}
		if err := section.Validate(); err != nil {
			return fmt.Errorf("invalid config section %q: %w", id, err)
		}
	}
	return nil
}

// SaveAll writes every registered section through the store to disk.
func (m *Manager) SaveAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, section := range m.sections {
		if err := m.store.SetSection(id, section.Data()); err != nil {
			return fmt.Errorf("failed to stage config section %q: %w", id, err)
		}
	}
	return m.store.Save()
}

// Store returns the backing store.
func (m *Manager) Store() Store {
	return m.store
}
