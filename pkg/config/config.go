package config

import (
	"sync"
)

var (
	globalManager *Manager
	globalMu      sync.Mutex
)

// Initialize creates and loads the global configuration manager.
// This should be called once at application startup.
func Initialize(configPath string) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	store, err := NewFileStore(configPath)
	if err != nil {
		return err
	}

	manager := NewManager(store)
	for _, section := range []Section{
		NewBrowserSection(),
		NewCaptchaSection(),
		NewLLMSection(),
	} {
		if err := manager.RegisterSection(section); err != nil {
			return err
		}
	}

	if err := manager.LoadAll(); err != nil {
		return err
	}

	globalManager = manager
	return nil
}

// Global returns the global configuration manager.
// Panics if Initialize has not been called.
func Global() *Manager {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalManager == nil {
		panic("config not initialized: call config.Initialize first")
	}
	return globalManager
}

// IsInitialized reports whether Initialize has been called.
func IsInitialized() bool {
	globalMu.Lock()
	defer globalMu.Unlock()
	return globalManager != nil
}

// GetBrowser returns the browser section, or nil before initialization.
func GetBrowser() *BrowserSection {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalManager == nil {
		return nil
	}
	section, err := globalManager.GetSection(browserSectionID)
	if err != nil {
		return nil
	}
	return section.(*BrowserSection)
}

// GetCaptcha returns the captcha section, or nil before initialization.
func GetCaptcha() *CaptchaSection {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalManager == nil {
		return nil
	}
	section, err := globalManager.GetSection(captchaSectionID)
	if err != nil {
		return nil
	}
	return section.(*CaptchaSection)
}

// GetLLM returns the LLM section, or nil before initialization.
func GetLLM() *LLMSection {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalManager == nil {
		return nil
	}
	section, err := globalManager.GetSection(llmSectionID)
	if err != nil {
		return nil
	}
	return section.(*LLMSection)
}

// resetGlobal clears the global manager. Test helper.
func resetGlobal() {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalManager = nil
}
