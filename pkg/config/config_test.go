package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInitialize(t *testing.T) {
	t.Run("FreshConfig", func(t *testing.T) {
		defer resetGlobal()
		path := filepath.Join(t.TempDir(), "config.json")

		if err := Initialize(path); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !IsInitialized() {
			t.Error("expected initialized state")
		}

		browser := GetBrowser()
		if browser == nil {
			t.Fatal("expected browser section")
		}
		if browser.GetPoolCapacity() != 3 {
			t.Errorf("expected default pool capacity 3, got %d", browser.GetPoolCapacity())
		}
		if !browser.GetHeadless() {
			t.Error("expected headless by default")
		}

		captchaSection := GetCaptcha()
		if captchaSection == nil {
			t.Fatal("expected captcha section")
		}
		if captchaSection.GetMaxPollAttempts() != 20 {
			t.Errorf("expected default max poll attempts 20, got %d", captchaSection.GetMaxPollAttempts())
		}
	})

	t.Run("ExistingConfig", func(t *testing.T) {
		defer resetGlobal()
		path := filepath.Join(t.TempDir(), "config.json")
		content := `{
			"browser": {
				"headless": false,
				"pool_capacity": 5,
				"allowed_domains": ["*.example.com"]
			},
			"captcha": {
				"api_key": "cap-key",
				"poll_interval_seconds": 5,
				"auto_solve": false
			},
			"llm": {
				"model": "gpt-4o-mini"
			}
		}`
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if err := Initialize(path); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		browser := GetBrowser()
		if browser.GetHeadless() {
			t.Error("expected headless disabled")
		}
		if browser.GetPoolCapacity() != 5 {
			t.Errorf("expected pool capacity 5, got %d", browser.GetPoolCapacity())
		}
		domains := browser.GetAllowedDomains()
		if len(domains) != 1 || domains[0] != "*.example.com" {
			t.Errorf("expected allowed domains [*.example.com], got %v", domains)
		}

		captchaSection := GetCaptcha()
		if captchaSection.GetAPIKey() != "cap-key" {
			t.Errorf("expected api key 'cap-key', got %q", captchaSection.GetAPIKey())
		}
		if captchaSection.GetPollIntervalSeconds() != 5 {
			t.Errorf("expected poll interval 5, got %d", captchaSection.GetPollIntervalSeconds())
		}
		if captchaSection.GetAutoSolve() {
			t.Error("expected auto_solve disabled")
		}

		if GetLLM().GetModel() != "gpt-4o-mini" {
			t.Errorf("expected model 'gpt-4o-mini', got %q", GetLLM().GetModel())
		}
	})

	t.Run("InvalidConfig", func(t *testing.T) {
		defer resetGlobal()
		path := filepath.Join(t.TempDir(), "config.json")
		content := `{"browser": {"pool_capacity": 0}}`
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if err := Initialize(path); err == nil {
			t.Error("expected error for invalid pool capacity")
		}
	})

	t.Run("MalformedJSON", func(t *testing.T) {
		defer resetGlobal()
		path := filepath.Join(t.TempDir(), "config.json")
		if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if err := Initialize(path); err == nil {
			t.Error("expected error for malformed config file")
		}
	})
}

func TestAccessorsBeforeInitialize(t *testing.T) {
	resetGlobal()

	if IsInitialized() {
		t.Error("expected uninitialized state")
	}
	if GetBrowser() != nil || GetCaptcha() != nil || GetLLM() != nil {
		t.Error("expected nil sections before initialization")
	}
}

func TestSaveAndReload(t *testing.T) {
	defer resetGlobal()
	path := filepath.Join(t.TempDir(), "config.json")

	if err := Initialize(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	GetLLM().SetModel("gpt-4o-mini")
	GetCaptcha().SetAPIKey("persisted-key")
	GetBrowser().SetAllowedDomains([]string{"example.com"})

	if err := Global().SaveAll(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resetGlobal()
	if err := Initialize(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if GetLLM().GetModel() != "gpt-4o-mini" {
		t.Errorf("expected persisted model, got %q", GetLLM().GetModel())
	}
	if GetCaptcha().GetAPIKey() != "persisted-key" {
		t.Errorf("expected persisted captcha key, got %q", GetCaptcha().GetAPIKey())
	}
	domains := GetBrowser().GetAllowedDomains()
	if len(domains) != 1 || domains[0] != "example.com" {
		t.Errorf("expected persisted domains, got %v", domains)
	}
}

func TestCaptchaSection_EnvOverride(t *testing.T) {
	defer resetGlobal()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := Initialize(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	GetCaptcha().SetAPIKey("stored-key")
	t.Setenv(APIKeyEnvVar, "env-key")

	if got := GetCaptcha().GetAPIKey(); got != "env-key" {
		t.Errorf("expected env var to win, got %q", got)
	}
}
