package config

import (
	"fmt"
	"os"
	"time"

	"github.com/entrhq/surf/pkg/captcha"
	"github.com/entrhq/surf/pkg/llm/openai"
)

// BuildProvider creates an LLM provider based on configuration precedence:
// CLI flags > Environment variables > Config file > Defaults
func BuildProvider(cliModel, cliBaseURL, cliAPIKey string) (*openai.Provider, error) {
	model := cliModel
	baseURL := cliBaseURL
	apiKey := cliAPIKey

	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if baseURL == "" {
		baseURL = os.Getenv("OPENAI_BASE_URL")
	}

	if llmSection := GetLLM(); llmSection != nil {
		if model == "" {
			model = llmSection.GetModel()
		}
		if baseURL == "" {
			baseURL = llmSection.GetBaseURL()
		}
		if apiKey == "" {
			apiKey = llmSection.GetAPIKey()
		}
	}

	if model == "" {
		model = openai.DefaultModel
	}
	if apiKey == "" {
		return nil, fmt.Errorf("LLM API key is required: set OPENAI_API_KEY, pass -api-key, or configure it in ~/.surf/config.json")
	}

	opts := []openai.ProviderOption{openai.WithModel(model)}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}

	provider, err := openai.NewProvider(apiKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM provider: %w", err)
	}
	return provider, nil
}

// BuildCaptchaClient creates a captcha solving client from the captcha
// section. Returns (nil, nil) when no API key is configured: captcha solving
// is optional and tools degrade to reporting unsolved captchas.
func BuildCaptchaClient() (*captcha.Client, error) {
	section := GetCaptcha()
	if section == nil {
		return nil, nil
	}

	apiKey := section.GetAPIKey()
	if apiKey == "" {
		return nil, nil
	}

	opts := []captcha.ClientOption{
		captcha.WithPollInterval(time.Duration(section.GetPollIntervalSeconds()) * time.Second),
		captcha.WithMaxPollAttempts(section.GetMaxPollAttempts()),
	}
	if baseURL := section.GetBaseURL(); baseURL != "" {
		opts = append(opts, captcha.WithBaseURL(baseURL))
	}

	client, err := captcha.NewClient(apiKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create captcha client: %w", err)
	}
	return client, nil
}
