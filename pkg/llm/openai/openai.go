// Package openai provides an OpenAI-compatible implementation of the llm
// Provider interface used for surf's natural-language page operations.
//
// Example usage:
//
//	provider, err := openai.NewProvider(
//	    os.Getenv("OPENAI_API_KEY"),
//	    openai.WithModel("gpt-4o"),
//	)
package openai

import (
	"context"
	"fmt"
	"os"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/entrhq/surf/pkg/types"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-4o"

	// DefaultMaxTokens is a conservative context budget for the default
	// model family.
	DefaultMaxTokens = 128000
)

// Provider implements llm.Provider on top of an OpenAI-compatible API.
type Provider struct {
	client    openaisdk.Client
	model     string
	baseURL   string
	maxTokens int
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithModel sets the model used for completions.
func WithModel(model string) ProviderOption {
	return func(p *Provider) {
		p.model = model
	}
}

// WithBaseURL points the provider at an OpenAI-compatible endpoint such as
// a gateway or a local model server.
func WithBaseURL(baseURL string) ProviderOption {
	return func(p *Provider) {
		p.baseURL = baseURL
	}
}

// NewProvider creates an OpenAI provider. An empty apiKey falls back to the
// OPENAI_API_KEY environment variable; the base URL falls back to
// OPENAI_BASE_URL when set.
func NewProvider(apiKey string, opts ...ProviderOption) (*Provider, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required (provide via parameter or OPENAI_API_KEY environment variable)")
	}

	p := &Provider{
		model:     DefaultModel,
		maxTokens: DefaultMaxTokens,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.baseURL == "" {
		p.baseURL = os.Getenv("OPENAI_BASE_URL")
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if p.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(p.baseURL))
	}
	p.client = openaisdk.NewClient(clientOpts...)

	return p, nil
}

// Complete sends the messages and returns the assistant's full response.
func (p *Provider) Complete(ctx context.Context, messages []*types.Message) (*types.Message, error) {
	params := openaisdk.ChatCompletionNewParams{
		Model:    openaisdk.ChatModel(p.model),
		Messages: toSDKMessages(messages),
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion: response contained no choices")
	}

	return types.NewAssistantMessage(resp.Choices[0].Message.Content), nil
}

// GetModel returns the configured model identifier.
func (p *Provider) GetModel() string {
	return p.model
}

// GetModelInfo returns metadata about the configured model.
func (p *Provider) GetModelInfo() *types.ModelInfo {
	return &types.ModelInfo{
		Name:      p.model,
		Provider:  "openai",
		MaxTokens: p.maxTokens,
	}
}

func toSDKMessages(messages []*types.Message) []openaisdk.ChatCompletionMessageParamUnion {
	out := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case types.RoleSystem:
			out = append(out, openaisdk.SystemMessage(msg.Content))
		case types.RoleAssistant:
			out = append(out, openaisdk.AssistantMessage(msg.Content))
		default:
			out = append(out, openaisdk.UserMessage(msg.Content))
		}
	}
	return out
}
