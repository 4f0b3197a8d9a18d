// Package llm defines the provider abstraction behind surf's
// natural-language page operations (act and extract).
package llm

import (
	"context"

	"github.com/entrhq/surf/pkg/types"
)

// Provider is the interface surf uses for LLM completions.
type Provider interface {
	// Complete sends the messages and returns the full assistant response.
	Complete(ctx context.Context, messages []*types.Message) (*types.Message, error)

	// GetModel returns the model identifier in use.
	GetModel() string

	// GetModelInfo returns metadata about the underlying model.
	GetModelInfo() *types.ModelInfo
}
