package web

import (
	"context"
	"encoding/xml"
	"fmt"

	"github.com/entrhq/surf/pkg/retry"
	"github.com/entrhq/surf/pkg/tools"
)

// ActTool performs a natural-language action on the current page.
type ActTool struct {
	ts *Toolset
}

// NewActTool creates a new act tool.
func NewActTool(ts *Toolset) *ActTool {
	return &ActTool{ts: ts}
}

// Name returns the tool name.
func (t *ActTool) Name() string {
	return "act"
}

// Description returns the tool description.
func (t *ActTool) Description() string {
	return "Perform a single action on the page described in natural language, e.g. 'click the login button' or 'fill the email field with user@example.com'. Transient failures are retried."
}

// Schema returns the tool's JSON schema.
func (t *ActTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"session": map[string]interface{}{
				"type":        "string",
				"description": "Name of the browser session to use (defaults to the current session)",
			},
			"instruction": map[string]interface{}{
				"type":        "string",
				"description": "The action to perform, in natural language",
			},
		},
		[]string{"instruction"},
	)
}

type actInput struct {
	XMLName     xml.Name `xml:"arguments"`
	Session     string   `xml:"session"`
	Instruction string   `xml:"instruction"`
}

// Execute performs the action.
func (t *ActTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input actInput
	if err := tools.UnmarshalXMLWithFallback(argsXML, &input); err != nil {
		return "", nil, fmt.Errorf("invalid parameters: %w", err)
	}
	if input.Instruction == "" {
		return "", nil, fmt.Errorf("instruction is required")
	}

	session, err := t.ts.session(input.Session)
	if err != nil {
		return "", nil, err
	}

	result, err := retry.Do(ctx, retry.ActionConfig(), fmt.Sprintf("act: %s", input.Instruction), func(ctx context.Context) (string, error) {
		return session.Handle.Act(ctx, input.Instruction)
	})
	if err != nil {
		return "", nil, err
	}
	session.Touch()

	return fmt.Sprintf("Action completed: %s\nCurrent URL: %s", result, session.Handle.URL()), nil, nil
}

// IsLoopBreaking returns whether this tool breaks the agent loop.
func (t *ActTool) IsLoopBreaking() bool {
	return false
}
