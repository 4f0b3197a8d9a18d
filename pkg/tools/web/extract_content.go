package web

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"

	"github.com/entrhq/surf/pkg/retry"
	"github.com/entrhq/surf/pkg/tools"
)

// ExtractContentTool extracts content from the current page using a
// natural-language instruction and an optional JSON schema for the result.
type ExtractContentTool struct {
	ts *Toolset
}

// NewExtractContentTool creates a new extract content tool.
func NewExtractContentTool(ts *Toolset) *ExtractContentTool {
	return &ExtractContentTool{ts: ts}
}

// Name returns the tool name.
func (t *ExtractContentTool) Name() string {
	return "extract_content"
}

// Description returns the tool description.
func (t *ExtractContentTool) Description() string {
	return "Extract content from the current page using a natural-language instruction, e.g. 'list all product names and prices'. Provide a JSON schema to receive structured output."
}

// Schema returns the tool's JSON schema.
func (t *ExtractContentTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"session": map[string]interface{}{
				"type":        "string",
				"description": "Name of the browser session to use (defaults to the current session)",
			},
			"instruction": map[string]interface{}{
				"type":        "string",
				"description": "What to extract from the page, in natural language",
			},
			"schema": map[string]interface{}{
				"type":        "string",
				"description": "Optional: JSON schema the extracted result must match",
			},
		},
		[]string{"instruction"},
	)
}

type extractInput struct {
	XMLName     xml.Name `xml:"arguments"`
	Session     string   `xml:"session"`
	Instruction string   `xml:"instruction"`
	Schema      string   `xml:"schema"`
}

// Execute extracts content.
func (t *ExtractContentTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input extractInput
	if err := tools.UnmarshalXMLWithFallback(argsXML, &input); err != nil {
		return "", nil, fmt.Errorf("invalid parameters: %w", err)
	}
	if input.Instruction == "" {
		return "", nil, fmt.Errorf("instruction is required")
	}

	var schema map[string]interface{}
	if input.Schema != "" {
		if err := json.Unmarshal([]byte(input.Schema), &schema); err != nil {
			return "", nil, fmt.Errorf("schema is not valid JSON: %w", err)
		}
	}

	session, err := t.ts.session(input.Session)
	if err != nil {
		return "", nil, err
	}

	result, err := retry.Do(ctx, retry.ExtractionConfig(), fmt.Sprintf("extract: %s", input.Instruction), func(ctx context.Context) (string, error) {
		return session.Handle.Extract(ctx, input.Instruction, schema)
	})
	if err != nil {
		return "", nil, err
	}
	session.Touch()

	return result, nil, nil
}

// IsLoopBreaking returns whether this tool breaks the agent loop.
func (t *ExtractContentTool) IsLoopBreaking() bool {
	return false
}
