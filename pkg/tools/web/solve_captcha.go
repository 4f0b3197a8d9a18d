package web

import (
	"context"
	"encoding/xml"
	"fmt"

	"github.com/entrhq/surf/pkg/tools"
)

// SolveCaptchaTool explicitly detects and solves a captcha on the current
// page. Useful when a captcha appears after navigation, e.g. mid-form.
type SolveCaptchaTool struct {
	ts *Toolset
}

// NewSolveCaptchaTool creates a new solve captcha tool.
func NewSolveCaptchaTool(ts *Toolset) *SolveCaptchaTool {
	return &SolveCaptchaTool{ts: ts}
}

// Name returns the tool name.
func (t *SolveCaptchaTool) Name() string {
	return "solve_captcha"
}

// Description returns the tool description.
func (t *SolveCaptchaTool) Description() string {
	return "Detect a captcha on the current page, solve it through the configured captcha service, and inject the token so the page can be submitted."
}

// Schema returns the tool's JSON schema.
func (t *SolveCaptchaTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"session": map[string]interface{}{
				"type":        "string",
				"description": "Name of the browser session to use (defaults to the current session)",
			},
		},
		nil,
	)
}

type solveCaptchaInput struct {
	XMLName xml.Name `xml:"arguments"`
	Session string   `xml:"session"`
}

// Execute detects and solves.
func (t *SolveCaptchaTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input solveCaptchaInput
	if err := tools.UnmarshalXMLWithFallback(argsXML, &input); err != nil {
		return "", nil, fmt.Errorf("invalid parameters: %w", err)
	}

	if t.ts.solver == nil {
		return "", nil, fmt.Errorf("no captcha service configured; set the captcha API key")
	}

	session, err := t.ts.session(input.Session)
	if err != nil {
		return "", nil, err
	}

	note, err := t.ts.detectAndSolveCaptcha(ctx, session)
	if err != nil {
		return "", nil, err
	}
	if note == "" {
		return "No captcha detected on the current page.", nil, nil
	}
	session.Touch()
	return note, nil, nil
}

// IsLoopBreaking returns whether this tool breaks the agent loop.
func (t *SolveCaptchaTool) IsLoopBreaking() bool {
	return false
}
