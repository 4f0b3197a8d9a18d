package web

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/entrhq/surf/pkg/retry"
	"github.com/entrhq/surf/pkg/tools"
)

// NavigateTool navigates a browser session to a URL with transient-failure
// retries and optional automatic captcha handling.
type NavigateTool struct {
	ts *Toolset
}

// NewNavigateTool creates a new navigate tool.
func NewNavigateTool(ts *Toolset) *NavigateTool {
	return &NavigateTool{ts: ts}
}

// Name returns the tool name.
func (t *NavigateTool) Name() string {
	return "navigate"
}

// Description returns the tool description.
func (t *NavigateTool) Description() string {
	return "Navigate to a URL in a browser session and wait for the page to settle. Transient network failures are retried with backoff. Captchas found on the landing page are solved automatically when a captcha service is configured."
}

// Schema returns the tool's JSON schema.
func (t *NavigateTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"session": map[string]interface{}{
				"type":        "string",
				"description": "Name of the browser session to use (defaults to the current session)",
			},
			"url": map[string]interface{}{
				"type":        "string",
				"description": "URL to navigate to (must include protocol, e.g., https://example.com)",
			},
		},
		[]string{"url"},
	)
}

type navigateInput struct {
	XMLName xml.Name `xml:"arguments"`
	Session string   `xml:"session"`
	URL     string   `xml:"url"`
}

// Execute navigates to the URL.
func (t *NavigateTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input navigateInput
	if err := tools.UnmarshalXMLWithFallback(argsXML, &input); err != nil {
		return "", nil, fmt.Errorf("invalid parameters: %w", err)
	}
	if input.URL == "" {
		return "", nil, fmt.Errorf("URL is required")
	}
	if !strings.HasPrefix(input.URL, "http://") && !strings.HasPrefix(input.URL, "https://") {
		return "", nil, fmt.Errorf("URL must include a protocol (http:// or https://): %s", input.URL)
	}

	if err := t.ts.checkURLAllowed(input.URL); err != nil {
		return "", nil, err
	}

	session, err := t.ts.session(input.Session)
	if err != nil {
		return "", nil, err
	}

	err = retry.Run(ctx, retry.NavigationConfig(), fmt.Sprintf("navigate to %s", input.URL), func(ctx context.Context) error {
		if err := session.Handle.Navigate(ctx, input.URL); err != nil {
			return err
		}
		return session.Handle.WaitUntilLoaded(ctx)
	})
	if err != nil {
		return "", nil, err
	}
	session.Touch()

	title, err := session.Handle.Title()
	if err != nil {
		title = "Unknown"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Navigation successful\n\n- URL: %s\n- Title: %s\n- Session: %s\n", session.Handle.URL(), title, session.ID)

	if t.ts.autoSolve {
		note, solveErr := t.ts.detectAndSolveCaptcha(ctx, session)
		if solveErr != nil {
			fmt.Fprintf(&b, "\nWarning: %v\n", solveErr)
		} else if note != "" {
			fmt.Fprintf(&b, "\n%s\n", note)
		}
	}

	b.WriteString("\nThe page is ready for interaction.")
	return b.String(), map[string]interface{}{"url": session.Handle.URL(), "title": title}, nil
}

// IsLoopBreaking returns whether this tool breaks the agent loop.
func (t *NavigateTool) IsLoopBreaking() bool {
	return false
}
