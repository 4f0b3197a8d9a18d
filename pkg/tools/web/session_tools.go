package web

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/entrhq/surf/pkg/tools"
)

// StartSessionTool creates a new pooled browser session.
type StartSessionTool struct {
	ts *Toolset
}

// NewStartSessionTool creates a new start session tool.
func NewStartSessionTool(ts *Toolset) *StartSessionTool {
	return &StartSessionTool{ts: ts}
}

// Name returns the tool name.
func (t *StartSessionTool) Name() string {
	return "start_session"
}

// Description returns the tool description.
func (t *StartSessionTool) Description() string {
	return "Start a new browser session. The session becomes the current one and is used by other browser tools. When the pool is full the oldest session is closed to make room."
}

// Schema returns the tool's JSON schema.
func (t *StartSessionTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"session": map[string]interface{}{
				"type":        "string",
				"description": "Name for the new session (e.g., 'main', 'checkout')",
			},
		},
		[]string{"session"},
	)
}

type startSessionInput struct {
	XMLName xml.Name `xml:"arguments"`
	Session string   `xml:"session"`
}

// Execute creates the session.
func (t *StartSessionTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input startSessionInput
	if err := tools.UnmarshalXMLWithFallback(argsXML, &input); err != nil {
		return "", nil, fmt.Errorf("invalid parameters: %w", err)
	}
	if input.Session == "" {
		return "", nil, fmt.Errorf("session name is required")
	}

	session, err := t.ts.pool.Create(ctx, input.Session)
	if err != nil {
		return "", nil, err
	}

	result := fmt.Sprintf("Started browser session %q (%d/%d sessions in use). It is now the current session.",
		session.ID, t.ts.pool.Size(), t.ts.pool.Capacity())
	return result, map[string]interface{}{"session": session.ID}, nil
}

// IsLoopBreaking returns whether this tool breaks the agent loop.
func (t *StartSessionTool) IsLoopBreaking() bool {
	return false
}

// ListSessionsTool lists the pooled browser sessions.
type ListSessionsTool struct {
	ts *Toolset
}

// NewListSessionsTool creates a new list sessions tool.
func NewListSessionsTool(ts *Toolset) *ListSessionsTool {
	return &ListSessionsTool{ts: ts}
}

// Name returns the tool name.
func (t *ListSessionsTool) Name() string {
	return "list_sessions"
}

// Description returns the tool description.
func (t *ListSessionsTool) Description() string {
	return "List all active browser sessions with their current URLs and ages."
}

// Schema returns the tool's JSON schema.
func (t *ListSessionsTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(map[string]interface{}{}, nil)
}

// Execute lists the sessions.
func (t *ListSessionsTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	sessions := t.ts.pool.List()
	if len(sessions) == 0 {
		return "No active browser sessions.", nil, nil
	}

	current := t.ts.pool.Current()

	var b strings.Builder
	fmt.Fprintf(&b, "Active browser sessions (%d/%d):\n", len(sessions), t.ts.pool.Capacity())
	for _, session := range sessions {
		marker := " "
		if current != nil && current.ID == session.ID {
			marker = "*"
		}
		fmt.Fprintf(&b, "%s %s - %s (created %s)\n",
			marker, session.ID, session.Handle.URL(), session.CreatedAt.Format(time.RFC3339))
	}
	b.WriteString("\n* marks the current session.")
	return b.String(), nil, nil
}

// IsLoopBreaking returns whether this tool breaks the agent loop.
func (t *ListSessionsTool) IsLoopBreaking() bool {
	return false
}

// CloseSessionTool destroys a pooled browser session.
type CloseSessionTool struct {
	ts *Toolset
}

// NewCloseSessionTool creates a new close session tool.
func NewCloseSessionTool(ts *Toolset) *CloseSessionTool {
	return &CloseSessionTool{ts: ts}
}

// Name returns the tool name.
func (t *CloseSessionTool) Name() string {
	return "close_session"
}

// Description returns the tool description.
func (t *CloseSessionTool) Description() string {
	return "Close a browser session and release its resources. Closing an already-closed session is not an error."
}

// Schema returns the tool's JSON schema.
func (t *CloseSessionTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"session": map[string]interface{}{
				"type":        "string",
				"description": "Name of the session to close",
			},
		},
		[]string{"session"},
	)
}

type closeSessionInput struct {
	XMLName xml.Name `xml:"arguments"`
	Session string   `xml:"session"`
}

// Execute closes the session.
func (t *CloseSessionTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input closeSessionInput
	if err := tools.UnmarshalXMLWithFallback(argsXML, &input); err != nil {
		return "", nil, fmt.Errorf("invalid parameters: %w", err)
	}
	if input.Session == "" {
		return "", nil, fmt.Errorf("session name is required")
	}

	t.ts.pool.Destroy(input.Session)
	return fmt.Sprintf("Closed browser session %q (%d sessions remain).", input.Session, t.ts.pool.Size()), nil, nil
}

// IsLoopBreaking returns whether this tool breaks the agent loop.
func (t *CloseSessionTool) IsLoopBreaking() bool {
	return false
}
