package web

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/entrhq/surf/pkg/tools"
)

// ScreenshotTool captures the current page as a PNG file.
type ScreenshotTool struct {
	ts *Toolset
}

// NewScreenshotTool creates a new screenshot tool.
func NewScreenshotTool(ts *Toolset) *ScreenshotTool {
	return &ScreenshotTool{ts: ts}
}

// Name returns the tool name.
func (t *ScreenshotTool) Name() string {
	return "screenshot"
}

// Description returns the tool description.
func (t *ScreenshotTool) Description() string {
	return "Capture a screenshot of the current page and save it as a PNG file. Returns the file path."
}

// Schema returns the tool's JSON schema.
func (t *ScreenshotTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"session": map[string]interface{}{
				"type":        "string",
				"description": "Name of the browser session to use (defaults to the current session)",
			},
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Optional: file path to write the PNG to (defaults to a temp file)",
			},
		},
		nil,
	)
}

type screenshotInput struct {
	XMLName xml.Name `xml:"arguments"`
	Session string   `xml:"session"`
	Path    string   `xml:"path"`
}

// Execute captures the screenshot.
func (t *ScreenshotTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input screenshotInput
	if err := tools.UnmarshalXMLWithFallback(argsXML, &input); err != nil {
		return "", nil, fmt.Errorf("invalid parameters: %w", err)
	}

	session, err := t.ts.session(input.Session)
	if err != nil {
		return "", nil, err
	}

	data, err := session.Handle.Screenshot()
	if err != nil {
		return "", nil, fmt.Errorf("screenshot failed: %w", err)
	}

	path := input.Path
	if path == "" {
		path = filepath.Join(os.TempDir(), fmt.Sprintf("surf-%s-%d.png", session.ID, time.Now().UnixMilli()))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", nil, fmt.Errorf("failed to write screenshot: %w", err)
	}
	session.Touch()

	return fmt.Sprintf("Screenshot saved to %s (%d bytes).", path, len(data)),
		map[string]interface{}{"path": path, "bytes": len(data)}, nil
}

// IsLoopBreaking returns whether this tool breaks the agent loop.
func (t *ScreenshotTool) IsLoopBreaking() bool {
	return false
}

// SavePDFTool renders the current page to a validated PDF file.
type SavePDFTool struct {
	ts *Toolset
}

// NewSavePDFTool creates a new save PDF tool.
func NewSavePDFTool(ts *Toolset) *SavePDFTool {
	return &SavePDFTool{ts: ts}
}

// Name returns the tool name.
func (t *SavePDFTool) Name() string {
	return "save_pdf"
}

// Description returns the tool description.
func (t *SavePDFTool) Description() string {
	return "Render the current page to a PDF file. The document is validated before it is written, so a corrupt render fails instead of producing a broken file. Only works in headless mode."
}

// Schema returns the tool's JSON schema.
func (t *SavePDFTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"session": map[string]interface{}{
				"type":        "string",
				"description": "Name of the browser session to use (defaults to the current session)",
			},
			"path": map[string]interface{}{
				"type":        "string",
				"description": "File path to write the PDF to",
			},
		},
		[]string{"path"},
	)
}

type savePDFInput struct {
	XMLName xml.Name `xml:"arguments"`
	Session string   `xml:"session"`
	Path    string   `xml:"path"`
}

// Execute renders and writes the PDF.
func (t *SavePDFTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input savePDFInput
	if err := tools.UnmarshalXMLWithFallback(argsXML, &input); err != nil {
		return "", nil, fmt.Errorf("invalid parameters: %w", err)
	}
	if input.Path == "" {
		return "", nil, fmt.Errorf("path is required")
	}

	session, err := t.ts.session(input.Session)
	if err != nil {
		return "", nil, err
	}

	data, err := session.Handle.PDF()
	if err != nil {
		return "", nil, fmt.Errorf("PDF render failed: %w", err)
	}

	if err := api.Validate(bytes.NewReader(data), nil); err != nil {
		return "", nil, fmt.Errorf("rendered PDF failed validation: %w", err)
	}

	if err := os.WriteFile(input.Path, data, 0o644); err != nil {
		return "", nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	session.Touch()

	return fmt.Sprintf("PDF saved to %s (%d bytes).", input.Path, len(data)),
		map[string]interface{}{"path": input.Path, "bytes": len(data)}, nil
}

// IsLoopBreaking returns whether this tool breaks the agent loop.
func (t *SavePDFTool) IsLoopBreaking() bool {
	return false
}
