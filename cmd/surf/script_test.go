package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/entrhq/surf/pkg/logging"
	"github.com/entrhq/surf/pkg/tools"
)

func writeScript(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return path
}

func TestLoadScript(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		path := writeScript(t, `
steps:
  - tool: start_session
    args: {session: main}
  - tool: navigate
    name: open homepage
    args:
      url: https://example.com
`)
		script, err := LoadScript(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(script.Steps) != 2 {
			t.Fatalf("expected 2 steps, got %d", len(script.Steps))
		}
		if script.Steps[1].Name != "open homepage" {
			t.Errorf("expected step name, got %q", script.Steps[1].Name)
		}
		if script.Steps[1].Args["url"] != "https://example.com" {
			t.Errorf("expected url arg, got %v", script.Steps[1].Args)
		}
	})

	t.Run("Empty", func(t *testing.T) {
		path := writeScript(t, "steps: []")
		if _, err := LoadScript(path); err == nil {
			t.Error("expected error for empty script")
		}
	})

	t.Run("MissingToolName", func(t *testing.T) {
		path := writeScript(t, "steps:\n  - args: {url: x}\n")
		if _, err := LoadScript(path); err == nil {
			t.Error("expected error for step without tool")
		}
	})

	t.Run("MissingFile", func(t *testing.T) {
		if _, err := LoadScript("/nonexistent/script.yaml"); err == nil {
			t.Error("expected error for missing file")
		}
	})
}

func TestScript_NeedsProvider(t *testing.T) {
	withAct := &Script{Steps: []Step{{Tool: "navigate"}, {Tool: "act"}}}
	if !withAct.NeedsProvider() {
		t.Error("act steps need the provider")
	}

	withoutAct := &Script{Steps: []Step{{Tool: "navigate"}, {Tool: "screenshot"}}}
	if withoutAct.NeedsProvider() {
		t.Error("navigation-only scripts should not need the provider")
	}
}

// recordingTool captures the arguments it was executed with.
type recordingTool struct {
	name     string
	received []string
	err      error
}

func (r *recordingTool) Name() string                       { return r.name }
func (r *recordingTool) Description() string                { return "test tool" }
func (r *recordingTool) Schema() map[string]interface{}     { return map[string]interface{}{} }
func (r *recordingTool) IsLoopBreaking() bool               { return false }
func (r *recordingTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	r.received = append(r.received, string(argsXML))
	return "ok", nil, r.err
}

func TestRunScript(t *testing.T) {
	logger, _ := logging.NewLogger("test")

	t.Run("RunsInOrder", func(t *testing.T) {
		first := &recordingTool{name: "first"}
		second := &recordingTool{name: "second"}
		script := &Script{Steps: []Step{
			{Tool: "first", Args: map[string]string{"key": "value"}},
			{Tool: "second"},
		}}

		err := RunScript(context.Background(), script, []tools.Tool{first, second}, logger)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(first.received) != 1 || len(second.received) != 1 {
			t.Fatalf("expected each tool to run once, got %d and %d", len(first.received), len(second.received))
		}
		if first.received[0] != "<arguments><key>value</key></arguments>" {
			t.Errorf("unexpected arguments XML: %s", first.received[0])
		}
	})

	t.Run("StopsOnFailure", func(t *testing.T) {
		failing := &recordingTool{name: "failing", err: fmt.Errorf("boom")}
		after := &recordingTool{name: "after"}
		script := &Script{Steps: []Step{{Tool: "failing"}, {Tool: "after"}}}

		err := RunScript(context.Background(), script, []tools.Tool{failing, after}, logger)
		if err == nil {
			t.Fatal("expected error")
		}
		if len(after.received) != 0 {
			t.Error("steps after a failure must not run")
		}
	})

	t.Run("UnknownTool", func(t *testing.T) {
		script := &Script{Steps: []Step{{Tool: "missing"}}}
		if err := RunScript(context.Background(), script, nil, logger); err == nil {
			t.Error("expected error for unknown tool")
		}
	})

	t.Run("CancelledContext", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		tool := &recordingTool{name: "first"}
		script := &Script{Steps: []Step{{Tool: "first"}}}
		if err := RunScript(ctx, script, []tools.Tool{tool}, logger); err == nil {
			t.Error("expected context error")
		}
		if len(tool.received) != 0 {
			t.Error("no steps should run after cancellation")
		}
	})
}
