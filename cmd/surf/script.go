package main

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/entrhq/surf/pkg/logging"
	"github.com/entrhq/surf/pkg/tools"
)

// Step is one tool invocation in a script.
type Step struct {
	// Tool is the tool name (e.g. "navigate").
	Tool string `yaml:"tool"`

	// Args are the tool's arguments.
	Args map[string]string `yaml:"args"`

	// Name is an optional label used in output and logs.
	Name string `yaml:"name"`
}

// Script is a sequential list of tool steps.
type Script struct {
	Steps []Step `yaml:"steps"`
}

// LoadScript reads and validates a YAML script file.
func LoadScript(path string) (*Script, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script %s: %w", path, err)
	}

	var script Script
	if err := yaml.Unmarshal(raw, &script); err != nil {
		return nil, fmt.Errorf("invalid script %s: %w", path, err)
	}

	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("script %s has no steps", path)
	}
	for i, step := range script.Steps {
		if step.Tool == "" {
			return nil, fmt.Errorf("script %s: step %d is missing a tool name", path, i+1)
		}
	}
	return &script, nil
}

// NeedsProvider reports whether any step requires the LLM provider.
func (s *Script) NeedsProvider() bool {
	for _, step := range s.Steps {
		if step.Tool == "act" || step.Tool == "extract_content" {
			return true
		}
	}
	return false
}

// RunScript executes the script steps in order against the given tools,
// stopping at the first failure.
func RunScript(ctx context.Context, script *Script, available []tools.Tool, logger *logging.Logger) error {
	byName := make(map[string]tools.Tool, len(available))
	for _, tool := range available {
		byName[tool.Name()] = tool
	}

	for i, step := range script.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}

		label := step.Name
		if label == "" {
			label = step.Tool
		}

		tool, ok := byName[step.Tool]
		if !ok {
			return fmt.Errorf("step %d (%s): unknown tool %q", i+1, label, step.Tool)
		}

		logger.Infof("step %d/%d: %s", i+1, len(script.Steps), label)
		fmt.Printf("==> step %d/%d: %s\n", i+1, len(script.Steps), label)

		result, _, err := tool.Execute(ctx, tools.MarshalArguments(step.Args))
		if err != nil {
			logger.Errorf("step %d (%s) failed: %v", i+1, label, err)
			return fmt.Errorf("step %d (%s): %w", i+1, label, err)
		}

		fmt.Println(result)
		fmt.Println()
	}

	logger.Infof("script finished: %d steps", len(script.Steps))
	return nil
}
