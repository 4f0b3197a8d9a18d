package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/surf/pkg/llm"
	"github.com/entrhq/surf/pkg/logging"
	"github.com/entrhq/surf/pkg/types"
)

// DefaultMaxPromptTokens bounds how much cleaned page HTML is handed to the
// provider for act/extract prompts.
const DefaultMaxPromptTokens = 12000

// pwHandle implements Handle on a playwright browser/context/page triple.
type pwHandle struct {
	browser  playwright.Browser
	context  playwright.BrowserContext
	page     playwright.Page
	provider llm.Provider
	timeout  float64
	logger   *logging.Logger
}

func (h *pwHandle) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	waitUntil := playwright.WaitUntilState("load")
	_, err := h.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: &waitUntil,
		Timeout:   &h.timeout,
	})
	if err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

func (h *pwHandle) WaitUntilLoaded(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	state := playwright.LoadState("networkidle")
	if err := h.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   &state,
		Timeout: &h.timeout,
	}); err != nil {
		return fmt.Errorf("wait for load failed: %w", err)
	}
	return nil
}

// actCommand is the structured command the provider returns for an Act call.
type actCommand struct {
	Action   string `json:"action"`
	Selector string `json:"selector"`
	Value    string `json:"value"`
	Reason   string `json:"reason"`
}

func (h *pwHandle) Act(ctx context.Context, instruction string) (string, error) {
	if h.provider == nil {
		return "", fmt.Errorf("act requires an LLM provider")
	}
	if strings.TrimSpace(instruction) == "" {
		return "", fmt.Errorf("act instruction is required")
	}

	pageHTML, err := h.cleanedPage()
	if err != nil {
		return "", err
	}

	prompt := buildActPrompt(h.page.URL(), instruction, pageHTML)
	response, err := h.provider.Complete(ctx, []*types.Message{
		types.NewSystemMessage(actSystemPrompt),
		types.NewUserMessage(prompt),
	})
	if err != nil {
		return "", fmt.Errorf("act planning failed: %w", err)
	}

	cmd, err := parseActCommand(response.Content)
	if err != nil {
		return "", err
	}

	result, err := h.dispatch(cmd)
	if err == nil {
		h.logger.Debugf("act %q: %s", instruction, result)
	}
	return result, err
}

// dispatch executes one planned page command.
func (h *pwHandle) dispatch(cmd actCommand) (string, error) {
	switch cmd.Action {
	case "click":
		if cmd.Selector == "" {
			return "", fmt.Errorf("act: click command missing selector")
		}
		if err := h.page.Click(cmd.Selector, playwright.PageClickOptions{Timeout: &h.timeout}); err != nil {
			return "", fmt.Errorf("click failed: %w", err)
		}
		return fmt.Sprintf("clicked %s", cmd.Selector), nil
	case "fill":
		if cmd.Selector == "" {
			return "", fmt.Errorf("act: fill command missing selector")
		}
		if err := h.page.Fill(cmd.Selector, cmd.Value, playwright.PageFillOptions{Timeout: &h.timeout}); err != nil {
			return "", fmt.Errorf("fill failed: %w", err)
		}
		return fmt.Sprintf("filled %s", cmd.Selector), nil
	case "press":
		if cmd.Value == "" {
			return "", fmt.Errorf("act: press command missing key")
		}
		if cmd.Selector != "" {
			if err := h.page.Press(cmd.Selector, cmd.Value); err != nil {
				return "", fmt.Errorf("press failed: %w", err)
			}
		} else if err := h.page.Keyboard().Press(cmd.Value); err != nil {
			return "", fmt.Errorf("press failed: %w", err)
		}
		return fmt.Sprintf("pressed %s", cmd.Value), nil
	case "none":
		return fmt.Sprintf("no action taken: %s", cmd.Reason), nil
	default:
		return "", fmt.Errorf("act: unsupported command %q", cmd.Action)
	}
}

func (h *pwHandle) Extract(ctx context.Context, instruction string, schema map[string]interface{}) (string, error) {
	if h.provider == nil {
		return "", fmt.Errorf("extract requires an LLM provider")
	}
	if strings.TrimSpace(instruction) == "" {
		return "", fmt.Errorf("extract instruction is required")
	}

	pageHTML, err := h.cleanedPage()
	if err != nil {
		return "", err
	}

	prompt, err := buildExtractPrompt(h.page.URL(), instruction, schema, pageHTML)
	if err != nil {
		return "", err
	}
	response, err := h.provider.Complete(ctx, []*types.Message{
		types.NewSystemMessage(extractSystemPrompt),
		types.NewUserMessage(prompt),
	})
	if err != nil {
		return "", fmt.Errorf("extraction failed: %w", err)
	}
	return strings.TrimSpace(response.Content), nil
}

// cleanedPage returns the current page HTML cleaned of noise and trimmed to
// the prompt token budget.
func (h *pwHandle) cleanedPage() (string, error) {
	raw, err := h.page.Content()
	if err != nil {
		return "", fmt.Errorf("failed to read page content: %w", err)
	}

	cleaned, err := cleanHTML(raw)
	if err != nil {
		return "", err
	}
	return truncateToTokens(cleaned.HTML, DefaultMaxPromptTokens), nil
}

func (h *pwHandle) URL() string {
	return h.page.URL()
}

func (h *pwHandle) Title() (string, error) {
	return h.page.Title()
}

func (h *pwHandle) Content() (string, error) {
	return h.page.Content()
}

func (h *pwHandle) Screenshot() ([]byte, error) {
	return h.page.Screenshot()
}

func (h *pwHandle) PDF() ([]byte, error) {
	return h.page.PDF()
}

func (h *pwHandle) Evaluate(expression string, arg ...interface{}) (interface{}, error) {
	return h.page.Evaluate(expression, arg...)
}

// Close tears down page, context, and browser in order. Each close is
// attempted even when an earlier one fails; the first error is returned.
func (h *pwHandle) Close() error {
	var firstErr error
	if err := h.page.Close(); err != nil {
		firstErr = err
	}
	if err := h.context.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := h.browser.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

const actSystemPrompt = `You translate a natural-language browser instruction into exactly one page command.
Respond with ONLY a JSON object, no prose and no code fences:
{"action": "click" | "fill" | "press" | "none", "selector": "<css selector>", "value": "<fill text or key name>", "reason": "<one sentence>"}
Use "none" when the instruction cannot be satisfied with a single command.`

const extractSystemPrompt = `You extract content from web pages. Follow the extraction instruction exactly.
When a JSON schema is given, respond with ONLY a JSON document matching it. Otherwise respond with plain text.`

func buildActPrompt(url, instruction, pageHTML string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Current URL: %s\n\n", url))
	b.WriteString(fmt.Sprintf("Instruction: %s\n\n", instruction))
	b.WriteString("Page HTML (cleaned, with targeting attributes):\n")
	b.WriteString(pageHTML)
	return b.String()
}

func buildExtractPrompt(url, instruction string, schema map[string]interface{}, pageHTML string) (string, error) {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Current URL: %s\n\n", url))
	b.WriteString(fmt.Sprintf("Extraction instruction: %s\n\n", instruction))

	if len(schema) > 0 {
		schemaJSON, err := json.MarshalIndent(schema, "", "  ")
		if err != nil {
			return "", fmt.Errorf("invalid extraction schema: %w", err)
		}
		b.WriteString("Result schema (JSON Schema):\n")
		b.Write(schemaJSON)
		b.WriteString("\n\n")
	}

	b.WriteString("Page HTML (cleaned):\n")
	b.WriteString(pageHTML)
	return b.String(), nil
}

// parseActCommand decodes the provider's command JSON, tolerating code
// fences some models insist on adding.
func parseActCommand(raw string) (actCommand, error) {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
		text = strings.TrimSpace(text)
	}

	var cmd actCommand
	if err := json.Unmarshal([]byte(text), &cmd); err != nil {
		return actCommand{}, fmt.Errorf("act: invalid command from provider: %w", err)
	}
	if cmd.Action == "" {
		return actCommand{}, fmt.Errorf("act: command missing action")
	}
	return cmd, nil
}
