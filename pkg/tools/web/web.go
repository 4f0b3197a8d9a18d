// Package web exposes browser automation as agent tools: session lifecycle,
// resilient navigation, natural-language page actions and extraction, and
// captcha solving.
package web

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/gobwas/glob"

	"github.com/entrhq/surf/pkg/browser"
	"github.com/entrhq/surf/pkg/captcha"
	"github.com/entrhq/surf/pkg/logging"
	"github.com/entrhq/surf/pkg/tools"
)

// Options configures toolset behavior shared across tools.
type Options struct {
	// AllowedDomains restricts navigation to hosts matching these glob
	// patterns (e.g. "*.example.com"). Empty means no restriction.
	AllowedDomains []string

	// AutoSolve enables automatic captcha detection and solving after
	// navigation. Requires a solver client.
	AutoSolve bool

	// ProxyString is an optional "host:port[:user:pass]" proxy handed to
	// the captcha service for proxied task types.
	ProxyString string
}

// Toolset owns the dependencies shared by the web tools. One toolset backs
// one session pool.
type Toolset struct {
	pool      *browser.Pool
	solver    *captcha.Client
	logger    *logging.Logger
	allowed   []glob.Glob
	patterns  []string
	autoSolve bool
	proxy     string
}

// NewToolset builds a toolset over a session pool. The solver may be nil
// when captcha solving is not configured; the solve_captcha tool then
// reports the missing configuration instead of failing silently.
func NewToolset(pool *browser.Pool, solver *captcha.Client, opts Options, logger *logging.Logger) (*Toolset, error) {
	if pool == nil {
		return nil, fmt.Errorf("web toolset: session pool is required")
	}
	if logger == nil {
		logger, _ = logging.NewLogger("web-tools")
	}

	ts := &Toolset{
		pool:      pool,
		solver:    solver,
		logger:    logger,
		patterns:  opts.AllowedDomains,
		autoSolve: opts.AutoSolve,
		proxy:     opts.ProxyString,
	}

	for _, pattern := range opts.AllowedDomains {
		compiled, err := glob.Compile(strings.ToLower(pattern), '.')
		if err != nil {
			return nil, fmt.Errorf("web toolset: invalid allowed domain pattern %q: %w", pattern, err)
		}
		ts.allowed = append(ts.allowed, compiled)
	}

	return ts, nil
}

// Tools returns the full web tool suite for host registration.
func (ts *Toolset) Tools() []tools.Tool {
	return []tools.Tool{
		NewStartSessionTool(ts),
		NewListSessionsTool(ts),
		NewCloseSessionTool(ts),
		NewNavigateTool(ts),
		NewActTool(ts),
		NewExtractContentTool(ts),
		NewScreenshotTool(ts),
		NewSavePDFTool(ts),
		NewSolveCaptchaTool(ts),
	}
}

// session resolves a session by name, falling back to the current session
// when the name is empty.
func (ts *Toolset) session(name string) (*browser.Session, error) {
	if name != "" {
		return ts.pool.Get(name)
	}
	if current := ts.pool.Current(); current != nil {
		return current, nil
	}
	return nil, fmt.Errorf("no active browser session; use start_session first")
}

// checkURLAllowed rejects URLs whose host falls outside the configured
// domain allowlist.
func (ts *Toolset) checkURLAllowed(rawURL string) error {
	if len(ts.allowed) == 0 {
		return nil
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return fmt.Errorf("URL %q has no host", rawURL)
	}

	for _, pattern := range ts.allowed {
		if pattern.Match(host) {
			return nil
		}
	}
	return fmt.Errorf("navigation to %q blocked: host %s is not in the allowed domains %v", rawURL, host, ts.patterns)
}

// detectAndSolveCaptcha inspects the session's page for a captcha widget
// and, when one is found and a solver is configured, solves and injects the
// token. Returns a human-readable note about what happened; an empty string
// means the page is clean.
func (ts *Toolset) detectAndSolveCaptcha(ctx context.Context, session *browser.Session) (string, error) {
	content, err := session.Handle.Content()
	if err != nil {
		return "", fmt.Errorf("failed to read page for captcha detection: %w", err)
	}

	desc, err := captcha.Detect(content)
	if err != nil {
		return "", err
	}
	if desc.Variant == captcha.VariantNone {
		return "", nil
	}

	ts.logger.Infof("detected %s captcha on %s (site key %s)", desc.Variant, session.Handle.URL(), desc.SiteKey)

	if ts.solver == nil {
		return fmt.Sprintf("Warning: detected a %s captcha but no captcha service is configured.", desc.Variant), nil
	}

	token, err := ts.solver.SolveDetected(ctx, desc, session.Handle.URL(), captcha.SolveOptions{ProxyString: ts.proxy})
	if err != nil {
		return "", fmt.Errorf("captcha solve failed: %w", err)
	}

	if err := captcha.Inject(session.Handle, desc.Variant, token); err != nil {
		return "", fmt.Errorf("captcha token injection failed: %w", err)
	}

	ts.logger.Infof("solved %s captcha on %s", desc.Variant, session.Handle.URL())
	return fmt.Sprintf("A %s captcha was detected, solved, and its token injected into the page.", desc.Variant), nil
}
