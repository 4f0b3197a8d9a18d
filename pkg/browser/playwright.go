package browser

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/surf/pkg/llm"
	"github.com/entrhq/surf/pkg/logging"
)

// Launcher owns the playwright runtime and builds session handles from it.
// One launcher backs one pool.
type Launcher struct {
	mu          sync.Mutex
	pw          *playwright.Playwright
	provider    llm.Provider
	opts        SessionOptions
	logger      *logging.Logger
	initialized bool
}

// NewLauncher creates a launcher. The provider backs the natural-language
// act/extract operations; it may be nil when only raw page operations are
// needed.
func NewLauncher(provider llm.Provider, opts SessionOptions, logger *logging.Logger) *Launcher {
	if opts.Viewport == nil {
		opts.Viewport = &Viewport{Width: DefaultViewportWidth, Height: DefaultViewportHeight}
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger, _ = logging.NewLogger("browser")
	}

	return &Launcher{
		provider: provider,
		opts:     opts,
		logger:   logger,
	}
}

// Start installs and runs the playwright driver. Must be called before
// Factory-created handles are used. Driver output is discarded so it cannot
// interleave with host output.
func (l *Launcher) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.initialized {
		return nil
	}

	runOpts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}
	if err := playwright.Install(runOpts); err != nil {
		return fmt.Errorf("failed to install playwright: %w", err)
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	l.pw = pw
	l.initialized = true
	return nil
}

// Stop shuts the playwright runtime down. Pooled sessions must be destroyed
// first.
func (l *Launcher) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.initialized || l.pw == nil {
		return nil
	}
	if err := l.pw.Stop(); err != nil {
		return fmt.Errorf("failed to stop playwright: %w", err)
	}
	l.initialized = false
	return nil
}

// Factory returns the session factory for this launcher.
func (l *Launcher) Factory() Factory {
	return func(ctx context.Context, id string) (Handle, error) {
		return l.newHandle(ctx, id)
	}
}

// newHandle launches a browser, context, and page for one session. Partial
// failures unwind what was already launched.
func (l *Launcher) newHandle(ctx context.Context, id string) (Handle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.initialized {
		return nil, fmt.Errorf("launcher not started")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	browser, err := l.pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: &l.opts.Headless,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browserCtx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  l.opts.Viewport.Width,
			Height: l.opts.Viewport.Height,
		},
	})
	if err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := browserCtx.NewPage()
	if err != nil {
		_ = browserCtx.Close()
		_ = browser.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	page.SetDefaultTimeout(l.opts.Timeout)

	l.logger.Debugf("launched handle for session %s (headless=%t)", id, l.opts.Headless)
	return &pwHandle{
		browser:  browser,
		context:  browserCtx,
		page:     page,
		provider: l.provider,
		timeout:  l.opts.Timeout,
		logger:   l.logger,
	}, nil
}
