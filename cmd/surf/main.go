// Package main provides the surf headless script runner: it executes a YAML
// script of browser tool steps against a pooled, captcha-aware browser
// runtime, for CI jobs and scheduled automation.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/entrhq/surf/pkg/browser"
	appconfig "github.com/entrhq/surf/pkg/config"
	"github.com/entrhq/surf/pkg/llm"
	"github.com/entrhq/surf/pkg/logging"
	"github.com/entrhq/surf/pkg/tools/web"
)

const version = "0.1.0"

// CLIConfig holds command-line configuration
type CLIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	ConfigFile  string
	ScriptFile  string
	Headless    bool
	Timeout     time.Duration
	ShowVersion bool
}

func main() {
	config := parseFlags()

	if config.ShowVersion {
		fmt.Printf("surf v%s\n", version)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n\nShutting down gracefully...")
		cancel()
	}()

	if err := run(ctx, config); err != nil {
		cancel()
		log.Printf("Execution failed: %v", err)
		os.Exit(1)
	}
	cancel()
}

// parseFlags parses command line flags
func parseFlags() *CLIConfig {
	config := &CLIConfig{}

	flag.StringVar(&config.APIKey, "api-key", "", "LLM API key (defaults to OPENAI_API_KEY)")
	flag.StringVar(&config.BaseURL, "base-url", "", "LLM API base URL (defaults to OPENAI_BASE_URL)")
	flag.StringVar(&config.Model, "model", "", "LLM model for act/extract steps")
	flag.StringVar(&config.ConfigFile, "config", "", "Path to configuration file (defaults to ~/.surf/config.json)")
	flag.StringVar(&config.ScriptFile, "script", "", "Path to the YAML script to run (required)")
	flag.BoolVar(&config.Headless, "headless", true, "Run browsers headless")
	flag.DurationVar(&config.Timeout, "timeout", 10*time.Minute, "Script execution timeout")
	flag.BoolVar(&config.ShowVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "surf - headless browser automation runner\n\n")
		fmt.Fprintf(os.Stderr, "Usage: surf -script <file> [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExample script:\n")
		fmt.Fprintf(os.Stderr, "  steps:\n")
		fmt.Fprintf(os.Stderr, "    - tool: start_session\n")
		fmt.Fprintf(os.Stderr, "      args: {session: main}\n")
		fmt.Fprintf(os.Stderr, "    - tool: navigate\n")
		fmt.Fprintf(os.Stderr, "      args: {url: https://example.com}\n")
		fmt.Fprintf(os.Stderr, "    - tool: screenshot\n")
		fmt.Fprintf(os.Stderr, "      args: {path: example.png}\n")
	}

	flag.Parse()
	return config
}

// run wires the runtime together and executes the script.
func run(ctx context.Context, cli *CLIConfig) error {
	if cli.ScriptFile == "" {
		flag.Usage()
		return fmt.Errorf("-script is required")
	}

	script, err := LoadScript(cli.ScriptFile)
	if err != nil {
		return err
	}

	if err := appconfig.Initialize(cli.ConfigFile); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	// A failed file logger falls back to stderr; the run continues.
	logger, _ := logging.NewLogger("surf")
	defer func() { _ = logger.Close() }()

	// The LLM provider is only needed for act/extract steps; scripts that
	// never reach for it can run without an API key.
	var provider llm.Provider
	if script.NeedsProvider() {
		built, err := appconfig.BuildProvider(cli.Model, cli.BaseURL, cli.APIKey)
		if err != nil {
			return err
		}
		provider = built
	}

	solver, err := appconfig.BuildCaptchaClient()
	if err != nil {
		return err
	}
	if solver == nil {
		logger.Warnf("no captcha API key configured, captcha solving disabled")
	}

	browserCfg := appconfig.GetBrowser()
	width, height := browserCfg.GetViewport()
	launcher := browser.NewLauncher(provider, browser.SessionOptions{
		Headless: cli.Headless && browserCfg.GetHeadless(),
		Viewport: &browser.Viewport{Width: width, Height: height},
	}, logger)
	if err := launcher.Start(); err != nil {
		return err
	}
	defer func() { _ = launcher.Stop() }()

	pool, err := browser.NewPool(browserCfg.GetPoolCapacity(), launcher.Factory(), logger)
	if err != nil {
		return err
	}
	defer pool.DestroyAll()

	captchaCfg := appconfig.GetCaptcha()
	toolset, err := web.NewToolset(pool, solver, web.Options{
		AllowedDomains: browserCfg.GetAllowedDomains(),
		AutoSolve:      captchaCfg.GetAutoSolve(),
		ProxyString:    captchaCfg.GetProxy(),
	}, logger)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithTimeout(ctx, cli.Timeout)
	defer cancel()

	return RunScript(runCtx, script, toolset.Tools(), logger)
}
