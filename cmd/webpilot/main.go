// Package main provides the webpilot test runner: natural-language
// browser test definitions are planned through an LLM and executed
// against a local Playwright tool provider, producing JSON and HTML
// reports.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	appconfig "github.com/relaihq/webpilot/pkg/config"
	"github.com/relaihq/webpilot/pkg/engine"
	"github.com/relaihq/webpilot/pkg/llm/openai"
	"github.com/relaihq/webpilot/pkg/loader"
	"github.com/relaihq/webpilot/pkg/logging"
	"github.com/relaihq/webpilot/pkg/planner"
	"github.com/relaihq/webpilot/pkg/provider"
	"github.com/relaihq/webpilot/pkg/provider/browser"
	"github.com/relaihq/webpilot/pkg/report"
	"github.com/relaihq/webpilot/pkg/types"
)

const version = "0.1.0"

// CLIConfig holds command-line configuration
type CLIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	ConfigFile  string
	OutputDir   string
	Headed      bool
	StepTimeout time.Duration
	ShowVersion bool
	Target      string
}

func main() {
	cli := parseFlags()

	if cli.ShowVersion {
		fmt.Printf("webpilot v%s\n", version)
		return
	}

	if cli.Target == "" {
		fmt.Fprintln(os.Stderr, "Usage: webpilot [flags] <test-file-or-directory>")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Create context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n\nShutting down gracefully...")
		cancel()
	}()

	ok, err := run(ctx, cli)
	cancel()
	if err != nil {
		log.Printf("Run failed: %v", err)
		os.Exit(1)
	}
	if !ok {
		os.Exit(1)
	}
}

// parseFlags parses command line flags
func parseFlags() *CLIConfig {
	cli := &CLIConfig{}

	flag.StringVar(&cli.APIKey, "api-key", os.Getenv("OPENAI_API_KEY"), "OpenAI API key")
	flag.StringVar(&cli.BaseURL, "base-url", os.Getenv("OPENAI_BASE_URL"), "OpenAI API base URL")
	flag.StringVar(&cli.Model, "model", "", "LLM model used for planning")
	flag.StringVar(&cli.ConfigFile, "config", "", "Path to configuration file (YAML)")
	flag.StringVar(&cli.OutputDir, "output", "", "Output directory for reports and screenshots")
	flag.BoolVar(&cli.Headed, "headed", false, "Run the browser with a visible window")
	flag.DurationVar(&cli.StepTimeout, "step-timeout", 0, "Per-step invocation timeout (0 = unbounded)")
	flag.BoolVar(&cli.ShowVersion, "version", false, "Show version and exit")
	flag.Parse()

	cli.Target = flag.Arg(0)
	return cli
}

// buildConfig merges the config file with command-line overrides.
func buildConfig(cli *CLIConfig) (*appconfig.Config, error) {
	cfg := appconfig.Default()
	if cli.ConfigFile != "" {
		loaded, err := appconfig.Load(cli.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if cli.Model != "" {
		cfg.LLM.Model = cli.Model
	}
	if cli.APIKey != "" {
		cfg.LLM.APIKey = cli.APIKey
	}
	if cli.BaseURL != "" {
		cfg.LLM.BaseURL = cli.BaseURL
	}
	if cli.OutputDir != "" {
		cfg.Report.OutputDir = cli.OutputDir
	}
	if cli.Headed {
		cfg.Browser.Headless = false
	}
	if cli.StepTimeout > 0 {
		cfg.Browser.StepTimeout = appconfig.Duration(cli.StepTimeout)
	}

	return cfg, cfg.Validate()
}

// run executes every test in the batch. Returns whether all tests
// passed; an error indicates a fatal setup failure.
func run(ctx context.Context, cli *CLIConfig) (bool, error) {
	sessionLog, _ := logging.NewLogger("runner")
	defer sessionLog.Close()

	cfg, err := buildConfig(cli)
	if err != nil {
		return false, err
	}

	l, err := loader.New(cfg.Loader.Patterns)
	if err != nil {
		return false, err
	}

	defs, err := l.Load(cli.Target)
	if err != nil {
		return false, err
	}

	llmProvider, err := openai.NewProvider(cfg.LLM.APIKey,
		openai.WithModel(cfg.LLM.Model),
		openai.WithBaseURL(cfg.LLM.BaseURL),
	)
	if err != nil {
		return false, err
	}

	screenshotsDir := filepath.Join(cfg.Report.OutputDir, "screenshots")
	writer := report.NewWriter(cfg.Report.OutputDir)
	start := time.Now()

	fmt.Printf("webpilot v%s - %d test(s), model %s\n\n", version, len(defs), llmProvider.GetModel())
	sessionLog.Infof("Batch started: %d tests, model %s, session %s",
		len(defs), llmProvider.GetModel(), sessionLog.SessionID())

	reports := make([]types.TestReport, 0, len(defs))
	for _, def := range defs {
		if ctx.Err() != nil {
			return false, fmt.Errorf("run interrupted: %w", ctx.Err())
		}

		rep := runTest(ctx, cfg, llmProvider, def, screenshotsDir, sessionLog)
		reports = append(reports, *rep)

		if _, err := writer.WriteTest(rep); err != nil {
			sessionLog.Warnf("Failed to write report for %q: %v", def.Name, err)
		}

		fmt.Printf("  %-40s %s (%d/%d actions passed, %d ms)\n",
			def.Name, rep.Result, rep.PassedActions, rep.TotalActions, rep.DurationMS)
	}

	summary := report.Summarize(start, reports)
	if _, err := writer.WriteSummary(summary); err != nil {
		sessionLog.Warnf("Failed to write suite summary: %v", err)
	}

	fmt.Printf("\n%d passed, %d failed, %d total - reports in %s\n",
		summary.PassedTests, summary.FailedTests, summary.TotalTests, cfg.Report.OutputDir)

	return summary.AllPassed(), nil
}

// runTest executes one test with a freshly constructed engine and an
// exclusively-owned provider connection. Fatal per-test errors surface
// as a failed report rather than stopping the batch.
func runTest(ctx context.Context, cfg *appconfig.Config, llmProvider *openai.Provider, def types.TestDefinition, screenshotsDir string, sessionLog *logging.Logger) *types.TestReport {
	prov, err := browser.New(browser.Options{
		Headless:       cfg.Browser.Headless,
		ScreenshotsDir: screenshotsDir,
		ViewportWidth:  cfg.Browser.ViewportWidth,
		ViewportHeight: cfg.Browser.ViewportHeight,
	})
	if err != nil {
		sessionLog.Errorf("Test %q aborted: browser provider failed to start: %v", def.Name, err)
		return abortedReport(def, err)
	}

	pl := planner.New(llmProvider)
	defer pl.Close()

	// Screenshot files land in <output>/screenshots; reports reference
	// them relative to the report directory so HTML links resolve.
	eng := engine.New(pl, prov, engine.Config{
		ScreenshotsDir: "screenshots",
		StepTimeout:    cfg.Browser.StepTimeout.Std(),
	})

	rep, err := eng.Run(ctx, def)
	if err != nil {
		// Aborted run: the report exists but carries zero actions
		var connErr *provider.ConnectionError
		var parseErr *planner.ParseError
		switch {
		case errors.As(err, &connErr):
			sessionLog.Errorf("Test %q aborted: provider connection failed: %v", def.Name, connErr.Err)
		case errors.As(err, &parseErr):
			sessionLog.Errorf("Test %q aborted: %v", def.Name, parseErr)
		default:
			sessionLog.Errorf("Test %q aborted: %v", def.Name, err)
		}
	}
	return rep
}

// abortedReport builds a failed report for a test whose provider never
// came up.
func abortedReport(def types.TestDefinition, _ error) *types.TestReport {
	now := time.Now()
	return &types.TestReport{
		TestName:  def.Name,
		StartTime: now,
		EndTime:   now,
		Result:    types.ResultFail,
	}
}
