// Package browser implements a local ToolProvider backed by a Playwright
// Chromium instance.
//
// One provider instance owns exactly one browser page. Steps within a
// test run mutate that shared page, so callers must invoke tools
// sequentially; the provider performs no locking of page state beyond
// what Playwright itself guarantees. A fresh provider is constructed per
// test run and torn down with Close.
package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/relaihq/webpilot/pkg/logging"
	"github.com/relaihq/webpilot/pkg/provider"
)

// Options configures a browser provider instance.
type Options struct {
	// Headless controls whether the browser runs without a visible window.
	Headless bool

	// ScreenshotsDir is where the screenshot tool writes image files.
	ScreenshotsDir string

	// Viewport sets the page dimensions. Zero values use defaults.
	ViewportWidth  int
	ViewportHeight int

	// TimeoutMS is the default Playwright operation timeout in
	// milliseconds. Zero uses DefaultTimeout.
	TimeoutMS float64
}

// Default values for browser sessions.
const (
	DefaultTimeout        = 30000.0 // 30 seconds in milliseconds
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
	DefaultMaxTextLength  = 10000
)

// Provider is a Playwright-backed tool provider.
type Provider struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	bctx    playwright.BrowserContext
	page    playwright.Page

	screenshotsDir string
	shotSeq        int
	timeoutMS      float64

	tools []toolDef

	log       *logging.Logger
	closeOnce sync.Once
	closeErr  error
}

// New launches Chromium and returns a ready provider. The caller owns
// the returned provider and must release it with Close on every exit
// path.
func New(opts Options) (*Provider, error) {
	log, _ := logging.NewLogger("browser")

	if opts.ViewportWidth == 0 {
		opts.ViewportWidth = DefaultViewportWidth
	}
	if opts.ViewportHeight == 0 {
		opts.ViewportHeight = DefaultViewportHeight
	}
	if opts.TimeoutMS == 0 {
		opts.TimeoutMS = DefaultTimeout
	}

	if opts.ScreenshotsDir != "" {
		if err := os.MkdirAll(opts.ScreenshotsDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create screenshots directory: %w", err)
		}
	}

	// Install and run Playwright quietly so driver output does not
	// interleave with runner output
	runOpts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}

	if err := playwright.Install(runOpts); err != nil {
		return nil, fmt.Errorf("failed to install playwright: %w", err)
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	b, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	bctx, err := b.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  opts.ViewportWidth,
			Height: opts.ViewportHeight,
		},
	})
	if err != nil {
		b.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		bctx.Close()
		b.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	page.SetDefaultTimeout(opts.TimeoutMS)

	p := &Provider{
		pw:             pw,
		browser:        b,
		bctx:           bctx,
		page:           page,
		screenshotsDir: opts.ScreenshotsDir,
		timeoutMS:      opts.TimeoutMS,
		log:            log,
	}
	p.tools = registerTools()

	log.Infof("Browser provider started (headless=%v, viewport=%dx%d)",
		opts.Headless, opts.ViewportWidth, opts.ViewportHeight)
	return p, nil
}

// DiscoverTools returns the tool catalog.
func (p *Provider) DiscoverTools(ctx context.Context) ([]provider.ToolInfo, error) {
	if p.page == nil {
		return nil, fmt.Errorf("browser provider is closed")
	}

	infos := make([]provider.ToolInfo, 0, len(p.tools))
	for _, t := range p.tools {
		infos = append(infos, provider.ToolInfo{
			Name:        t.name,
			Description: t.description,
			InputSchema: t.schema,
		})
	}
	return infos, nil
}

// Invoke runs one tool. Tool-level failures (bad parameters, selector
// not found, navigation errors) are returned in-band as error
// envelopes; a non-nil error means the provider itself is unusable or
// the invocation context expired before the tool finished.
func (p *Provider) Invoke(ctx context.Context, name string, params map[string]any) (*provider.Result, error) {
	if p.page == nil {
		return nil, fmt.Errorf("browser provider is closed")
	}

	var def *toolDef
	for i := range p.tools {
		if p.tools[i].name == name {
			def = &p.tools[i]
			break
		}
	}
	if def == nil {
		return provider.ErrorResult(fmt.Sprintf("unknown tool: %s", name)), nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text, err := p.runHandler(ctx, def, params)
	switch {
	case err == nil:
		return provider.TextResult(text), nil
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		p.log.Warnf("Tool %s abandoned: %v", name, err)
		return nil, err
	default:
		p.log.Warnf("Tool %s failed: %v", name, err)
		return provider.ErrorResult(fmt.Sprintf("Error: %v", err)), nil
	}
}

// runHandler executes a tool handler under the invocation context. The
// handler's playwright operations carry context-derived timeouts, but
// not every page operation accepts one, so the handler is additionally
// monitored: when the context expires first, the invocation returns the
// context error and the straggling playwright call gives up through its
// own derived timeout.
func (p *Provider) runHandler(ctx context.Context, def *toolDef, params map[string]any) (string, error) {
	type handlerOutcome struct {
		text string
		err  error
	}
	done := make(chan handlerOutcome, 1)
	go func() {
		text, err := def.handler(ctx, p, params)
		done <- handlerOutcome{text: text, err: err}
	}()

	select {
	case out := <-done:
		return out.text, out.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// opTimeout returns the playwright timeout in milliseconds for one
// operation, bounded by the invocation context's deadline when one is
// set.
func (p *Provider) opTimeout(ctx context.Context) float64 {
	t := p.timeoutMS
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := float64(time.Until(deadline).Milliseconds()); remaining < t {
			t = remaining
		}
	}
	if t < 0 {
		t = 0
	}
	return t
}

// Close tears down the page, context, browser, and Playwright driver.
// Safe to call multiple times.
func (p *Provider) Close() error {
	p.closeOnce.Do(func() {
		if p.page != nil {
			_ = p.page.Close() // Ignore errors, continue cleanup
			p.page = nil
		}
		if p.bctx != nil {
			_ = p.bctx.Close()
		}
		if p.browser != nil {
			_ = p.browser.Close()
		}
		if p.pw != nil {
			if err := p.pw.Stop(); err != nil {
				p.closeErr = fmt.Errorf("failed to stop playwright: %w", err)
			}
		}
		p.log.Infof("Browser provider closed")
		p.log.Close()
	})
	return p.closeErr
}
