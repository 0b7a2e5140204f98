package browser

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/playwright-community/playwright-go"
)

// resultMarker is the verification marker scanned for by the outcome
// classifier. Verification tools append it to their text payload so a
// protocol-successful call can still report a negative logical result.
const resultMarker = "### Result"

func handleNavigate(ctx context.Context, p *Provider, params map[string]any) (string, error) {
	url, err := requireString(params, "url")
	if err != nil {
		return "", err
	}

	waitUntil := stringParam(params, "wait_until")
	if waitUntil == "" {
		waitUntil = "load"
	}
	switch waitUntil {
	case "load", "domcontentloaded", "networkidle":
	default:
		return "", fmt.Errorf("invalid wait_until value: %s (must be 'load', 'domcontentloaded', or 'networkidle')", waitUntil)
	}

	state := playwright.WaitUntilState(waitUntil)
	gotoOpts := playwright.PageGotoOptions{
		WaitUntil: &state,
		Timeout:   playwright.Float(p.opTimeout(ctx)),
	}
	if _, err := p.page.Goto(url, gotoOpts); err != nil {
		return "", fmt.Errorf("navigation failed: %w", err)
	}

	title, err := p.page.Title()
	if err != nil {
		title = "Unknown"
	}

	return fmt.Sprintf("Navigation successful\n\nPage Details:\n- URL: %s\n- Title: %s\n\nThe page has loaded and is ready for interaction.",
		p.page.URL(), title), nil
}

func handleClick(ctx context.Context, p *Provider, params map[string]any) (string, error) {
	selector, err := requireString(params, "selector")
	if err != nil {
		return "", err
	}

	if err := p.page.Click(selector, playwright.PageClickOptions{Timeout: playwright.Float(p.opTimeout(ctx))}); err != nil {
		return "", fmt.Errorf("click failed: %w", err)
	}

	// Click may have caused navigation
	return fmt.Sprintf("Clicked element %q. Current URL: %s", selector, p.page.URL()), nil
}

func handleFill(ctx context.Context, p *Provider, params map[string]any) (string, error) {
	selector, err := requireString(params, "selector")
	if err != nil {
		return "", err
	}
	value, ok := params["value"].(string)
	if !ok {
		return "", fmt.Errorf("parameter %q is required", "value")
	}

	if err := p.page.Fill(selector, value, playwright.PageFillOptions{Timeout: playwright.Float(p.opTimeout(ctx))}); err != nil {
		return "", fmt.Errorf("fill failed: %w", err)
	}

	return fmt.Sprintf("Filled element %q with %d characters.", selector, len(value)), nil
}

func handlePressKey(ctx context.Context, p *Provider, params map[string]any) (string, error) {
	key, err := requireString(params, "key")
	if err != nil {
		return "", err
	}

	if selector := stringParam(params, "selector"); selector != "" {
		if err := p.page.Focus(selector, playwright.PageFocusOptions{Timeout: playwright.Float(p.opTimeout(ctx))}); err != nil {
			return "", fmt.Errorf("focus failed: %w", err)
		}
	}

	if err := p.page.Keyboard().Press(key); err != nil {
		return "", fmt.Errorf("key press failed: %w", err)
	}

	return fmt.Sprintf("Pressed key %q. Current URL: %s", key, p.page.URL()), nil
}

func handleWait(ctx context.Context, p *Provider, params map[string]any) (string, error) {
	selector, err := requireString(params, "selector")
	if err != nil {
		return "", err
	}

	stateName := stringParam(params, "state")
	if stateName == "" {
		stateName = "visible"
	}
	switch stateName {
	case "visible", "attached", "detached", "hidden":
	default:
		return "", fmt.Errorf("invalid state value: %s (must be 'visible', 'attached', 'detached', or 'hidden')", stateName)
	}

	state := playwright.WaitForSelectorState(stateName)
	waitOpts := playwright.PageWaitForSelectorOptions{
		State:   &state,
		Timeout: playwright.Float(p.opTimeout(ctx)),
	}
	if _, err := p.page.WaitForSelector(selector, waitOpts); err != nil {
		return "", fmt.Errorf("wait failed: %w", err)
	}

	return fmt.Sprintf("Element %q reached state %q.", selector, stateName), nil
}

func handleExtractText(ctx context.Context, p *Provider, params map[string]any) (string, error) {
	text, err := p.extractText(stringParam(params, "selector"))
	if err != nil {
		return "", err
	}

	if len(text) > DefaultMaxTextLength {
		truncated := text[:DefaultMaxTextLength]
		return fmt.Sprintf("%s\n\n[Content truncated: %d of %d characters shown]",
			truncated, DefaultMaxTextLength, len(text)), nil
	}
	return text, nil
}

func handleEvaluate(ctx context.Context, p *Provider, params map[string]any) (string, error) {
	code, err := requireString(params, "code")
	if err != nil {
		return "", err
	}

	value, err := p.page.Evaluate(code)
	if err != nil {
		return "", fmt.Errorf("evaluation failed: %w", err)
	}

	return fmt.Sprintf("Evaluation result: %v", value), nil
}

func handleScreenshot(ctx context.Context, p *Provider, params map[string]any) (string, error) {
	name := stringParam(params, "name")
	if name == "" {
		p.shotSeq++
		name = fmt.Sprintf("step-%03d.png", p.shotSeq)
	}
	if !strings.HasSuffix(strings.ToLower(name), ".png") {
		name += ".png"
	}
	// Keep screenshots inside the configured directory
	name = filepath.Base(name)
	path := filepath.Join(p.screenshotsDir, name)

	opts := playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(boolParam(params, "full_page", false)),
		Timeout:  playwright.Float(p.opTimeout(ctx)),
	}
	if _, err := p.page.Screenshot(opts); err != nil {
		return "", fmt.Errorf("screenshot failed: %w", err)
	}

	return fmt.Sprintf("Screenshot captured: %s", name), nil
}

func handleVerifyText(ctx context.Context, p *Provider, params map[string]any) (string, error) {
	expected, err := requireString(params, "text")
	if err != nil {
		return "", err
	}

	body, err := p.extractText(stringParam(params, "selector"))
	if err != nil {
		return "", err
	}

	if strings.Contains(body, expected) {
		return fmt.Sprintf("Verified: page text contains %q.\n\n%s true", expected, resultMarker), nil
	}
	return fmt.Sprintf("Verification mismatch: page text does not contain %q.\n\n%s false", expected, resultMarker), nil
}

func handleVerifyElement(ctx context.Context, p *Provider, params map[string]any) (string, error) {
	selector, err := requireString(params, "selector")
	if err != nil {
		return "", err
	}

	element, err := p.page.QuerySelector(selector)
	if err != nil {
		return "", fmt.Errorf("selector query failed: %w", err)
	}

	if element == nil {
		return fmt.Sprintf("Verification mismatch: no element matches %q.\n\n%s false", selector, resultMarker), nil
	}

	visible, err := element.IsVisible()
	if err != nil {
		return "", fmt.Errorf("visibility check failed: %w", err)
	}

	if !visible {
		return fmt.Sprintf("Verification mismatch: element %q exists but is not visible.\n\n%s false", selector, resultMarker), nil
	}
	return fmt.Sprintf("Verified: element %q is present and visible.\n\n%s true", selector, resultMarker), nil
}

// extractText returns the visible text of the page body, or of the
// first element matching selector when one is given.
func (p *Provider) extractText(selector string) (string, error) {
	if selector == "" {
		selector = "body"
	}

	element, err := p.page.QuerySelector(selector)
	if err != nil {
		return "", fmt.Errorf("selector query failed: %w", err)
	}
	if element == nil {
		return "", fmt.Errorf("no element found matching selector: %s", selector)
	}

	text, err := element.TextContent()
	if err != nil {
		return "", fmt.Errorf("text extraction failed: %w", err)
	}
	return text, nil
}
