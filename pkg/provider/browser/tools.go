package browser

import (
	"context"
	"fmt"
)

// toolHandler executes one tool against the provider's page and returns
// the text payload for the result envelope.
type toolHandler func(ctx context.Context, p *Provider, params map[string]any) (string, error)

// toolDef describes one discoverable tool.
type toolDef struct {
	name        string
	description string
	schema      map[string]any
	handler     toolHandler
}

// baseSchema builds a JSON schema object for a tool's parameters.
func baseSchema(properties map[string]any, required []string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// stringParam extracts a string parameter, empty when absent.
func stringParam(params map[string]any, key string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return ""
}

// boolParam extracts a boolean parameter with a default.
func boolParam(params map[string]any, key string, def bool) bool {
	if v, ok := params[key].(bool); ok {
		return v
	}
	return def
}

// requireString extracts a required string parameter.
func requireString(params map[string]any, key string) (string, error) {
	v := stringParam(params, key)
	if v == "" {
		return "", fmt.Errorf("parameter %q is required", key)
	}
	return v, nil
}

// registerTools builds the provider's tool catalog.
func registerTools() []toolDef {
	return []toolDef{
		{
			name:        "browser_navigate",
			description: "Navigate to a URL. The browser loads the page and waits for it to be ready.",
			schema: baseSchema(map[string]any{
				"url": map[string]any{
					"type":        "string",
					"description": "URL to navigate to (must include protocol, e.g., https://example.com)",
				},
				"wait_until": map[string]any{
					"type":        "string",
					"description": "When to consider navigation complete: 'load' (default), 'domcontentloaded', or 'networkidle'",
				},
			}, []string{"url"}),
			handler: handleNavigate,
		},
		{
			name:        "browser_click",
			description: "Click an element identified by a CSS selector.",
			schema: baseSchema(map[string]any{
				"selector": map[string]any{
					"type":        "string",
					"description": "CSS selector of the element to click",
				},
			}, []string{"selector"}),
			handler: handleClick,
		},
		{
			name:        "browser_fill",
			description: "Fill an input element with a value, replacing any existing content.",
			schema: baseSchema(map[string]any{
				"selector": map[string]any{
					"type":        "string",
					"description": "CSS selector of the input element",
				},
				"value": map[string]any{
					"type":        "string",
					"description": "Text to fill into the element",
				},
			}, []string{"selector", "value"}),
			handler: handleFill,
		},
		{
			name:        "browser_press_key",
			description: "Press a keyboard key (e.g., 'Enter', 'Tab', 'ArrowDown'), optionally focusing a selector first.",
			schema: baseSchema(map[string]any{
				"key": map[string]any{
					"type":        "string",
					"description": "Key to press, in Playwright key syntax",
				},
				"selector": map[string]any{
					"type":        "string",
					"description": "Optional CSS selector to focus before pressing",
				},
			}, []string{"key"}),
			handler: handlePressKey,
		},
		{
			name:        "browser_wait",
			description: "Wait for an element matching a selector to reach a state.",
			schema: baseSchema(map[string]any{
				"selector": map[string]any{
					"type":        "string",
					"description": "CSS selector to wait for",
				},
				"state": map[string]any{
					"type":        "string",
					"description": "State to wait for: 'visible' (default), 'attached', 'detached', or 'hidden'",
				},
			}, []string{"selector"}),
			handler: handleWait,
		},
		{
			name:        "browser_extract_text",
			description: "Extract visible text from the page, or from elements matching a selector.",
			schema: baseSchema(map[string]any{
				"selector": map[string]any{
					"type":        "string",
					"description": "Optional CSS selector limiting extraction; defaults to the page body",
				},
			}, nil),
			handler: handleExtractText,
		},
		{
			name:        "browser_evaluate",
			description: "Evaluate a JavaScript expression in the page and return its result.",
			schema: baseSchema(map[string]any{
				"code": map[string]any{
					"type":        "string",
					"description": "JavaScript expression to evaluate",
				},
			}, []string{"code"}),
			handler: handleEvaluate,
		},
		{
			name:        "browser_screenshot",
			description: "Capture a screenshot of the current page and save it to the screenshots directory.",
			schema: baseSchema(map[string]any{
				"name": map[string]any{
					"type":        "string",
					"description": "Optional file name for the screenshot (defaults to a sequential name)",
				},
				"full_page": map[string]any{
					"type":        "boolean",
					"description": "Capture the full scrollable page instead of the viewport",
				},
			}, nil),
			handler: handleScreenshot,
		},
		{
			name:        "browser_verify_text",
			description: "Verify that the page's visible text contains the expected text. Reports the verification result.",
			schema: baseSchema(map[string]any{
				"text": map[string]any{
					"type":        "string",
					"description": "Text expected to be present on the page",
				},
				"selector": map[string]any{
					"type":        "string",
					"description": "Optional CSS selector limiting the search; defaults to the page body",
				},
			}, []string{"text"}),
			handler: handleVerifyText,
		},
		{
			name:        "browser_verify_element",
			description: "Verify that an element matching a selector exists and is visible. Reports the verification result.",
			schema: baseSchema(map[string]any{
				"selector": map[string]any{
					"type":        "string",
					"description": "CSS selector of the element to verify",
				},
			}, []string{"selector"}),
			handler: handleVerifyElement,
		},
	}
}
