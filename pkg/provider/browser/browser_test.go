package browser

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterTools_Catalog(t *testing.T) {
	tools := registerTools()
	require.NotEmpty(t, tools)

	names := make(map[string]bool)
	for _, tool := range tools {
		assert.NotEmpty(t, tool.name)
		assert.NotEmpty(t, tool.description)
		assert.NotNil(t, tool.handler)
		assert.False(t, names[tool.name], "duplicate tool name %s", tool.name)
		names[tool.name] = true

		require.NotNil(t, tool.schema)
		assert.Equal(t, "object", tool.schema["type"])
		assert.Contains(t, tool.schema, "properties")
	}

	for _, expected := range []string{
		"browser_navigate",
		"browser_click",
		"browser_fill",
		"browser_wait",
		"browser_screenshot",
		"browser_verify_text",
		"browser_verify_element",
	} {
		assert.True(t, names[expected], "missing tool %s", expected)
	}
}

func TestRegisterTools_RequiredParams(t *testing.T) {
	tests := []struct {
		tool     string
		required []string
	}{
		{"browser_navigate", []string{"url"}},
		{"browser_click", []string{"selector"}},
		{"browser_fill", []string{"selector", "value"}},
		{"browser_verify_text", []string{"text"}},
	}

	tools := registerTools()
	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			for _, tool := range tools {
				if tool.name != tt.tool {
					continue
				}
				required, ok := tool.schema["required"].([]string)
				require.True(t, ok, "schema has no required list")
				for _, param := range tt.required {
					assert.Contains(t, required, param)
				}
				return
			}
			t.Fatalf("tool %s not found", tt.tool)
		})
	}
}

func TestParamHelpers(t *testing.T) {
	params := map[string]any{
		"selector": "#login",
		"count":    float64(2),
		"full":     true,
	}

	assert.Equal(t, "#login", stringParam(params, "selector"))
	assert.Equal(t, "", stringParam(params, "missing"))
	assert.Equal(t, "", stringParam(params, "count"), "non-string value should read as empty")

	assert.True(t, boolParam(params, "full", false))
	assert.False(t, boolParam(params, "missing", false))
	assert.True(t, boolParam(params, "missing", true))

	_, err := requireString(params, "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"missing" is required`)
}

func TestOpTimeout_BoundedByContextDeadline(t *testing.T) {
	p := &Provider{timeoutMS: DefaultTimeout}

	assert.Equal(t, DefaultTimeout, p.opTimeout(context.Background()),
		"no deadline leaves the default in place")

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	bounded := p.opTimeout(ctx)
	assert.Greater(t, bounded, 0.0)
	assert.LessOrEqual(t, bounded, 500.0)

	expired, cancelExpired := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancelExpired()
	assert.Equal(t, 0.0, p.opTimeout(expired), "an expired deadline leaves no budget")
}

func TestRunHandler_ReturnsWhenContextExpires(t *testing.T) {
	p := &Provider{}
	blocked := make(chan struct{})
	defer close(blocked)

	// Handler ignores its context entirely, like a stuck page operation
	def := &toolDef{
		name: "browser_block",
		handler: func(ctx context.Context, p *Provider, params map[string]any) (string, error) {
			<-blocked
			return "never", nil
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := p.runHandler(ctx, def, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestProviderLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	shotsDir := t.TempDir()
	p, err := New(Options{Headless: true, ScreenshotsDir: shotsDir})
	require.NoError(t, err)
	defer p.Close()

	ctx := context.Background()

	infos, err := p.DiscoverTools(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, infos)

	// Unknown tool comes back as an in-band error envelope
	result, err := p.Invoke(ctx, "browser_teleport", nil)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, result.TextContent(), "unknown tool")

	// Navigate to an inline page and verify text on it
	result, err = p.Invoke(ctx, "browser_navigate", map[string]any{
		"url": "data:text/html,<html><body><h1>Welcome</h1></body></html>",
	})
	require.NoError(t, err)
	assert.False(t, result.IsError)

	result, err = p.Invoke(ctx, "browser_verify_text", map[string]any{"text": "Welcome"})
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, result.TextContent(), "### Result true")

	result, err = p.Invoke(ctx, "browser_verify_text", map[string]any{"text": "Goodbye"})
	require.NoError(t, err)
	assert.False(t, result.IsError, "negative verification is not a protocol error")
	assert.Contains(t, result.TextContent(), "### Result false")

	// Screenshot mentions its filename in the payload
	result, err = p.Invoke(ctx, "browser_screenshot", nil)
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.True(t, strings.Contains(result.TextContent(), ".png"))

	// Close is idempotent
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
}
