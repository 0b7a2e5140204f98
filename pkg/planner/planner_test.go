package planner

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaihq/webpilot/pkg/llm"
	"github.com/relaihq/webpilot/pkg/provider"
	"github.com/relaihq/webpilot/pkg/types"
)

var browserCatalog = []provider.ToolInfo{
	{Name: "browser_navigate", Description: "Navigate to a URL"},
	{Name: "browser_click", Description: "Click an element"},
	{Name: "browser_verify_text", Description: "Verify page text"},
}

const validPlanJSON = `[
  {"stepIndex": 0, "tool": "browser_navigate", "params": {"url": "https://example.com"}, "isAssertion": false, "description": "open the site"},
  {"stepIndex": 1, "tool": "browser_verify_text", "params": {"text": "Welcome"}, "isAssertion": true, "description": "check the banner"}
]`

func TestParsePlan_Valid(t *testing.T) {
	plan, err := ParsePlan(validPlanJSON, browserCatalog, 2, nil)
	require.NoError(t, err)
	require.Len(t, plan, 2)

	assert.Equal(t, "browser_navigate", plan[0].Tool)
	assert.Equal(t, "https://example.com", plan[0].Params["url"])
	assert.False(t, plan[0].IsAssertion)

	assert.Equal(t, "browser_verify_text", plan[1].Tool)
	assert.True(t, plan[1].IsAssertion)
	assert.Equal(t, 1, plan[1].StepIndex)
}

func TestParsePlan_FencedEqualsUnfenced(t *testing.T) {
	fenced := "```json\n" + validPlanJSON + "\n```"
	prose := "Here is the plan you asked for:\n\n" + fenced + "\n\nLet me know if you need changes."

	want, err := ParsePlan(validPlanJSON, browserCatalog, 2, nil)
	require.NoError(t, err)

	for name, raw := range map[string]string{"fenced": fenced, "fenced with prose": prose} {
		t.Run(name, func(t *testing.T) {
			got, err := ParsePlan(raw, browserCatalog, 2, nil)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestParsePlan_Errors(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		reason string
	}{
		{
			name:   "empty response",
			raw:    "",
			reason: "no JSON array",
		},
		{
			name:   "prose only",
			raw:    "I could not produce a plan for this test.",
			reason: "no JSON array",
		},
		{
			name:   "malformed JSON",
			raw:    `[{"tool": "browser_navigate",}]`,
			reason: "invalid JSON",
		},
		{
			name:   "unknown tool",
			raw:    `[{"stepIndex": 0, "tool": "browser_teleport", "params": {}}]`,
			reason: `unknown tool "browser_teleport"`,
		},
		{
			name:   "missing tool name",
			raw:    `[{"stepIndex": 0, "params": {}}]`,
			reason: "no tool name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePlan(tt.raw, browserCatalog, 1, nil)
			require.Error(t, err)

			var parseErr *ParseError
			require.True(t, errors.As(err, &parseErr), "expected *ParseError, got %T", err)
			assert.Contains(t, parseErr.Error(), tt.reason)
		})
	}
}

func TestParsePlan_LengthMismatchIsNotFatal(t *testing.T) {
	// Two planned actions against an expected count of five
	plan, err := ParsePlan(validPlanJSON, browserCatalog, 5, nil)
	require.NoError(t, err)
	assert.Len(t, plan, 2)
}

func TestParsePlan_EmptyArray(t *testing.T) {
	plan, err := ParsePlan("[]", browserCatalog, 0, nil)
	require.NoError(t, err)
	assert.Empty(t, plan)
}

// stubLLM returns a fixed completion.
type stubLLM struct {
	response string
	err      error

	gotMessages []*llm.Message
}

func (s *stubLLM) StreamCompletion(ctx context.Context, messages []*llm.Message) (<-chan *llm.StreamChunk, error) {
	return nil, errors.New("not used in tests")
}

func (s *stubLLM) Complete(ctx context.Context, messages []*llm.Message) (*llm.Message, error) {
	s.gotMessages = messages
	if s.err != nil {
		return nil, s.err
	}
	return &llm.Message{Role: llm.RoleAssistant, Content: s.response}, nil
}

func (s *stubLLM) GetModel() string   { return "stub" }
func (s *stubLLM) GetBaseURL() string { return "" }

func TestBuildPlan_SendsCatalogAndSteps(t *testing.T) {
	stub := &stubLLM{response: validPlanJSON}
	p := New(stub)
	defer p.Close()

	def := types.TestDefinition{
		Name:  "login",
		Steps: []string{"Open https://example.com", "Check the page says Welcome"},
	}

	plan, err := p.BuildPlan(context.Background(), def, browserCatalog)
	require.NoError(t, err)
	assert.Len(t, plan, 2)

	require.Len(t, stub.gotMessages, 2)
	system := stub.gotMessages[0]
	assert.Equal(t, llm.RoleSystem, system.Role)
	assert.Contains(t, system.Content, "browser_navigate")
	assert.Contains(t, system.Content, "browser_verify_text")

	user := stub.gotMessages[1]
	assert.Equal(t, llm.RoleUser, user.Role)
	assert.Contains(t, user.Content, "1. Open https://example.com")
	assert.Contains(t, user.Content, "2. Check the page says Welcome")
}

func TestBuildPlan_PropagatesLLMError(t *testing.T) {
	stub := &stubLLM{err: errors.New("connection refused")}
	p := New(stub)
	defer p.Close()

	_, err := p.BuildPlan(context.Background(), types.TestDefinition{Name: "t"}, browserCatalog)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plan generation request failed")
}

func TestExcerpt_TruncatesOnRuneBoundary(t *testing.T) {
	// Byte 240 lands inside the first multi-byte rune
	long := strings.Repeat("a", 239) + "日本語"

	out := excerpt(long)
	assert.True(t, utf8.ValidString(out))
	assert.Equal(t, strings.Repeat("a", 239)+"...", out)
}
