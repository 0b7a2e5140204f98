package openai

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaihq/webpilot/pkg/llm"
)

// sseServer returns a test server that streams the given content deltas
// as OpenAI-style SSE events.
func sseServer(t *testing.T, deltas []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, `data: {"choices":[{"delta":{"role":"assistant","content":""}}]}`+"\n\n")
		for _, d := range deltas {
			fmt.Fprintf(w, `data: {"choices":[{"delta":{"content":%q}}]}`+"\n\n", d)
		}
		fmt.Fprint(w, `data: {"choices":[{"delta":{},"finish_reason":"stop"}]}`+"\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
}

func TestNewProvider_RequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := NewProvider("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is required")
}

func TestNewProvider_Options(t *testing.T) {
	p, err := NewProvider("test-key",
		WithModel("gpt-4o-mini"),
		WithBaseURL("http://localhost:9999/v1"),
	)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", p.GetModel())
	assert.Equal(t, "http://localhost:9999/v1", p.GetBaseURL())
}

func TestComplete_AccumulatesStream(t *testing.T) {
	server := sseServer(t, []string{"[", `{"tool":"browser_navigate"}`, "]"})
	defer server.Close()

	p, err := NewProvider("test-key", WithBaseURL(server.URL))
	require.NoError(t, err)

	msg, err := p.Complete(context.Background(), []*llm.Message{
		llm.NewSystemMessage("You are a test planner."),
		llm.NewUserMessage("Plan the steps."),
	})
	require.NoError(t, err)
	assert.Equal(t, llm.RoleAssistant, msg.Role)
	assert.Equal(t, `[{"tool":"browser_navigate"}]`, msg.Content)
}

func TestComplete_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	p, err := NewProvider("test-key", WithBaseURL(server.URL))
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), []*llm.Message{llm.NewUserMessage("hi")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestStreamCompletion_SkipsSSEComments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, ": keep-alive comment\n\n")
		fmt.Fprint(w, `data: {"choices":[{"delta":{"role":"assistant","content":"ok"}}]}`+"\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	p, err := NewProvider("test-key", WithBaseURL(server.URL))
	require.NoError(t, err)

	msg, err := p.Complete(context.Background(), []*llm.Message{llm.NewUserMessage("hi")})
	require.NoError(t, err)
	assert.Equal(t, "ok", msg.Content)
}
