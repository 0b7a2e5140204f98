// Package provider defines the tool provider boundary: a discoverable
// catalog of automation tools behind a uniform invoke interface.
//
// The envelope mirrors the common tool-calling wire shape: a successful
// transport-level call returns a Result whose Content is a list of typed
// blocks, with IsError marking protocol-level tool failures in-band.
// Transport failures (the provider itself is unreachable or broken) are
// returned as Go errors instead.
package provider

import (
	"context"
	"fmt"
)

// ContentBlockType identifies the kind of content in a block.
type ContentBlockType string

const (
	// ContentText is a plain text block. Only text blocks participate
	// in outcome classification and screenshot correlation.
	ContentText ContentBlockType = "text"

	// ContentImage is an inline image block.
	ContentImage ContentBlockType = "image"
)

// ContentBlock is one typed piece of a tool invocation response.
type ContentBlock struct {
	Type ContentBlockType `json:"type"`
	Text string           `json:"text,omitempty"`
}

// Result is the envelope returned by a tool invocation.
type Result struct {
	// Content holds the response blocks in emission order.
	Content []ContentBlock `json:"content"`

	// IsError marks a protocol-level tool failure. The error payload is
	// carried in the content blocks.
	IsError bool `json:"isError"`
}

// TextContent concatenates all text-typed blocks into one string, in
// emission order. Non-text blocks are skipped.
func (r *Result) TextContent() string {
	var out string
	for _, block := range r.Content {
		if block.Type == ContentText {
			out += block.Text
		}
	}
	return out
}

// TextResult builds a successful single-block text result.
func TextResult(text string) *Result {
	return &Result{Content: []ContentBlock{{Type: ContentText, Text: text}}}
}

// ErrorResult builds a protocol-level error result carrying the given
// message as its text payload.
func ErrorResult(text string) *Result {
	return &Result{
		Content: []ContentBlock{{Type: ContentText, Text: text}},
		IsError: true,
	}
}

// ToolInfo describes one discoverable tool.
type ToolInfo struct {
	// Name is the unique tool identifier (e.g., "browser_click").
	Name string `json:"name"`

	// Description is a human-readable summary shown to the planner.
	Description string `json:"description"`

	// InputSchema is the JSON schema for the tool's parameters.
	InputSchema map[string]any `json:"inputSchema"`
}

// ToolProvider is the boundary to an automation tool backend.
//
// A provider instance is a scoped resource owned by exactly one test
// run: acquired before planning, released via Close on every exit path.
type ToolProvider interface {
	// DiscoverTools returns the tool catalog. Called once per run,
	// before planning.
	DiscoverTools(ctx context.Context) ([]ToolInfo, error)

	// Invoke runs one tool with the given parameters and returns its
	// result envelope. Tool-level failures are reported in-band via
	// Result.IsError; a non-nil error means the transport itself failed.
	Invoke(ctx context.Context, name string, params map[string]any) (*Result, error)

	// Close releases the provider's resources. Idempotent.
	Close() error
}

// ConnectionError indicates the provider handshake or tool discovery
// failed. It is fatal: the run aborts before any action executes.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("tool provider connection failed: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}
