// Package planner turns a natural-language test definition into a
// schema-checked execution plan.
//
// The plan text comes from an external language model and is untrusted:
// it may arrive wrapped in markdown fences or surrounded by prose, and
// it may name tools that do not exist. The planner normalizes the text,
// parses it, and validates every step's tool name against the catalog
// discovered from the provider. Parameter objects are accepted as
// opaque mappings; the provider is authoritative for deep parameter
// validation and will reject bad parameters at invocation time.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/relaihq/webpilot/pkg/llm"
	"github.com/relaihq/webpilot/pkg/logging"
	"github.com/relaihq/webpilot/pkg/provider"
	"github.com/relaihq/webpilot/pkg/types"
)

// ParseError indicates the plan text could not be turned into a valid
// execution plan. It is fatal: the run aborts before any action
// executes.
type ParseError struct {
	Reason string
	Raw    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse execution plan: %s", e.Reason)
}

// Planner generates execution plans through an LLM provider.
type Planner struct {
	llm llm.Provider
	log *logging.Logger
}

// New creates a planner backed by the given LLM provider.
func New(llmProvider llm.Provider) *Planner {
	log, _ := logging.NewLogger("planner")
	return &Planner{llm: llmProvider, log: log}
}

// BuildPlan sends the tool catalog and test steps to the LLM and
// parses the response into an execution plan.
func (p *Planner) BuildPlan(ctx context.Context, def types.TestDefinition, tools []provider.ToolInfo) (types.ExecutionPlan, error) {
	messages := []*llm.Message{
		llm.NewSystemMessage(buildSystemPrompt(tools)),
		llm.NewUserMessage(buildUserPrompt(def.Name, def.Steps)),
	}

	p.log.Infof("Requesting plan for test %q (%d steps, %d tools)", def.Name, len(def.Steps), len(tools))

	response, err := p.llm.Complete(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("plan generation request failed: %w", err)
	}

	plan, err := ParsePlan(response.Content, tools, len(def.Steps), p.log)
	if err != nil {
		return nil, err
	}

	p.log.Infof("Plan for test %q has %d actions", def.Name, len(plan))
	return plan, nil
}

// Close releases the planner's logger.
func (p *Planner) Close() error {
	return p.log.Close()
}

// ParsePlan parses raw plan text into an execution plan, validating
// every step's tool name against the catalog. A plan whose length
// differs from expectedSteps is logged but accepted: the model's step
// splitting may legitimately diverge from naive line splitting.
func ParsePlan(raw string, tools []provider.ToolInfo, expectedSteps int, log *logging.Logger) (types.ExecutionPlan, error) {
	cleaned := extractJSONArray(stripFences(raw))
	if cleaned == "" {
		return nil, &ParseError{Reason: "response contains no JSON array", Raw: excerpt(raw)}
	}

	var plan types.ExecutionPlan
	if err := json.Unmarshal([]byte(cleaned), &plan); err != nil {
		return nil, &ParseError{Reason: fmt.Sprintf("invalid JSON: %v", err), Raw: excerpt(raw)}
	}

	catalog := make(map[string]bool, len(tools))
	for _, tool := range tools {
		catalog[tool.Name] = true
	}

	for i, step := range plan {
		if step.Tool == "" {
			return nil, &ParseError{Reason: fmt.Sprintf("step %d has no tool name", i), Raw: excerpt(raw)}
		}
		if !catalog[step.Tool] {
			return nil, &ParseError{Reason: fmt.Sprintf("step %d references unknown tool %q", i, step.Tool), Raw: excerpt(raw)}
		}
	}

	if log != nil && len(plan) != expectedSteps {
		log.Warnf("Plan length %d differs from expected step count %d; proceeding with the plan as given",
			len(plan), expectedSteps)
	}

	return plan, nil
}

// stripFences removes markdown code fence lines from the text.
func stripFences(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// extractJSONArray returns the substring from the first '[' to the last
// ']', tolerating prose around the array. Empty when no array brackets
// are present.
func extractJSONArray(text string) string {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return text[start : end+1]
}

// excerpt bounds raw plan text for error messages. Truncation backs
// off to a rune boundary so the cut never leaves an invalid UTF-8 tail.
func excerpt(raw string) string {
	const maxLen = 240
	raw = strings.TrimSpace(raw)
	if len(raw) <= maxLen {
		return raw
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(raw[cut]) {
		cut--
	}
	return raw[:cut] + "..."
}
