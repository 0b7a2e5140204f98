package planner

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/relaihq/webpilot/pkg/provider"
)

const systemPromptHeader = `You are a browser test planner. You convert natural-language test steps
into an execution plan for a browser automation tool provider.

Respond with a JSON array only. Each element must have this shape:

  {
    "stepIndex": <zero-based index of the source step this action came from>,
    "tool": "<name of one of the available tools>",
    "params": { ... tool parameters matching the tool's input schema ... },
    "isAssertion": <true when the action verifies state rather than changes it>,
    "description": "<short rationale for the action>"
  }

Rules:
- Use only tools from the list below. Never invent tool names.
- Preserve the order of the test steps.
- A single test step may expand into several actions when needed.
- Steps that check, verify, or assert something must use a verification
  tool and set isAssertion to true.
- Do not include any text outside the JSON array.

Available tools:
`

// buildSystemPrompt renders the planning system prompt including the
// discovered tool catalog with input schemas.
func buildSystemPrompt(tools []provider.ToolInfo) string {
	var b strings.Builder
	b.WriteString(systemPromptHeader)

	for _, tool := range tools {
		b.WriteString(fmt.Sprintf("\n## %s\n%s\n", tool.Name, tool.Description))
		if tool.InputSchema != nil {
			if schema, err := json.MarshalIndent(tool.InputSchema, "", "  "); err == nil {
				b.WriteString("Input schema:\n")
				b.Write(schema)
				b.WriteString("\n")
			}
		}
	}

	return b.String()
}

// buildUserPrompt renders the numbered test steps for the planner.
func buildUserPrompt(testName string, steps []string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Test: %s\n\nSteps:\n", testName))
	for i, step := range steps {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, step))
	}
	b.WriteString("\nProduce the execution plan as a JSON array.")
	return b.String()
}
