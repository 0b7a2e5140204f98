// Package types defines the core data model shared across webpilot:
// test definitions, execution plans, per-step action records, and the
// per-test report. Everything here is plain data; behavior lives in the
// packages that produce and consume these values.
package types

import "time"

// TestDefinition is one natural-language test: a name, the raw source
// text it was loaded from, and the ordered step lines extracted from it.
// Immutable once loaded.
type TestDefinition struct {
	// Name identifies the test, typically derived from its filename.
	Name string `json:"name"`

	// Source is the raw file content the steps were extracted from.
	Source string `json:"-"`

	// Steps are the ordered natural-language step lines.
	Steps []string `json:"steps"`
}

// ExecutionStep is one planned tool invocation. Produced once by the
// planner and immutable thereafter.
type ExecutionStep struct {
	// StepIndex is the planner's reference back into the original step
	// list. Advisory only: execution order is the slice order of the
	// plan, and StepIndex is used solely to recover the original step
	// text for logging.
	StepIndex int `json:"stepIndex"`

	// Tool is the provider tool name to invoke.
	Tool string `json:"tool"`

	// Params are the tool arguments as an opaque mapping. The provider
	// is authoritative for parameter validation.
	Params map[string]any `json:"params"`

	// IsAssertion marks steps that verify state rather than mutate it.
	IsAssertion bool `json:"isAssertion"`

	// Description is the planner's rationale for this step.
	Description string `json:"description"`
}

// ExecutionPlan is the ordered sequence of steps for one test run.
// Slice order is the authoritative execution order.
type ExecutionPlan []ExecutionStep

// ActionStatus is the outcome of one executed step.
type ActionStatus string

const (
	ActionPassed ActionStatus = "passed"
	ActionFailed ActionStatus = "failed"
)

// ActionRecord describes one step's execution outcome. Created exactly
// once per executed step and never mutated afterwards.
type ActionRecord struct {
	Tool        string         `json:"tool"`
	Params      map[string]any `json:"params"`
	Status      ActionStatus   `json:"status"`
	IsAssertion bool           `json:"isAssertion"`
	Error       string         `json:"error,omitempty"`
	DurationMS  int64          `json:"duration_ms"`
	Screenshot  string         `json:"screenshot,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}

// TestResult is the overall outcome of one test run.
type TestResult string

const (
	ResultRunning TestResult = "running"
	ResultPass    TestResult = "pass"
	ResultFail    TestResult = "fail"
)

// RunState is the engine's run-level state machine.
//
//	created → planning → executing → finalizing → passed | failed
//
// A fatal error before any action executes transitions to aborted
// instead; an aborted run carries zero action records.
type RunState string

const (
	StateCreated    RunState = "created"
	StatePlanning   RunState = "planning"
	StateExecuting  RunState = "executing"
	StateFinalizing RunState = "finalizing"
	StatePassed     RunState = "passed"
	StateFailed     RunState = "failed"
	StateAborted    RunState = "aborted"
)

// TestReport accumulates the outcome of one test run. It is mutated
// only by the engine's recorder during the step loop and finalized
// exactly once; after finalization it is read-only.
//
// Invariants after finalization:
//
//	TotalActions == PassedActions + FailedActions == len(Actions)
//	Result == ResultPass if and only if FailedActions == 0
type TestReport struct {
	TestName      string         `json:"testName"`
	StartTime     time.Time      `json:"startTime"`
	EndTime       time.Time      `json:"endTime"`
	DurationMS    int64          `json:"duration_ms"`
	Actions       []ActionRecord `json:"actions"`
	PassedActions int            `json:"passedActions"`
	FailedActions int            `json:"failedActions"`
	TotalActions  int            `json:"totalActions"`
	Result        TestResult     `json:"testResult"`
}
