// Package engine executes one test run: it discovers the provider's
// tool catalog, obtains an execution plan, runs each step sequentially,
// classifies outcomes, and folds everything into a finalized report.
//
// Failure policy: per-step failures (error envelopes, negative
// verification results) are recorded and the loop continues, so side
// effects and later assertions remain observable. There are no
// automatic retries for any failure class; masking transient
// infrastructure flakiness is explicitly not a goal, flakiness must
// surface. Fatal errors before the first action (plan parsing, provider
// discovery) abort the run with zero actions recorded.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/relaihq/webpilot/pkg/logging"
	"github.com/relaihq/webpilot/pkg/outcome"
	"github.com/relaihq/webpilot/pkg/planner"
	"github.com/relaihq/webpilot/pkg/provider"
	"github.com/relaihq/webpilot/pkg/report"
	"github.com/relaihq/webpilot/pkg/types"
)

// PlanBuilder produces an execution plan for a test definition given
// the discovered tool catalog. *planner.Planner is the production
// implementation.
type PlanBuilder interface {
	BuildPlan(ctx context.Context, def types.TestDefinition, tools []provider.ToolInfo) (types.ExecutionPlan, error)
}

// Config holds engine settings.
type Config struct {
	// ScreenshotsDir is the directory screenshot paths are derived
	// against. The engine only computes paths, it never writes images.
	ScreenshotsDir string

	// StepTimeout bounds each individual tool invocation. Zero means
	// unbounded, deferring deadline policy to the provider.
	StepTimeout time.Duration
}

// Engine runs one test against one provider connection. An engine
// instance is single-use: construct a fresh one per test run.
type Engine struct {
	planner  PlanBuilder
	provider provider.ToolProvider
	recorder *Recorder
	config   Config
	log      *logging.Logger
	state    types.RunState
}

// New creates an engine owning the given provider connection. The
// engine releases the provider on every exit path of Run.
func New(pl PlanBuilder, tp provider.ToolProvider, cfg Config) *Engine {
	log, _ := logging.NewLogger("engine")
	return &Engine{
		planner:  pl,
		provider: tp,
		recorder: NewRecorder(),
		config:   cfg,
		log:      log,
		state:    types.StateCreated,
	}
}

// State returns the engine's current run state.
func (e *Engine) State() types.RunState {
	return e.state
}

// Run executes the full lifecycle for one test definition and returns
// its finalized report.
//
// Fatal errors (plan parse failure, provider connection failure) are
// returned alongside a report that still carries whatever was recorded;
// for aborted runs that is zero actions. The provider connection is
// released before Run returns, on every path.
func (e *Engine) Run(ctx context.Context, def types.TestDefinition) (*types.TestReport, error) {
	rep := &types.TestReport{
		TestName:  def.Name,
		StartTime: time.Now(),
		Result:    types.ResultRunning,
	}

	defer e.log.Close()
	defer func() {
		if err := e.provider.Close(); err != nil {
			e.log.Warnf("Provider close failed: %v", err)
		}
	}()

	e.log.Infof("Run started for test %q (%d steps)", def.Name, len(def.Steps))

	e.state = types.StatePlanning
	tools, err := e.provider.DiscoverTools(ctx)
	if err != nil {
		e.state = types.StateAborted
		connErr := &provider.ConnectionError{Err: err}
		e.log.Errorf("Run aborted: %v", connErr)
		report.Finalize(rep, e.recorder.Actions(), 0, 0)
		rep.Result = types.ResultFail
		return rep, connErr
	}
	e.log.Infof("Discovered %d tools", len(tools))

	plan, err := e.planner.BuildPlan(ctx, def, tools)
	if err != nil {
		e.state = types.StateAborted
		e.log.Errorf("Run aborted: %v", err)
		report.Finalize(rep, e.recorder.Actions(), 0, 0)
		rep.Result = types.ResultFail
		return rep, err
	}

	e.state = types.StateExecuting
	for i, step := range plan {
		e.executeStep(ctx, i, step, def)
	}

	e.state = types.StateFinalizing
	passed, failed := e.recorder.Counts()
	if passed+failed == 0 {
		// Zero-action runs finalize as pass; ambiguous upstream, so
		// make it visible in the session log
		e.log.Warnf("Run for test %q finalized with zero actions", def.Name)
	}
	report.Finalize(rep, e.recorder.Actions(), passed, failed)

	if rep.Result == types.ResultPass {
		e.state = types.StatePassed
	} else {
		e.state = types.StateFailed
	}
	e.log.Infof("Run finished for test %q: %s (%d passed, %d failed)",
		def.Name, rep.Result, passed, failed)

	return rep, nil
}

// executeStep invokes one planned step, classifies the outcome, and
// records exactly one action. Failures never escape: every outcome
// becomes an ActionRecord and the loop continues.
func (e *Engine) executeStep(ctx context.Context, position int, step types.ExecutionStep, def types.TestDefinition) {
	e.log.Infof("Step %d: %s (%s)", position, step.Tool, e.stepText(step, def))

	stepCtx := ctx
	if e.config.StepTimeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, e.config.StepTimeout)
		defer cancel()
	}

	start := time.Now()
	result, err := e.provider.Invoke(stepCtx, step.Tool, step.Params)
	duration := time.Since(start).Milliseconds()

	record := types.ActionRecord{
		Tool:        step.Tool,
		Params:      step.Params,
		Status:      types.ActionPassed,
		IsAssertion: step.IsAssertion,
		DurationMS:  duration,
		Timestamp:   start,
	}

	switch {
	case err != nil:
		// Invocation transport failure: recorded as one failed action,
		// never fatal to the run
		record.Status = types.ActionFailed
		record.Error = fmt.Sprintf("tool invocation failed: %v", err)

	case result.IsError:
		// Protocol-level error envelope; the envelope wins even when
		// the payload also carries a positive result marker
		record.Status = types.ActionFailed
		record.Error = fmt.Sprintf("tool protocol error: %s", excerpt(result.TextContent()))
		record.Screenshot = outcome.Screenshot(result.TextContent(), e.config.ScreenshotsDir)

	case outcome.AssertionFailed(result.TextContent()):
		// Protocol success carrying a negative logical result
		record.Status = types.ActionFailed
		record.Error = fmt.Sprintf("assertion reported a negative result: %s", excerpt(result.TextContent()))
		record.Screenshot = outcome.Screenshot(result.TextContent(), e.config.ScreenshotsDir)

	default:
		record.Screenshot = outcome.Screenshot(result.TextContent(), e.config.ScreenshotsDir)
	}

	if record.Status == types.ActionFailed {
		e.log.Warnf("Step %d failed: %s", position, record.Error)
	}

	e.recorder.Record(record)
}

// stepText recovers the original step text for logging. StepIndex is
// advisory: out-of-range indices fall back to the plan's description.
func (e *Engine) stepText(step types.ExecutionStep, def types.TestDefinition) string {
	if step.StepIndex >= 0 && step.StepIndex < len(def.Steps) {
		return def.Steps[step.StepIndex]
	}
	return step.Description
}

// excerpt bounds raw tool output for error messages. Truncation backs
// off to a rune boundary so the cut never leaves an invalid UTF-8 tail.
func excerpt(text string) string {
	const maxLen = 200
	text = strings.TrimSpace(text)
	if len(text) <= maxLen {
		return text
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}

// Compile-time check: the production planner satisfies PlanBuilder.
var _ PlanBuilder = (*planner.Planner)(nil)
