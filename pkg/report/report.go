// Package report finalizes test run data and renders it to disk.
//
// The aggregator side is deliberately dumb: it stamps timing, copies
// counters, and computes the overall result. It has no knowledge of how
// the data will be displayed; the writers consume the finalized value
// read-only.
package report

import (
	"time"

	"github.com/relaihq/webpilot/pkg/types"
)

// Finalize stamps the end of a run onto the report and computes its
// overall result. Called exactly once per run; the report is read-only
// afterwards.
//
// Post-conditions: TotalActions == PassedActions + FailedActions ==
// len(Actions), DurationMS >= 0 (clock resolutions that round to 0 are
// tolerated), and Result is pass iff no action failed. Zero-action runs
// therefore finalize as pass.
func Finalize(rep *types.TestReport, actions []types.ActionRecord, passed, failed int) {
	rep.EndTime = time.Now()

	duration := rep.EndTime.Sub(rep.StartTime).Milliseconds()
	if duration < 0 {
		duration = 0
	}
	rep.DurationMS = duration

	rep.Actions = actions
	rep.PassedActions = passed
	rep.FailedActions = failed
	rep.TotalActions = passed + failed

	if failed == 0 {
		rep.Result = types.ResultPass
	} else {
		rep.Result = types.ResultFail
	}
}

// SuiteSummary aggregates the outcome of a batch of test runs.
type SuiteSummary struct {
	StartTime   time.Time          `json:"startTime"`
	EndTime     time.Time          `json:"endTime"`
	DurationMS  int64              `json:"duration_ms"`
	TotalTests  int                `json:"totalTests"`
	PassedTests int                `json:"passedTests"`
	FailedTests int                `json:"failedTests"`
	Tests       []types.TestReport `json:"tests"`
}

// Summarize folds finalized test reports into a suite summary.
func Summarize(start time.Time, reports []types.TestReport) SuiteSummary {
	summary := SuiteSummary{
		StartTime:  start,
		EndTime:    time.Now(),
		TotalTests: len(reports),
		Tests:      reports,
	}

	duration := summary.EndTime.Sub(start).Milliseconds()
	if duration < 0 {
		duration = 0
	}
	summary.DurationMS = duration

	for _, rep := range reports {
		if rep.Result == types.ResultPass {
			summary.PassedTests++
		} else {
			summary.FailedTests++
		}
	}
	return summary
}

// AllPassed reports whether every test in the suite passed.
func (s *SuiteSummary) AllPassed() bool {
	return s.FailedTests == 0
}
