package engine

import (
	"sync"

	"github.com/relaihq/webpilot/pkg/types"
)

// Recorder accumulates action records for one test run.
//
// It is append-only: each classified step pushes exactly one record,
// and no record is ever edited or removed after insertion. The pass and
// fail counters are updated together with each append, under the same
// lock, so a snapshot is always internally consistent. One recorder is
// owned exclusively by one engine instance; it is never shared across
// runs.
type Recorder struct {
	mu      sync.Mutex
	actions []types.ActionRecord
	passed  int
	failed  int
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Record appends one action record and bumps the matching counter.
func (r *Recorder) Record(action types.ActionRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.actions = append(r.actions, action)
	if action.Status == types.ActionPassed {
		r.passed++
	} else {
		r.failed++
	}
}

// Actions returns a copy of the recorded actions in append order.
func (r *Recorder) Actions() []types.ActionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]types.ActionRecord, len(r.actions))
	copy(out, r.actions)
	return out
}

// Counts returns the current passed and failed counters.
func (r *Recorder) Counts() (passed, failed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.passed, r.failed
}
