package recorder

import (
	"context"
	"fmt"
	"time"

	"github.com/entrhq/replay/pkg/types"
)

// StepResult is the outcome of replaying one step.
type StepResult struct {
	Step     types.RecordedStep `json:"step"`
	Error    string             `json:"error,omitempty"`
	Duration time.Duration      `json:"duration"`
}

// RunResult is the outcome of replaying a whole test case.
type RunResult struct {
	TestCaseID string        `json:"test_case_id"`
	Steps      []StepResult  `json:"steps"`
	Passed     bool          `json:"passed"`
	Duration   time.Duration `json:"duration"`
}

// RunTestCase replays a saved test case against a fresh browser session.
// Execution stops at the first failing step; the browser is always torn
// down before returning.
func (r *Recorder) RunTestCase(ctx context.Context, tc *types.TestCase) (*RunResult, error) {
	// replay does not capture interactions, so a headless browser serves
	settings := types.RecordingSettings{Headless: true}.Normalize()

	browserID, err := r.bridge.StartSession(ctx, tc.BaseURL, settings)
	if err != nil {
		return nil, fmt.Errorf("failed to start replay session: %w", err)
	}
	defer func() {
		if err := r.bridge.StopSession(browserID); err != nil {
			r.log.Warnf("replay of %s: browser teardown failed: %v", tc.ID, err)
		}
	}()

	// replay drives the page itself; captured echoes of those actions
	// would only accumulate in the browser queue
	if err := r.bridge.SetCaptureState(browserID, false); err != nil {
		r.log.Warnf("replay of %s: failed to disable capture: %v", tc.ID, err)
	}

	result := &RunResult{TestCaseID: tc.ID, Passed: true}
	start := time.Now()
	for _, step := range tc.Steps {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		stepStart := time.Now()
		execErr := r.bridge.ExecuteStep(browserID, step)
		sr := StepResult{Step: step, Duration: time.Since(stepStart)}
		if execErr != nil {
			sr.Error = execErr.Error()
			result.Steps = append(result.Steps, sr)
			result.Passed = false
			r.log.Errorf("replay of %s: step %d (%s %s) failed: %v", tc.ID, step.Order, step.Action, step.Selector, execErr)
			break
		}
		result.Steps = append(result.Steps, sr)
		r.log.Debugf("replay of %s: step %d (%s %s) ok in %s", tc.ID, step.Order, step.Action, step.Selector, sr.Duration)
	}
	result.Duration = time.Since(start)

	r.log.Infof("replay of %s finished: passed=%t, %d/%d steps in %s",
		tc.ID, result.Passed, len(result.Steps), len(tc.Steps), result.Duration)
	return result, nil
}

// autoExecute replays the just-recorded steps once the recording stops.
// Failures are logged; nothing about the stopped session changes.
func (r *Recorder) autoExecute(session *Session, steps []types.RecordedStep) {
	tc := &types.TestCase{
		ID:        session.id,
		Name:      session.name,
		BaseURL:   session.baseURL,
		SessionID: session.id,
		Steps:     steps,
	}
	ctx, cancel := context.WithTimeout(context.Background(), session.settings.MaxRecordingDuration())
	defer cancel()

	if _, err := r.RunTestCase(ctx, tc); err != nil {
		r.log.Errorf("auto-execution after session %s failed: %v", session.id, err)
	}
}
