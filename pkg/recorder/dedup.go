package recorder

import (
	"time"

	"github.com/entrhq/replay/pkg/types"
)

// Consolidation windows per action kind, measured from the incoming event's
// timestamp back to the most recent matching step already accepted. Each
// interaction class has its own noise shape: inputs arrive once per
// keystroke, clicks double-fire from overlapping listeners, navigations fire
// from multiple history hooks, and form events rarely repeat legitimately
// within sub-second windows. A single shared window would either drop
// legitimate rapid clicks or let typing spam through, so the table is
// deliberately per-kind.
const (
	// inputConsolidationWindow is the host-side window during which a new
	// input event on the same selector updates the existing step in place
	// instead of adding a new one. The in-page capture layer already
	// collapses individual keystrokes with its own 300 ms debounce; this
	// wider window covers events arriving across collection cycles.
	inputConsolidationWindow = 5 * time.Second

	// clickDedupeWindow drops a duplicate click on the same selector.
	clickDedupeWindow = 300 * time.Millisecond

	// navigateDedupeWindow drops a duplicate navigation to the same URL.
	navigateDedupeWindow = 2 * time.Second

	// formDedupeWindow drops duplicate select/submit events on the same
	// selector and kind.
	formDedupeWindow = 500 * time.Millisecond
)

// Consolidate merges an incoming event into an accepted step list according
// to the per-kind rules. It returns the (possibly mutated) list, the
// canonical step for the event — the existing step when the incoming event
// was a duplicate or an in-place update — and whether a new entry must be
// appended by the caller.
//
// Input steps are the only mutable kind: while within their consolidation
// window the existing step's value and timestamp are overwritten. All other
// kinds are immutable once accepted; duplicates are simply dropped.
func Consolidate(steps []types.RecordedStep, in types.RecordedStep) ([]types.RecordedStep, types.RecordedStep, bool) {
	idx := lastMatch(steps, in)
	if idx < 0 {
		return steps, in, true
	}

	existing := &steps[idx]
	window := kindWindow(in.Action)
	if absDelta(in.Timestamp, existing.Timestamp) > window {
		return steps, in, true
	}

	if in.Action == types.ActionInput {
		existing.Value = in.Value
		existing.Timestamp = in.Timestamp
	}
	return steps, *existing, false
}

// lastMatch finds the most recent accepted step with the same match key as
// the incoming event, or -1. The synthetic session_start marker never
// matches anything.
func lastMatch(steps []types.RecordedStep, in types.RecordedStep) int {
	for i := len(steps) - 1; i >= 0; i-- {
		s := steps[i]
		if s.IsSynthetic() || s.Action != in.Action {
			continue
		}
		switch in.Action {
		case types.ActionNavigate:
			if s.URL == in.URL {
				return i
			}
		case types.ActionInput, types.ActionClick, types.ActionSelect, types.ActionSubmit:
			if s.Selector != "" && s.Selector == in.Selector {
				return i
			}
		default:
			// wait steps are never consolidated
			return -1
		}
	}
	return -1
}

func kindWindow(kind types.ActionKind) time.Duration {
	switch kind {
	case types.ActionInput:
		return inputConsolidationWindow
	case types.ActionClick:
		return clickDedupeWindow
	case types.ActionNavigate:
		return navigateDedupeWindow
	case types.ActionSelect, types.ActionSubmit:
		return formDedupeWindow
	}
	return 0
}

func absDelta(a, b time.Time) time.Duration {
	d := a.Sub(b)
	if d < 0 {
		return -d
	}
	return d
}
