package recorder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/replay/pkg/types"
)

func step(kind types.ActionKind, selector, value, url string, at time.Time) types.RecordedStep {
	return types.RecordedStep{
		ID:        "step-" + string(kind),
		Action:    kind,
		Selector:  selector,
		Value:     value,
		URL:       url,
		Timestamp: at,
	}
}

func TestConsolidateInputUpdatesInPlace(t *testing.T) {
	base := time.Now()
	steps := []types.RecordedStep{
		step(types.ActionInput, "#UserName", "r", "", base),
	}

	// a later value within the window replaces the existing step's value
	steps, canonical, added := Consolidate(steps, step(types.ActionInput, "#UserName", "rum", "", base.Add(2*time.Second)))
	assert.False(t, added)
	assert.Len(t, steps, 1)
	assert.Equal(t, "rum", canonical.Value)
	assert.Equal(t, "rum", steps[0].Value)
	assert.Equal(t, base.Add(2*time.Second), steps[0].Timestamp)
}

func TestConsolidateInputWindowAnchorsOnLastUpdate(t *testing.T) {
	base := time.Now()
	steps := []types.RecordedStep{
		step(types.ActionInput, "#q", "a", "", base),
	}

	// each update moves the timestamp, so a slow typist stays in one step
	steps, _, added := Consolidate(steps, step(types.ActionInput, "#q", "ab", "", base.Add(4*time.Second)))
	require.False(t, added)
	steps, _, added = Consolidate(steps, step(types.ActionInput, "#q", "abc", "", base.Add(8*time.Second)))
	require.False(t, added)
	assert.Len(t, steps, 1)
	assert.Equal(t, "abc", steps[0].Value)
}

func TestConsolidateInputOutsideWindowIsNewStep(t *testing.T) {
	base := time.Now()
	steps := []types.RecordedStep{
		step(types.ActionInput, "#q", "first", "", base),
	}

	out, canonical, added := Consolidate(steps, step(types.ActionInput, "#q", "second", "", base.Add(6*time.Second)))
	assert.True(t, added)
	assert.Equal(t, "second", canonical.Value)
	assert.Equal(t, "first", out[0].Value)
}

func TestConsolidateInputDifferentSelectors(t *testing.T) {
	base := time.Now()
	steps := []types.RecordedStep{
		step(types.ActionInput, "#UserName", "rum", "", base),
	}

	_, _, added := Consolidate(steps, step(types.ActionInput, "#Password", "secret", "", base.Add(time.Second)))
	assert.True(t, added, "inputs on different fields must stay separate")
}

func TestConsolidateClickWindow(t *testing.T) {
	base := time.Now()

	tests := []struct {
		name  string
		delta time.Duration
		added bool
	}{
		{"within window is dropped", 200 * time.Millisecond, false},
		{"at boundary is dropped", 300 * time.Millisecond, false},
		{"past window is kept", 400 * time.Millisecond, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			steps := []types.RecordedStep{
				step(types.ActionClick, "#submit", "", "", base),
			}
			out, _, added := Consolidate(steps, step(types.ActionClick, "#submit", "", "", base.Add(tt.delta)))
			assert.Equal(t, tt.added, added)
			assert.Len(t, out, 1, "Consolidate never appends; the caller does")
		})
	}
}

func TestConsolidateClickDifferentSelectors(t *testing.T) {
	base := time.Now()
	steps := []types.RecordedStep{
		step(types.ActionClick, "#a", "", "", base),
	}

	_, _, added := Consolidate(steps, step(types.ActionClick, "#b", "", "", base.Add(50*time.Millisecond)))
	assert.True(t, added)
}

func TestConsolidateNavigate(t *testing.T) {
	base := time.Now()

	t.Run("same url within window is dropped", func(t *testing.T) {
		steps := []types.RecordedStep{
			step(types.ActionNavigate, "", "", "https://example.com/a", base),
		}
		_, _, added := Consolidate(steps, step(types.ActionNavigate, "", "", "https://example.com/a", base.Add(time.Second)))
		assert.False(t, added)
	})

	t.Run("different url within window is kept", func(t *testing.T) {
		steps := []types.RecordedStep{
			step(types.ActionNavigate, "", "", "https://example.com/a", base),
		}
		_, _, added := Consolidate(steps, step(types.ActionNavigate, "", "", "https://example.com/b", base.Add(time.Second)))
		assert.True(t, added)
	})

	t.Run("same url past window is kept", func(t *testing.T) {
		steps := []types.RecordedStep{
			step(types.ActionNavigate, "", "", "https://example.com/a", base),
		}
		_, _, added := Consolidate(steps, step(types.ActionNavigate, "", "", "https://example.com/a", base.Add(3*time.Second)))
		assert.True(t, added)
	})
}

func TestConsolidateFormEvents(t *testing.T) {
	base := time.Now()

	steps := []types.RecordedStep{
		step(types.ActionSelect, "#country", "NO", "", base),
	}
	_, _, added := Consolidate(steps, step(types.ActionSelect, "#country", "NO", "", base.Add(300*time.Millisecond)))
	assert.False(t, added, "duplicate select within 500ms")

	// a submit on the same selector is a different kind; it never matches
	// the select
	_, _, added = Consolidate(steps, step(types.ActionSubmit, "#country", "", "", base.Add(100*time.Millisecond)))
	assert.True(t, added)
}

func TestConsolidateWaitNeverMerges(t *testing.T) {
	base := time.Now()
	steps := []types.RecordedStep{
		step(types.ActionWait, "", "1000ms", "", base),
	}

	_, _, added := Consolidate(steps, step(types.ActionWait, "", "1000ms", "", base.Add(10*time.Millisecond)))
	assert.True(t, added)
}

func TestConsolidateMatchesMostRecentOccurrence(t *testing.T) {
	base := time.Now()
	steps := []types.RecordedStep{
		step(types.ActionClick, "#btn", "", "", base),
		step(types.ActionClick, "#other", "", "", base.Add(time.Second)),
		step(types.ActionClick, "#btn", "", "", base.Add(2*time.Second)),
	}

	// within 300ms of the later #btn click, far past the first
	_, canonical, added := Consolidate(steps, step(types.ActionClick, "#btn", "", "", base.Add(2*time.Second+100*time.Millisecond)))
	assert.False(t, added)
	assert.Equal(t, base.Add(2*time.Second), canonical.Timestamp)
}

func TestConsolidateSkipsSyntheticMarker(t *testing.T) {
	base := time.Now()
	steps := []types.RecordedStep{
		{Action: types.ActionSessionStart, Timestamp: base},
	}

	_, _, added := Consolidate(steps, step(types.ActionClick, "#btn", "", "", base.Add(10*time.Millisecond)))
	assert.True(t, added)
}

func TestConsolidateEmptySelectorNeverMatches(t *testing.T) {
	base := time.Now()
	steps := []types.RecordedStep{
		step(types.ActionClick, "", "", "", base),
	}

	_, _, added := Consolidate(steps, step(types.ActionClick, "", "", "", base.Add(10*time.Millisecond)))
	assert.True(t, added, "selector-less events cannot be correlated")
}
