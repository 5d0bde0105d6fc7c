package browser

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/replay/pkg/types"
)

func TestDecodeCapturedEvents(t *testing.T) {
	// shape the playwright Evaluate result has after JSON round-tripping
	raw := []interface{}{
		map[string]interface{}{
			"action":    "click",
			"selector":  "#UserName",
			"ts":        float64(1700000000000),
			"tag":       "input",
			"inputType": "text",
		},
		map[string]interface{}{
			"action":   "input",
			"selector": "#UserName",
			"value":    "rum",
			"ts":       float64(1700000000300),
		},
		map[string]interface{}{
			"action": "navigate",
			"url":    "https://example.test/home",
			"ts":     float64(1700000001000),
		},
	}

	steps, err := decodeCapturedEvents(raw)
	require.NoError(t, err)
	require.Len(t, steps, 3)

	assert.Equal(t, types.ActionClick, steps[0].Action)
	assert.Equal(t, "#UserName", steps[0].Selector)
	assert.Equal(t, "input", steps[0].Meta.TagName)
	assert.Equal(t, "text", steps[0].Meta.InputType)
	assert.NotEmpty(t, steps[0].ID)
	assert.Equal(t, time.UnixMilli(1700000000000), steps[0].Timestamp)

	assert.Equal(t, types.ActionInput, steps[1].Action)
	assert.Equal(t, "rum", steps[1].Value)

	assert.Equal(t, types.ActionNavigate, steps[2].Action)
	assert.Equal(t, "https://example.test/home", steps[2].URL)
}

func TestDecodeCapturedEventsNil(t *testing.T) {
	steps, err := decodeCapturedEvents(nil)
	require.NoError(t, err)
	assert.Empty(t, steps)
}

func TestDecodeCapturedEventsRejectsUnknownAction(t *testing.T) {
	raw := []interface{}{
		map[string]interface{}{"action": "hover", "ts": float64(1)},
	}
	_, err := decodeCapturedEvents(raw)
	assert.Error(t, err)
}

func TestDecodeCapturedEventsRejectsSyntheticKind(t *testing.T) {
	// the session_start marker is host-side only; the page may never emit it
	raw := []interface{}{
		map[string]interface{}{"action": "session_start", "ts": float64(1)},
	}
	_, err := decodeCapturedEvents(raw)
	assert.Error(t, err)
}

func TestCaptureScriptShape(t *testing.T) {
	// keep the host-side contract and the in-page script in sync
	for _, want := range []string{
		"window.__replayRecorder",
		"drainReady",
		"drainAll",
		"setCapture",
		"INPUT_DEBOUNCE_MS = 300",
		"nth-of-type",
		"pushState",
		"replaceState",
		"popstate",
		"flushPendingNavigation",
	} {
		if !strings.Contains(captureScript, want) {
			t.Errorf("capture script missing %q", want)
		}
	}
}

func TestIsNetworkNavigationError(t *testing.T) {
	assert.False(t, isNetworkNavigationError(nil))
	assert.True(t, isNetworkNavigationError(errFromDriver("page.goto: net::ERR_NAME_NOT_RESOLVED at https://nope.invalid")))
	assert.True(t, isNetworkNavigationError(errFromDriver("page.goto: net::ERR_CONNECTION_REFUSED")))
	assert.False(t, isNetworkNavigationError(errFromDriver("page.goto: Timeout 30000ms exceeded")))
}

func TestExecuteWaitParsing(t *testing.T) {
	assert.Equal(t, 250*time.Millisecond, executeWait(types.RecordedStep{Value: "250"}))
	assert.Equal(t, time.Second, executeWait(types.RecordedStep{Value: ""}))
	assert.Equal(t, time.Second, executeWait(types.RecordedStep{Value: "not-a-number"}))
	assert.Equal(t, time.Second, executeWait(types.RecordedStep{Value: "-10"}))
}

type errFromDriver string

func (e errFromDriver) Error() string { return string(e) }
