package browser

import (
	"fmt"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/replay/pkg/types"
)

// Default values for browser operations
const (
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720

	// stepWaitTimeout bounds the element wait before replaying one step.
	stepWaitTimeout = float64(types.DefaultReplayStepTimeoutMs) // milliseconds

	// navigateWaitTimeout bounds document-ready waits during replay.
	navigateWaitTimeout = 30000.0 // milliseconds
)

// Session is one live browser owned by a recording session: the playwright
// process handles, the capture-state flag and (when used) the virtual
// display. It is created and disposed exclusively by the Manager.
type Session struct {
	// ID is the opaque browser session handle.
	ID string

	// Browser is the Playwright browser instance
	Browser playwright.Browser

	// Context is the browser context (isolated session)
	Context playwright.BrowserContext

	// Page is the current active page
	Page playwright.Page

	// Mode is the display strategy the session was launched with.
	Mode DisplayMode

	// BaseURL is the URL the session was started against.
	BaseURL string

	// CreatedAt is the timestamp when the session was created
	CreatedAt time.Time

	// captureEnabled mirrors the in-page capture flag.
	captureEnabled bool

	// vd is the session-owned virtual display, nil unless Mode is virtual.
	vd *virtualDisplay
}

// ResourceError is a fatal session-creation failure: the browser could not
// be launched or provisioned. It carries enough detail for the caller to
// act on, rather than an opaque driver trace.
type ResourceError struct {
	// Op names the operation that failed.
	Op string

	// Cause is the underlying error.
	Cause error

	// Remediation is a short hint about how to fix the environment.
	Remediation string
}

func (e *ResourceError) Error() string {
	if e.Remediation != "" {
		return fmt.Sprintf("%s: %v (%s)", e.Op, e.Cause, e.Remediation)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

func (e *ResourceError) Unwrap() error {
	return e.Cause
}

// networkErrorMarkers are driver error fragments that indicate the target
// page failed to load for purely network reasons. The browser itself is
// fine in these cases, so session creation proceeds.
var networkErrorMarkers = []string{
	"ERR_NAME_NOT_RESOLVED",
	"ERR_CONNECTION_REFUSED",
	"ERR_CONNECTION_TIMED_OUT",
	"ERR_INTERNET_DISCONNECTED",
	"ERR_ADDRESS_UNREACHABLE",
	"ERR_EMPTY_RESPONSE",
}

// isNetworkNavigationError reports whether a navigation failure is a pure
// network failure (name resolution, connection refused) rather than a
// browser or driver fault.
func isNetworkNavigationError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range networkErrorMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// executeWait parses the wait duration from a wait step's value; the value
// is milliseconds, defaulting to one second when absent or malformed.
func executeWait(step types.RecordedStep) time.Duration {
	var ms int
	if _, err := fmt.Sscanf(step.Value, "%d", &ms); err != nil || ms <= 0 {
		ms = 1000
	}
	return time.Duration(ms) * time.Millisecond
}
