package types

import "time"

// ActionKind defines the kind of user interaction a recorded step represents.
type ActionKind string

const (
	ActionClick        ActionKind = "click"         // ActionClick is a pointer click on an element.
	ActionInput        ActionKind = "input"         // ActionInput is text entry into a form field.
	ActionSelect       ActionKind = "select"        // ActionSelect is a selection change (select, checkbox, radio).
	ActionSubmit       ActionKind = "submit"        // ActionSubmit is a form submission.
	ActionNavigate     ActionKind = "navigate"      // ActionNavigate is a page navigation (link, history, back/forward).
	ActionWait         ActionKind = "wait"          // ActionWait is an explicit pause during playback.
	ActionSessionStart ActionKind = "session_start" // ActionSessionStart is the internal marker opening a recording; never shown to callers.
)

// Valid reports whether the kind is one of the known action kinds.
func (k ActionKind) Valid() bool {
	switch k {
	case ActionClick, ActionInput, ActionSelect, ActionSubmit, ActionNavigate, ActionWait, ActionSessionStart:
		return true
	}
	return false
}

// StepMeta carries the fixed, per-step metadata schema shared between the
// in-page capture layer and the consolidation engine. It is deliberately a
// small struct rather than an open map so the two sides cannot drift apart.
type StepMeta struct {
	// BrowserSession is the handle of the owning browser session. Only set
	// on the synthetic session_start step.
	BrowserSession string `json:"browser_session,omitempty"`

	// TagName is the lowercase tag of the element the event targeted.
	TagName string `json:"tag_name,omitempty"`

	// InputType is the type attribute of the input element, if any.
	InputType string `json:"input_type,omitempty"`

	// Screenshot is the path of the screenshot taken for this step, if
	// screenshot capture is enabled.
	Screenshot string `json:"screenshot,omitempty"`

	// Manual marks steps added through the AddStep API rather than the
	// in-page capture layer.
	Manual bool `json:"manual,omitempty"`
}

// RecordedStep is one canonical user interaction accepted into a recording
// session, ordered by the Order field assigned at acceptance time.
type RecordedStep struct {
	// ID uniquely identifies the step.
	ID string `json:"id"`

	// Order is the monotonic position of the step within its session.
	Order int `json:"order"`

	// Action is the kind of interaction.
	Action ActionKind `json:"action"`

	// Selector identifies the target element, when the action has one.
	Selector string `json:"selector,omitempty"`

	// Value is the input or selection value, when the action has one.
	Value string `json:"value,omitempty"`

	// URL is the destination for navigate actions.
	URL string `json:"url,omitempty"`

	// Timestamp is the wall-clock time the interaction was finalized.
	Timestamp time.Time `json:"timestamp"`

	// Meta holds the fixed metadata schema for the step.
	Meta StepMeta `json:"meta,omitempty"`
}

// IsSynthetic reports whether the step is the internal session_start marker.
func (s RecordedStep) IsSynthetic() bool {
	return s.Action == ActionSessionStart
}

// RecordingStatus is the lifecycle state of a recording session.
type RecordingStatus string

const (
	StatusRecording RecordingStatus = "recording" // StatusRecording means the session is live and accepting steps.
	StatusPaused    RecordingStatus = "paused"    // StatusPaused means capture is suspended and duration accounting frozen.
	StatusStopped   RecordingStatus = "stopped"   // StatusStopped means the session ended without being saved.
	StatusCompleted RecordingStatus = "completed" // StatusCompleted means the session was saved as a test case.
)
