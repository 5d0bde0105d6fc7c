package types

import "time"

// Default recording settings, applied by Normalize.
const (
	DefaultTimeoutMs           = 30000
	DefaultVirtualTimeoutMs    = 60000
	DefaultMaxSteps            = 200
	DefaultMaxRecordingMinutes = 30
	DefaultReplayStepTimeoutMs = 5000
)

// RecordingSettings configures one recording session.
type RecordingSettings struct {
	// Headless permits a headless launch when no display is available.
	// Interaction capture requires a visible browser, so this is an
	// explicit opt-in to degraded capture, never a silent fallback.
	Headless bool `json:"headless" yaml:"headless"`

	// ForceVisible requires a visible browser even when Headless is set.
	ForceVisible bool `json:"force_visible" yaml:"force_visible"`

	// UseVirtualDisplay allows spinning up a virtual framebuffer when no
	// physical display is available.
	UseVirtualDisplay bool `json:"use_virtual_display" yaml:"use_virtual_display"`

	// TimeoutMs bounds browser session initialization, in milliseconds.
	TimeoutMs int `json:"timeout_ms" yaml:"timeout_ms"`

	// CaptureScreenshots enables a screenshot per accepted step.
	CaptureScreenshots bool `json:"capture_screenshots" yaml:"capture_screenshots"`

	// MaxSteps caps the number of recorded steps per session.
	MaxSteps int `json:"max_steps" yaml:"max_steps"`

	// MaxRecordingMinutes caps accumulated recording time; the duration
	// watchdog auto-stops the session once exceeded.
	MaxRecordingMinutes int `json:"max_recording_minutes" yaml:"max_recording_minutes"`

	// AutoExecuteAfterRecording replays the recorded steps as a test case
	// asynchronously after the session stops.
	AutoExecuteAfterRecording bool `json:"auto_execute_after_recording" yaml:"auto_execute_after_recording"`

	// IgnoreURLPatterns drops captured navigations whose URL matches any
	// of these glob patterns (analytics beacons, tracking iframes).
	IgnoreURLPatterns []string `json:"ignore_url_patterns,omitempty" yaml:"ignore_url_patterns,omitempty"`
}

// Normalize fills in defaults for unset numeric options and returns the
// settings. The zero value is a usable configuration.
func (s RecordingSettings) Normalize() RecordingSettings {
	if s.TimeoutMs <= 0 {
		if s.UseVirtualDisplay {
			s.TimeoutMs = DefaultVirtualTimeoutMs
		} else {
			s.TimeoutMs = DefaultTimeoutMs
		}
	}
	if s.MaxSteps <= 0 {
		s.MaxSteps = DefaultMaxSteps
	}
	if s.MaxRecordingMinutes <= 0 {
		s.MaxRecordingMinutes = DefaultMaxRecordingMinutes
	}
	return s
}

// Timeout returns the initialization timeout as a duration.
func (s RecordingSettings) Timeout() time.Duration {
	return time.Duration(s.TimeoutMs) * time.Millisecond
}

// MaxRecordingDuration returns the recording ceiling as a duration.
func (s RecordingSettings) MaxRecordingDuration() time.Duration {
	return time.Duration(s.MaxRecordingMinutes) * time.Minute
}
