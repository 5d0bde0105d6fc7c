package recorder

import (
	"context"
	"sync"
	"time"

	"github.com/gobwas/glob"
	"github.com/google/uuid"

	"github.com/entrhq/replay/pkg/types"
)

// Session is one recording lifecycle: one owned browser session, one
// ordered step list, one status. All mutation goes through the Recorder's
// session-scoped operations; callers only ever see copies of the step list.
type Session struct {
	mu sync.Mutex

	id       string
	name     string
	baseURL  string
	settings types.RecordingSettings

	status    types.RecordingStatus
	createdAt time.Time
	endedAt   time.Time

	// recorded is the duration accumulated across recording stretches;
	// resumedAt anchors the current stretch while status is Recording.
	recorded  time.Duration
	resumedAt time.Time

	// steps is ordered by the Order field, assigned monotonically at
	// acceptance. steps[0] is always the synthetic session_start marker
	// carrying the browser session handle.
	steps     []types.RecordedStep
	nextOrder int

	browserID string
	cancel    context.CancelFunc

	// collectMu serializes browser collection round-trips with the
	// terminal flush: a batch claimed from the browser queue while
	// recording is ingested before the flush takes the final step list,
	// even when stop lands mid round-trip.
	collectMu sync.Mutex

	// ignoreURL holds the compiled navigation ignore patterns.
	ignoreURL []glob.Glob
}

// SessionInfo is the read-only projection of a session returned to callers.
type SessionInfo struct {
	ID        string                  `json:"id"`
	Name      string                  `json:"name"`
	BaseURL   string                  `json:"base_url"`
	Status    types.RecordingStatus   `json:"status"`
	StepCount int                     `json:"step_count"`
	CreatedAt time.Time               `json:"created_at"`
	EndedAt   time.Time               `json:"ended_at,omitempty"`
	Duration  time.Duration           `json:"duration"`
	Settings  types.RecordingSettings `json:"settings"`
}

func newSession(name, baseURL, browserID string, settings types.RecordingSettings, ignoreURL []glob.Glob) *Session {
	now := time.Now()
	s := &Session{
		id:        uuid.New().String(),
		name:      name,
		baseURL:   baseURL,
		settings:  settings,
		status:    types.StatusRecording,
		createdAt: now,
		resumedAt: now,
		browserID: browserID,
		nextOrder: 1,
		ignoreURL: ignoreURL,
	}
	// the marker ties the session to its browser resource; it is stripped
	// from every caller-facing view
	s.steps = []types.RecordedStep{{
		ID:        uuid.New().String(),
		Order:     0,
		Action:    types.ActionSessionStart,
		Timestamp: now,
		Meta:      types.StepMeta{BrowserSession: browserID},
	}}
	return s
}

// appendLocked accepts a step, assigning its order. Caller holds mu.
func (s *Session) appendLocked(step types.RecordedStep) types.RecordedStep {
	step.Order = s.nextOrder
	s.nextOrder++
	s.steps = append(s.steps, step)
	return step
}

// stepCountLocked counts accepted non-synthetic steps. Caller holds mu.
func (s *Session) stepCountLocked() int {
	return len(s.steps) - 1
}

// liveDurationLocked is the accumulated recording duration including the
// in-flight stretch. Caller holds mu.
func (s *Session) liveDurationLocked() time.Duration {
	d := s.recorded
	if s.status == types.StatusRecording {
		d += time.Since(s.resumedAt)
	}
	return d
}

// visibleStepsLocked copies the step list without the synthetic marker.
// Caller holds mu.
func (s *Session) visibleStepsLocked() []types.RecordedStep {
	out := make([]types.RecordedStep, 0, len(s.steps))
	for _, step := range s.steps {
		if step.IsSynthetic() {
			continue
		}
		out = append(out, step)
	}
	return out
}

// infoLocked builds the caller-facing projection. Caller holds mu.
func (s *Session) infoLocked() SessionInfo {
	return SessionInfo{
		ID:        s.id,
		Name:      s.name,
		BaseURL:   s.baseURL,
		Status:    s.status,
		StepCount: s.stepCountLocked(),
		CreatedAt: s.createdAt,
		EndedAt:   s.endedAt,
		Duration:  s.liveDurationLocked(),
		Settings:  s.settings,
	}
}

// Info returns the caller-facing projection of the session.
func (s *Session) Info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.infoLocked()
}

// ignoredURL reports whether a captured navigation URL matches one of the
// session's ignore patterns.
func (s *Session) ignoredURL(url string) bool {
	for _, g := range s.ignoreURL {
		if g.Match(url) {
			return true
		}
	}
	return false
}

// compileIgnorePatterns compiles the settings' URL glob patterns.
func compileIgnorePatterns(patterns []string) ([]glob.Glob, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, err
		}
		globs = append(globs, g)
	}
	return globs, nil
}
