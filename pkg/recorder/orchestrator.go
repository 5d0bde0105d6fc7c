package recorder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/entrhq/replay/pkg/logging"
	"github.com/entrhq/replay/pkg/types"
)

// BrowserBridge is the browser session manager as seen by the orchestrator.
// Implemented by *browser.Manager; tests substitute a scripted fake.
type BrowserBridge interface {
	// StartSession launches a browser for a recording and returns its
	// opaque handle. Initialization is bounded by the settings timeout.
	StartSession(ctx context.Context, baseURL string, settings types.RecordingSettings) (string, error)

	// StopSession disposes the browser, idempotently.
	StopSession(id string) error

	// CollectReady pulls events whose debounce window has elapsed.
	CollectReady(id string) ([]types.RecordedStep, error)

	// CollectAll is the terminal flush: pending input is finalized
	// synchronously and returned with the ready queue.
	CollectAll(id string) ([]types.RecordedStep, error)

	// SetCaptureState toggles in-page capture without a restart.
	SetCaptureState(id string, enabled bool) error

	// ExecuteStep replays one step against the live browser.
	ExecuteStep(id string, step types.RecordedStep) error

	// Screenshot writes a screenshot of the current page to path.
	Screenshot(id string, path string) error

	// Snapshot captures a cleaned snapshot of the current page.
	Snapshot(id string) (*types.PageSnapshot, error)
}

// DefaultPollInterval drives the interaction poll loop and the duration
// watchdog.
const DefaultPollInterval = time.Second

// Recorder orchestrates recording sessions: it owns the session registry,
// runs the per-session interaction poll loop and duration watchdog, and
// exposes the lifecycle API. It is safe for concurrent use.
type Recorder struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	bridge       BrowserBridge
	store        *TestCaseStore
	log          *logging.Logger
	pollInterval time.Duration
	dataDir      string
}

// NewRecorder creates a recording orchestrator on top of a browser bridge
// and a test case store.
func NewRecorder(bridge BrowserBridge, store *TestCaseStore) *Recorder {
	log, _ := logging.NewLogger("recorder")
	return &Recorder{
		sessions:     make(map[string]*Session),
		bridge:       bridge,
		store:        store,
		log:          log,
		pollInterval: DefaultPollInterval,
	}
}

// SetPollInterval overrides the poll/watchdog tick interval. Intended for
// configuration and tests; takes effect for sessions started afterwards.
func (r *Recorder) SetPollInterval(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d > 0 {
		r.pollInterval = d
	}
}

// SetDataDir sets the directory screenshots are stored under.
func (r *Recorder) SetDataDir(dir string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dataDir = dir
}

// StartRecording creates a session in the Recording state, launches its
// browser and starts the poll loop and duration watchdog.
func (r *Recorder) StartRecording(ctx context.Context, name, baseURL string, settings types.RecordingSettings) (SessionInfo, error) {
	settings = settings.Normalize()

	ignoreURL, err := compileIgnorePatterns(settings.IgnoreURLPatterns)
	if err != nil {
		return SessionInfo{}, fmt.Errorf("invalid ignore_url_patterns: %w", err)
	}

	startCtx, cancelStart := context.WithTimeout(ctx, settings.Timeout())
	defer cancelStart()

	browserID, err := r.bridge.StartSession(startCtx, baseURL, settings)
	if err != nil {
		return SessionInfo{}, err
	}

	session := newSession(name, baseURL, browserID, settings, ignoreURL)

	loopCtx, cancel := context.WithCancel(context.Background())
	session.cancel = cancel

	r.mu.Lock()
	r.sessions[session.id] = session
	interval := r.pollInterval
	r.mu.Unlock()

	go r.pollLoop(loopCtx, session, interval)
	go r.watchdog(loopCtx, session, interval)

	r.log.Infof("recording session %s (%s) started on %s", session.id, name, baseURL)
	return session.Info(), nil
}

// GetRecordingSession returns the session projection for id.
func (r *Recorder) GetRecordingSession(id string) (SessionInfo, error) {
	session, err := r.lookup(id)
	if err != nil {
		return SessionInfo{}, err
	}
	return session.Info(), nil
}

// GetActiveRecordingSessions lists every session in the registry.
func (r *Recorder) GetActiveRecordingSessions() []SessionInfo {
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	infos := make([]SessionInfo, 0, len(sessions))
	for _, s := range sessions {
		infos = append(infos, s.Info())
	}
	return infos
}

// PauseRecording freezes duration accounting and disables in-page capture.
// Legal only from Recording.
func (r *Recorder) PauseRecording(id string) (SessionInfo, error) {
	session, err := r.lookup(id)
	if err != nil {
		return SessionInfo{}, err
	}

	session.mu.Lock()
	if session.status != types.StatusRecording {
		defer session.mu.Unlock()
		return SessionInfo{}, &StateError{Op: "pause", Status: session.status}
	}
	session.recorded += time.Since(session.resumedAt)
	session.status = types.StatusPaused
	browserID := session.browserID
	info := session.infoLocked()
	session.mu.Unlock()

	if err := r.bridge.SetCaptureState(browserID, false); err != nil {
		// capture may be degraded for the pause but the session stands
		r.log.Warnf("session %s: failed to disable capture on pause: %v", id, err)
	}
	return info, nil
}

// ResumeRecording re-enables capture and duration accounting. Legal only
// from Paused.
func (r *Recorder) ResumeRecording(id string) (SessionInfo, error) {
	session, err := r.lookup(id)
	if err != nil {
		return SessionInfo{}, err
	}

	session.mu.Lock()
	if session.status != types.StatusPaused {
		defer session.mu.Unlock()
		return SessionInfo{}, &StateError{Op: "resume", Status: session.status}
	}
	session.resumedAt = time.Now()
	session.status = types.StatusRecording
	browserID := session.browserID
	info := session.infoLocked()
	session.mu.Unlock()

	if err := r.bridge.SetCaptureState(browserID, true); err != nil {
		r.log.Warnf("session %s: failed to re-enable capture on resume: %v", id, err)
	}
	return info, nil
}

// StopRecording ends the session: it cancels the poll loop and watchdog,
// synchronously flushes every remaining captured event (including input
// still inside its debounce window), and tears down the browser. Stopping
// an already-stopped session is a no-op so the duration watchdog and a
// manual stop can race safely.
func (r *Recorder) StopRecording(id string) (SessionInfo, error) {
	session, err := r.lookup(id)
	if err != nil {
		return SessionInfo{}, err
	}

	info, finished, steps := r.finishSession(session, types.StatusStopped)
	if !finished {
		return info, nil
	}

	if session.settings.AutoExecuteAfterRecording && len(steps) > 0 {
		go r.autoExecute(session, steps)
	}
	return session.Info(), nil
}

// finishSession moves a session to a terminal state, performing the final
// flush and browser teardown. It returns false when the session was already
// terminal, making stop idempotent. The returned steps are the final
// non-synthetic step list.
func (r *Recorder) finishSession(session *Session, terminal types.RecordingStatus) (SessionInfo, bool, []types.RecordedStep) {
	session.mu.Lock()
	switch session.status {
	case types.StatusStopped, types.StatusCompleted:
		info := session.infoLocked()
		session.mu.Unlock()
		return info, false, nil
	case types.StatusRecording:
		session.recorded += time.Since(session.resumedAt)
	}
	session.status = terminal
	session.endedAt = time.Now()
	browserID := session.browserID
	cancel := session.cancel
	session.mu.Unlock()

	// no further poll or watchdog ticks once teardown begins
	if cancel != nil {
		cancel()
	}

	// terminal flush: drain everything, debounce windows do not apply.
	// losing late-arriving input here is the exact bug class this wait
	// exists to prevent, so the collection round-trip is synchronous.
	// collectMu orders the flush after any collection already in flight,
	// whose batch must still reach the final list.
	session.collectMu.Lock()
	events, err := r.bridge.CollectAll(browserID)
	if err != nil {
		r.log.Warnf("session %s: final collection failed: %v", session.id, err)
	}

	session.mu.Lock()
	for _, ev := range events {
		r.ingestLocked(session, ev)
	}
	steps := session.visibleStepsLocked()
	session.mu.Unlock()
	session.collectMu.Unlock()

	if err := r.bridge.StopSession(browserID); err != nil {
		r.log.Warnf("session %s: browser teardown failed: %v", session.id, err)
	}

	r.log.Infof("recording session %s finished with %d steps (%s)", session.id, len(steps), terminal)
	return session.Info(), true, steps
}

// AddStep accepts an explicit step through the external API. Legal only
// while Recording; subject to consolidation and the step ceiling.
func (r *Recorder) AddStep(id string, step types.RecordedStep) (types.RecordedStep, error) {
	session, err := r.lookup(id)
	if err != nil {
		return types.RecordedStep{}, err
	}

	if !step.Action.Valid() || step.Action == types.ActionSessionStart {
		return types.RecordedStep{}, fmt.Errorf("invalid step action %q", step.Action)
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.status != types.StatusRecording {
		return types.RecordedStep{}, &StateError{Op: "add step", Status: session.status}
	}
	if session.stepCountLocked() >= session.settings.MaxSteps {
		return types.RecordedStep{}, &StepLimitError{Max: session.settings.MaxSteps}
	}

	if step.ID == "" {
		step.ID = uuid.New().String()
	}
	if step.Timestamp.IsZero() {
		step.Timestamp = time.Now()
	}
	step.Meta.Manual = true

	accepted, _ := r.ingestLocked(session, step)
	return accepted, nil
}

// GetLiveSteps returns the de-duplicated, ordered step view including a
// just-in-time collection of ready events, so a caller polling faster than
// the poll loop still sees a consistent projection. The synthetic
// session_start marker is excluded.
func (r *Recorder) GetLiveSteps(id string) ([]types.RecordedStep, error) {
	session, err := r.lookup(id)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	recording := session.status == types.StatusRecording
	browserID := session.browserID
	session.mu.Unlock()

	if recording {
		session.collectMu.Lock()
		events, err := r.bridge.CollectReady(browserID)
		if err != nil {
			r.log.Warnf("session %s: live collection failed: %v", id, err)
		} else {
			session.mu.Lock()
			for _, ev := range events {
				r.ingestLocked(session, ev)
			}
			session.mu.Unlock()
		}
		session.collectMu.Unlock()
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	return session.visibleStepsLocked(), nil
}

// SaveAsTestCase performs the terminal flush, persists the non-synthetic
// steps as a reusable test case with a snapshot of the final page, and
// marks the session Completed. Legal from Recording or Paused.
func (r *Recorder) SaveAsTestCase(id, name, description string) (*types.TestCase, error) {
	session, err := r.lookup(id)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	if session.status != types.StatusRecording && session.status != types.StatusPaused {
		defer session.mu.Unlock()
		return nil, &StateError{Op: "save as test case", Status: session.status}
	}
	browserID := session.browserID
	session.mu.Unlock()

	// snapshot before teardown; a failed snapshot degrades the artifact,
	// it does not block the save
	snap, err := r.bridge.Snapshot(browserID)
	if err != nil {
		r.log.Warnf("session %s: page snapshot failed: %v", id, err)
		snap = nil
	}

	info, finished, steps := r.finishSession(session, types.StatusCompleted)
	if !finished {
		// lost the race with a concurrent stop
		return nil, &StateError{Op: "save as test case", Status: info.Status}
	}

	tc := &types.TestCase{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		BaseURL:     session.baseURL,
		SessionID:   session.id,
		Steps:       steps,
		Snapshot:    snap,
		CreatedAt:   time.Now(),
	}
	if err := r.store.Save(tc); err != nil {
		return nil, fmt.Errorf("failed to persist test case: %w", err)
	}

	r.log.Infof("session %s saved as test case %s (%q, %d steps)", id, tc.ID, name, len(steps))
	return tc, nil
}

// DeleteRecordingSession removes a session in any state, tearing down its
// live browser resource. Returns false for unknown ids.
func (r *Recorder) DeleteRecordingSession(id string) bool {
	r.mu.Lock()
	session, exists := r.sessions[id]
	if exists {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if !exists {
		return false
	}

	session.mu.Lock()
	cancel := session.cancel
	browserID := session.browserID
	live := session.status == types.StatusRecording || session.status == types.StatusPaused
	session.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if live {
		if err := r.bridge.StopSession(browserID); err != nil {
			r.log.Warnf("session %s: browser teardown on delete failed: %v", id, err)
		}
	}
	r.log.Infof("recording session %s deleted", id)
	return true
}

// pollLoop drains ready events from the browser into the session's step
// list at a fixed interval until the session context is cancelled.
func (r *Recorder) pollLoop(ctx context.Context, session *Session, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		session.mu.Lock()
		recording := session.status == types.StatusRecording
		browserID := session.browserID
		session.mu.Unlock()
		if !recording {
			continue
		}

		session.collectMu.Lock()
		events, err := r.bridge.CollectReady(browserID)
		if err != nil {
			session.collectMu.Unlock()
			// capture is degraded for this cycle, not fatal
			r.log.Warnf("session %s: collection failed: %v", session.id, err)
			continue
		}

		// the batch is ingested even when stop landed mid round-trip:
		// the events were captured while recording, and the terminal
		// flush waits on collectMu for them
		session.mu.Lock()
		for _, ev := range events {
			r.ingestLocked(session, ev)
		}
		session.mu.Unlock()
		session.collectMu.Unlock()
	}
}

// watchdog auto-stops the session once accumulated recording duration
// exceeds the configured maximum. This is the one transition not driven by
// an external caller; it relies on StopRecording being idempotent to
// tolerate racing a manual stop.
func (r *Recorder) watchdog(ctx context.Context, session *Session, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	max := session.settings.MaxRecordingDuration()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		session.mu.Lock()
		exceeded := session.liveDurationLocked() >= max
		session.mu.Unlock()

		if exceeded {
			r.log.Infof("session %s: maximum recording duration %s reached, stopping", session.id, max)
			if _, err := r.StopRecording(session.id); err != nil {
				r.log.Errorf("session %s: watchdog stop failed: %v", session.id, err)
			}
			return
		}
	}
}

// ingestLocked runs one event through the consolidation rules, the URL
// ignore patterns and the step ceiling, accepting it into the session's
// step list when it survives. Caller holds session.mu.
func (r *Recorder) ingestLocked(session *Session, ev types.RecordedStep) (types.RecordedStep, bool) {
	if ev.Action == types.ActionNavigate && session.ignoredURL(ev.URL) {
		return ev, false
	}

	steps, canonical, added := Consolidate(session.steps, ev)
	session.steps = steps
	if !added {
		return canonical, false
	}

	if session.stepCountLocked() >= session.settings.MaxSteps {
		r.log.Warnf("session %s: step limit %d reached, dropping captured %s", session.id, session.settings.MaxSteps, ev.Action)
		return ev, false
	}

	accepted := session.appendLocked(canonical)
	if session.settings.CaptureScreenshots {
		r.captureScreenshot(session, &accepted)
		session.steps[len(session.steps)-1] = accepted
	}
	return accepted, true
}

// captureScreenshot attaches a screenshot path to an accepted step. Errors
// only degrade the step's metadata.
func (r *Recorder) captureScreenshot(session *Session, step *types.RecordedStep) {
	if r.dataDir == "" {
		return
	}
	dir := filepath.Join(r.dataDir, "screenshots", session.id)
	if err := os.MkdirAll(dir, 0750); err != nil {
		r.log.Warnf("session %s: screenshot directory failed: %v", session.id, err)
		return
	}
	path := filepath.Join(dir, fmt.Sprintf("step-%04d.png", step.Order))
	if err := r.bridge.Screenshot(session.browserID, path); err != nil {
		r.log.Warnf("session %s: screenshot for step %d failed: %v", session.id, step.Order, err)
		return
	}
	step.Meta.Screenshot = path
}

func (r *Recorder) lookup(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, exists := r.sessions[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return session, nil
}
