package browser

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/replay/pkg/logging"
	"github.com/entrhq/replay/pkg/types"
)

// Manager owns the external browser process for every recording session:
// it launches browsers (with display-environment fallback), injects the
// interaction capture script, bridges the capture queues to the host, and
// tears sessions down. The orchestrator never touches playwright directly.
type Manager struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	playwright  *playwright.Playwright
	log         *logging.Logger
	initialized bool
}

// NewManager creates a new browser session manager.
func NewManager() *Manager {
	log, _ := logging.NewLogger("browser")
	return &Manager{
		sessions: make(map[string]*Session),
		log:      log,
	}
}

// Initialize installs and starts the Playwright driver. It must be called
// once at system start, before any session is created; session creation
// never initializes the driver lazily.
func (m *Manager) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}

	// Discard driver output so it cannot interleave with the TUI
	opts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}

	if err := playwright.Install(opts); err != nil {
		return &ResourceError{
			Op:          "install playwright driver",
			Cause:       err,
			Remediation: "check network access and disk space under ~/.cache/ms-playwright",
		}
	}

	pw, err := playwright.Run(opts)
	if err != nil {
		return &ResourceError{
			Op:          "start playwright driver",
			Cause:       err,
			Remediation: "reinstall browsers with `playwright install` if the driver version mismatches",
		}
	}

	m.playwright = pw
	m.initialized = true
	return nil
}

// StartSession launches a browser for a new recording session, navigates it
// to baseURL and installs the capture script. It returns the opaque browser
// session handle. Initialization is bounded by the settings timeout; pure
// network navigation failures do not abort the start.
func (m *Manager) StartSession(ctx context.Context, baseURL string, settings types.RecordingSettings) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return "", &ResourceError{
			Op:          "start session",
			Cause:       fmt.Errorf("browser manager not initialized"),
			Remediation: "call Initialize before starting sessions",
		}
	}

	settings = settings.Normalize()

	mode, err := ResolveDisplayMode(settings, HasNativeDisplay())
	if err != nil {
		return "", err
	}

	var vd *virtualDisplay
	if mode == DisplayVirtual {
		vd, err = startVirtualDisplay(ctx)
		if err != nil {
			return "", err
		}
	}

	timeout := float64(settings.TimeoutMs)
	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(mode == DisplayHeadless),
		Timeout:  playwright.Float(timeout),
	}
	if vd != nil {
		launchOpts.Env = map[string]string{"DISPLAY": vd.Display()}
	}

	browser, err := m.playwright.Chromium.Launch(launchOpts)
	if err != nil {
		vd.Stop()
		return "", &ResourceError{
			Op:          "launch browser",
			Cause:       err,
			Remediation: "verify the chromium binary is installed and the display is reachable",
		}
	}

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  DefaultViewportWidth,
			Height: DefaultViewportHeight,
		},
	})
	if err != nil {
		browser.Close()
		vd.Stop()
		return "", &ResourceError{Op: "create browser context", Cause: err}
	}

	page, err := bctx.NewPage()
	if err != nil {
		bctx.Close()
		browser.Close()
		vd.Stop()
		return "", &ResourceError{Op: "create page", Cause: err}
	}
	page.SetDefaultTimeout(timeout)

	// The init script reinstalls the capture layer on every navigation in
	// this page; the explicit Evaluate below covers the current document.
	if err := page.AddInitScript(playwright.Script{Content: playwright.String(captureScript)}); err != nil {
		m.log.Warnf("capture script init registration failed: %v", err)
	}

	if _, err := page.Goto(baseURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(timeout),
	}); err != nil {
		if !isNetworkNavigationError(err) {
			page.Close()
			bctx.Close()
			browser.Close()
			vd.Stop()
			return "", &ResourceError{
				Op:          fmt.Sprintf("navigate to %s", baseURL),
				Cause:       err,
				Remediation: "check the base URL",
			}
		}
		// the page failed to load but the browser is usable for capture
		m.log.Warnf("initial navigation to %s failed with network error, continuing: %v", baseURL, err)
	}

	if _, err := page.Evaluate(captureScript); err != nil {
		// degraded capture until the next navigation reinstalls the script
		m.log.Warnf("capture script injection failed: %v", err)
	}

	session := &Session{
		ID:             uuid.New().String(),
		Browser:        browser,
		Context:        bctx,
		Page:           page,
		Mode:           mode,
		BaseURL:        baseURL,
		CreatedAt:      time.Now(),
		captureEnabled: true,
		vd:             vd,
	}
	m.sessions[session.ID] = session

	m.log.Infof("browser session %s started (mode=%s, url=%s)", session.ID, mode, baseURL)
	return session.ID, nil
}

// StopSession releases the capture hooks and disposes the browser process.
// It is idempotent: stopping an unknown or already-stopped session is a
// no-op.
func (m *Manager) StopSession(id string) error {
	m.mu.Lock()
	session, exists := m.sessions[id]
	if exists {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !exists {
		return nil
	}

	// stop capturing before the page goes away; errors are irrelevant on
	// a session that is being torn down
	_, _ = session.Page.Evaluate("window.__replayRecorder && window.__replayRecorder.setCapture(false)")

	_ = session.Page.Close()
	_ = session.Context.Close()
	_ = session.Browser.Close()
	session.vd.Stop()

	m.log.Infof("browser session %s stopped", id)
	return nil
}

// CollectReady pulls the capture script's ready queue: events whose debounce
// window has elapsed. Pending (still-debouncing) input stays in the page so
// half-typed values never leak into the recording.
func (m *Manager) CollectReady(id string) ([]types.RecordedStep, error) {
	session, err := m.getSession(id)
	if err != nil {
		return nil, err
	}
	return session.drain("drainReady")
}

// CollectAll performs the terminal flush: pending input is finalized
// synchronously and returned together with the ready queue. Used by stop
// and save so that input still inside its debounce window is not lost.
func (m *Manager) CollectAll(id string) ([]types.RecordedStep, error) {
	session, err := m.getSession(id)
	if err != nil {
		return nil, err
	}
	return session.drain("drainAll")
}

// SetCaptureState toggles interaction capture inside the live page without
// restarting the session. Used by pause and resume.
func (m *Manager) SetCaptureState(id string, enabled bool) error {
	session, err := m.getSession(id)
	if err != nil {
		return err
	}
	return session.setCapture(enabled)
}

// ExecuteStep replays one recorded step against the live browser.
func (m *Manager) ExecuteStep(id string, step types.RecordedStep) error {
	session, err := m.getSession(id)
	if err != nil {
		return err
	}
	return session.executeStep(step, m.log)
}

// Screenshot writes a screenshot of the session's current page to path.
func (m *Manager) Screenshot(id string, path string) error {
	session, err := m.getSession(id)
	if err != nil {
		return err
	}
	_, err = session.Page.Screenshot(playwright.PageScreenshotOptions{
		Path: playwright.String(path),
	})
	if err != nil {
		return fmt.Errorf("screenshot failed: %w", err)
	}
	return nil
}

// Snapshot captures a cleaned snapshot of the session's current page.
func (m *Manager) Snapshot(id string) (*types.PageSnapshot, error) {
	session, err := m.getSession(id)
	if err != nil {
		return nil, err
	}
	return session.snapshot()
}

// ActiveSessions returns the handles of all live browser sessions.
func (m *Manager) ActiveSessions() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Shutdown stops all sessions and the Playwright driver.
func (m *Manager) Shutdown() error {
	for _, id := range m.ActiveSessions() {
		_ = m.StopSession(id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initialized && m.playwright != nil {
		if err := m.playwright.Stop(); err != nil {
			return fmt.Errorf("failed to stop playwright: %w", err)
		}
		m.initialized = false
	}
	return nil
}

func (m *Manager) getSession(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[id]
	if !exists {
		return nil, fmt.Errorf("browser session %q not found", id)
	}
	return session, nil
}
