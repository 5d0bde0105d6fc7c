package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/entrhq/replay/pkg/recorder"
	"github.com/entrhq/replay/pkg/types"
)

const liveTickInterval = 500 * time.Millisecond

// model is the Bubble Tea state for a live recording session.
type model struct {
	spinner spinner.Model

	rec      *recorder.Recorder
	name     string
	baseURL  string
	settings types.RecordingSettings

	// session state, refreshed on every live tick
	session recorder.SessionInfo
	steps   []types.RecordedStep
	started bool

	saved *types.TestCase
	toast string
	err   error

	width  int
	height int
}

type sessionStartedMsg struct{ info recorder.SessionInfo }

type sessionErrMsg struct{ err error }

type liveTickMsg struct{}

type liveStateMsg struct {
	info  recorder.SessionInfo
	steps []types.RecordedStep
}

type savedMsg struct{ tc *types.TestCase }

type toastClearMsg struct{}

func newModel(rec *recorder.Recorder, name, baseURL string, settings types.RecordingSettings) model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle
	return model{
		spinner:  sp,
		rec:      rec,
		name:     name,
		baseURL:  baseURL,
		settings: settings,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startSession())
}

// startSession launches the browser off the UI loop; session start can take
// tens of seconds when a browser install or virtual display is involved.
func (m model) startSession() tea.Cmd {
	rec, name, baseURL, settings := m.rec, m.name, m.baseURL, m.settings
	return func() tea.Msg {
		info, err := rec.StartRecording(context.Background(), name, baseURL, settings)
		if err != nil {
			return sessionErrMsg{err: err}
		}
		return sessionStartedMsg{info: info}
	}
}

func (m model) liveTick() tea.Cmd {
	return tea.Tick(liveTickInterval, func(time.Time) tea.Msg {
		return liveTickMsg{}
	})
}

func (m model) fetchLiveState() tea.Cmd {
	rec, id := m.rec, m.session.ID
	return func() tea.Msg {
		info, err := rec.GetRecordingSession(id)
		if err != nil {
			return sessionErrMsg{err: err}
		}
		steps, err := rec.GetLiveSteps(id)
		if err != nil {
			return sessionErrMsg{err: err}
		}
		return liveStateMsg{info: info, steps: steps}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var spinnerCmd tea.Cmd
	m.spinner, spinnerCmd = m.spinner.Update(msg)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, spinnerCmd

	case sessionStartedMsg:
		m.started = true
		m.session = msg.info
		return m, tea.Batch(spinnerCmd, m.liveTick())

	case sessionErrMsg:
		m.err = msg.err
		return m, tea.Quit

	case liveTickMsg:
		if !m.started || m.terminal() {
			return m, spinnerCmd
		}
		return m, tea.Batch(spinnerCmd, m.fetchLiveState(), m.liveTick())

	case liveStateMsg:
		m.session = msg.info
		m.steps = msg.steps
		return m, spinnerCmd

	case savedMsg:
		m.saved = msg.tc
		return m, tea.Quit

	case toastClearMsg:
		m.toast = ""
		return m, spinnerCmd

	case tea.KeyMsg:
		return m.handleKey(msg, spinnerCmd)
	}

	return m, spinnerCmd
}

func (m model) handleKey(msg tea.KeyMsg, spinnerCmd tea.Cmd) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		if m.started && !m.terminal() {
			if _, err := m.rec.StopRecording(m.session.ID); err != nil {
				m.err = err
			}
		}
		return m, tea.Quit

	case "p":
		if info, err := m.rec.PauseRecording(m.session.ID); err == nil {
			m.session = info
			return m.showToast("recording paused", spinnerCmd)
		}
		return m, spinnerCmd

	case "r":
		if info, err := m.rec.ResumeRecording(m.session.ID); err == nil {
			m.session = info
			return m.showToast("recording resumed", spinnerCmd)
		}
		return m, spinnerCmd

	case "s":
		if !m.started || m.terminal() {
			return m, spinnerCmd
		}
		rec, id, name := m.rec, m.session.ID, m.name
		return m, func() tea.Msg {
			tc, err := rec.SaveAsTestCase(id, name, "")
			if err != nil {
				return sessionErrMsg{err: err}
			}
			return savedMsg{tc: tc}
		}

	case "c":
		if len(m.steps) == 0 {
			return m, spinnerCmd
		}
		last := m.steps[len(m.steps)-1]
		if last.Selector == "" {
			return m, spinnerCmd
		}
		if err := clipboard.WriteAll(last.Selector); err != nil {
			return m.showToast("clipboard unavailable", spinnerCmd)
		}
		return m.showToast(fmt.Sprintf("copied %s", last.Selector), spinnerCmd)
	}

	return m, spinnerCmd
}

func (m model) showToast(text string, spinnerCmd tea.Cmd) (tea.Model, tea.Cmd) {
	m.toast = text
	return m, tea.Batch(spinnerCmd, tea.Tick(2*time.Second, func(time.Time) tea.Msg {
		return toastClearMsg{}
	}))
}

func (m model) terminal() bool {
	return m.session.Status == types.StatusStopped || m.session.Status == types.StatusCompleted
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("Replay — browser recording"))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("error: %v", m.err)))
		b.WriteString("\n")
		return b.String()
	}

	if !m.started {
		b.WriteString(fmt.Sprintf("%s launching browser for %s...\n", m.spinner.View(), m.baseURL))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("q: abort"))
		return b.String()
	}

	b.WriteString(m.statusLine())
	b.WriteString("\n\n")

	if len(m.steps) == 0 {
		b.WriteString(helpStyle.Render("interact with the page; captured steps appear here"))
		b.WriteString("\n")
	} else {
		for _, step := range m.steps {
			b.WriteString(renderStep(step))
			b.WriteString("\n")
		}
	}

	if m.toast != "" {
		b.WriteString("\n")
		b.WriteString(toastStyle.Render(m.toast))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(statusBarStyle.Render("p: pause • r: resume • s: save test case • c: copy last selector • q: stop & quit"))
	return b.String()
}

func (m model) statusLine() string {
	var status string
	switch m.session.Status {
	case types.StatusRecording:
		status = recordingStyle.Render("● recording")
	case types.StatusPaused:
		status = pausedStyle.Render("▮▮ paused")
	default:
		status = stoppedStyle.Render("■ " + string(m.session.Status))
	}
	return fmt.Sprintf("%s  %s  %d steps  %s",
		status,
		m.session.BaseURL,
		m.session.StepCount,
		m.session.Duration.Round(time.Second),
	)
}

func renderStep(step types.RecordedStep) string {
	action := stepActionStyle.Render(fmt.Sprintf("%3d %-8s", step.Order, step.Action))
	switch step.Action {
	case types.ActionNavigate:
		return fmt.Sprintf("%s %s", action, stepSelectorStyle.Render(step.URL))
	case types.ActionInput, types.ActionSelect:
		return fmt.Sprintf("%s %s %s", action,
			stepSelectorStyle.Render(step.Selector),
			stepValueStyle.Render("= "+step.Value))
	case types.ActionWait:
		return fmt.Sprintf("%s %s", action, stepValueStyle.Render(step.Value))
	default:
		return fmt.Sprintf("%s %s", action, stepSelectorStyle.Render(step.Selector))
	}
}
