package browser

import (
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/replay/pkg/logging"
	"github.com/entrhq/replay/pkg/types"
)

// drain evaluates one of the capture script's pull operations (drainReady
// or drainAll) and decodes the result. A missing recorder object — the page
// navigated somewhere the init script has not run yet — yields no events
// and a reinstall attempt, not an error.
func (s *Session) drain(op string) ([]types.RecordedStep, error) {
	expr := fmt.Sprintf("window.__replayRecorder ? window.__replayRecorder.%s() : null", op)
	raw, err := s.Page.Evaluate(expr)
	if err != nil {
		return nil, fmt.Errorf("capture collection failed: %w", err)
	}

	if raw == nil {
		// recorder missing; reinstall for subsequent collections
		if _, err := s.Page.Evaluate(captureScript); err != nil {
			return nil, fmt.Errorf("capture script reinstall failed: %w", err)
		}
		if !s.captureEnabled {
			_, _ = s.Page.Evaluate("window.__replayRecorder.setCapture(false)")
		}
		return nil, nil
	}

	return decodeCapturedEvents(raw)
}

// setCapture flips the in-page capture flag and mirrors it on the session
// so a script reinstall can restore it.
func (s *Session) setCapture(enabled bool) error {
	expr := fmt.Sprintf("window.__replayRecorder && window.__replayRecorder.setCapture(%t)", enabled)
	if _, err := s.Page.Evaluate(expr); err != nil {
		return fmt.Errorf("failed to set capture state: %w", err)
	}
	s.captureEnabled = enabled
	return nil
}

// executeStep replays one recorded step against the live page. Element
// interactions wait for the element to be visible (bounded) before acting;
// navigation waits for document-ready. Unknown kinds are logged and skipped
// so one bad step cannot fail a whole run.
func (s *Session) executeStep(step types.RecordedStep, log *logging.Logger) error {
	switch step.Action {
	case types.ActionClick, types.ActionSubmit:
		if err := s.waitForElement(step.Selector); err != nil {
			return err
		}
		if err := s.Page.Click(step.Selector, playwright.PageClickOptions{
			Timeout: playwright.Float(stepWaitTimeout),
		}); err != nil {
			return fmt.Errorf("click %s failed: %w", step.Selector, err)
		}

	case types.ActionInput:
		if err := s.waitForElement(step.Selector); err != nil {
			return err
		}
		if err := s.Page.Fill(step.Selector, step.Value, playwright.PageFillOptions{
			Timeout: playwright.Float(stepWaitTimeout),
		}); err != nil {
			return fmt.Errorf("fill %s failed: %w", step.Selector, err)
		}

	case types.ActionSelect:
		if err := s.waitForElement(step.Selector); err != nil {
			return err
		}
		if _, err := s.Page.SelectOption(step.Selector, playwright.SelectOptionValues{
			Values: &[]string{step.Value},
		}); err != nil {
			return fmt.Errorf("select %s failed: %w", step.Selector, err)
		}

	case types.ActionNavigate:
		if _, err := s.Page.Goto(step.URL, playwright.PageGotoOptions{
			WaitUntil: playwright.WaitUntilStateDomcontentloaded,
			Timeout:   playwright.Float(navigateWaitTimeout),
		}); err != nil {
			return fmt.Errorf("navigate to %s failed: %w", step.URL, err)
		}

	case types.ActionWait:
		time.Sleep(executeWait(step))

	default:
		log.Warnf("skipping step with unknown action %q", step.Action)
	}
	return nil
}

// waitForElement blocks until the selector resolves to a visible element,
// bounded by stepWaitTimeout.
func (s *Session) waitForElement(selector string) error {
	if selector == "" {
		return fmt.Errorf("step has no selector")
	}
	_, err := s.Page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(stepWaitTimeout),
	})
	if err != nil {
		return fmt.Errorf("element %s not found: %w", selector, err)
	}
	return nil
}

// snapshot captures the current page as a cleaned snapshot.
func (s *Session) snapshot() (*types.PageSnapshot, error) {
	content, err := s.Page.Content()
	if err != nil {
		return nil, fmt.Errorf("failed to read page content: %w", err)
	}
	snap, err := cleanSnapshot(content, defaultSnapshotLength)
	if err != nil {
		return nil, err
	}
	snap.URL = s.Page.URL()
	return snap, nil
}
