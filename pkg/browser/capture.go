package browser

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/entrhq/replay/pkg/types"
)

// captureScript is the interaction capture layer installed into every page
// of a recording session. It owns all browser-resident state: the per-element
// debounce timers, the pending input table, and the ready queue. The host
// process never reaches into that state directly; it communicates only
// through window.__replayRecorder.setCapture / drainReady / drainAll.
//
// Behavior:
//   - clicks, selection changes and form submits are queued immediately,
//     after synchronously finalizing any pending text input so the input's
//     final value always precedes the follow-up action;
//   - text input is debounced per element (300 ms); Tab/Enter/Escape, blur
//     and focus moving to a non-input element finalize early;
//   - navigations are observed through history push/replace and popstate,
//     queued after a short settle delay so the URL is accurate;
//   - selectors prefer id > name > tag+class, with an nth-of-type suffix
//     whenever the computed selector is ambiguous on the page.
const captureScript = `(() => {
  if (window.__replayRecorder) return;

  const INPUT_DEBOUNCE_MS = 300;
  const KEY_GRACE_MS = 50;
  const NAV_SETTLE_MS = 150;

  const state = {
    enabled: true,
    ready: [],
    pending: new Map(), // element -> event awaiting its debounce window
    timers: new Map(),  // element -> debounce timer id
    navTimer: null      // in-flight navigation settle timer
  };

  const TEXT_TYPES = ['text', 'email', 'password', 'search', 'tel', 'url'];

  function isTextInput(el) {
    if (!el || !el.tagName) return false;
    const tag = el.tagName.toLowerCase();
    if (tag === 'textarea') return true;
    if (tag !== 'input') return false;
    const type = (el.getAttribute('type') || 'text').toLowerCase();
    return TEXT_TYPES.indexOf(type) !== -1;
  }

  function isToggleInput(el) {
    if (!el || !el.tagName) return false;
    const tag = el.tagName.toLowerCase();
    if (tag === 'select' || tag === 'option') return true;
    if (tag !== 'input') return false;
    const type = (el.getAttribute('type') || '').toLowerCase();
    return type === 'checkbox' || type === 'radio';
  }

  function selectorFor(el) {
    if (!el || !el.tagName) return '';
    const tag = el.tagName.toLowerCase();
    let sel;
    if (el.id) {
      sel = '#' + CSS.escape(el.id);
    } else if (el.getAttribute('name')) {
      sel = tag + '[name="' + el.getAttribute('name') + '"]';
    } else if (el.classList.length > 0) {
      sel = tag + '.' + CSS.escape(el.classList[0]);
    } else {
      sel = tag;
    }
    try {
      const matches = document.querySelectorAll(sel);
      if (matches.length > 1) {
        let index = 1;
        let sibling = el;
        while ((sibling = sibling.previousElementSibling)) {
          if (sibling.tagName === el.tagName) index++;
        }
        sel += ':nth-of-type(' + index + ')';
      }
    } catch (e) {
      // selector did not parse; keep the raw form
    }
    return sel;
  }

  function eventFor(el, action, value, url) {
    return {
      action: action,
      selector: el ? selectorFor(el) : '',
      value: value || '',
      url: url || '',
      ts: Date.now(),
      tag: el && el.tagName ? el.tagName.toLowerCase() : '',
      inputType: el && el.getAttribute ? (el.getAttribute('type') || '') : ''
    };
  }

  function finalizeOne(el) {
    const timer = state.timers.get(el);
    if (timer !== undefined) {
      clearTimeout(timer);
      state.timers.delete(el);
    }
    const ev = state.pending.get(el);
    if (ev) {
      state.pending.delete(el);
      ev.value = el.value;
      ev.ts = Date.now();
      state.ready.push(ev);
    }
  }

  function finalizeAllPending() {
    for (const el of Array.from(state.pending.keys())) {
      finalizeOne(el);
    }
  }

  function onInput(e) {
    if (!state.enabled) return;
    const el = e.target;
    if (!isTextInput(el)) return;
    const timer = state.timers.get(el);
    if (timer !== undefined) clearTimeout(timer);
    state.pending.set(el, eventFor(el, 'input', el.value));
    state.timers.set(el, setTimeout(() => finalizeOne(el), INPUT_DEBOUNCE_MS));
  }

  function onClick(e) {
    if (!state.enabled) return;
    const el = e.target;
    finalizeAllPending();
    // toggles are recorded by the change handler, not as clicks
    if (isToggleInput(el)) return;
    state.ready.push(eventFor(el, 'click'));
  }

  function onChange(e) {
    if (!state.enabled) return;
    const el = e.target;
    if (!isToggleInput(el)) return;
    finalizeAllPending();
    let value = el.value;
    const type = (el.getAttribute('type') || '').toLowerCase();
    if (type === 'checkbox') value = el.checked ? 'checked' : 'unchecked';
    state.ready.push(eventFor(el, 'select', value));
  }

  function onSubmit(e) {
    if (!state.enabled) return;
    finalizeAllPending();
    state.ready.push(eventFor(e.target, 'submit'));
  }

  function onKeyDown(e) {
    if (!state.enabled) return;
    if (e.key === 'Tab' || e.key === 'Enter' || e.key === 'Escape') {
      // let the key's own side effect run before the value is finalized
      setTimeout(finalizeAllPending, KEY_GRACE_MS);
    }
  }

  function onFocusIn(e) {
    if (!state.enabled) return;
    if (!isTextInput(e.target)) finalizeAllPending();
  }

  function onBlur(e) {
    if (!state.enabled) return;
    if (isTextInput(e.target)) finalizeOne(e.target);
  }

  function recordNavigation() {
    if (!state.enabled) return;
    // rapid successive history mutations settle into one navigation
    if (state.navTimer) clearTimeout(state.navTimer);
    state.navTimer = setTimeout(() => {
      state.navTimer = null;
      state.ready.push(eventFor(null, 'navigate', '', location.href));
    }, NAV_SETTLE_MS);
  }

  function flushPendingNavigation() {
    if (!state.navTimer) return;
    clearTimeout(state.navTimer);
    state.navTimer = null;
    state.ready.push(eventFor(null, 'navigate', '', location.href));
  }

  const origPushState = history.pushState.bind(history);
  history.pushState = function (...args) {
    const result = origPushState(...args);
    recordNavigation();
    return result;
  };
  const origReplaceState = history.replaceState.bind(history);
  history.replaceState = function (...args) {
    const result = origReplaceState(...args);
    recordNavigation();
    return result;
  };
  window.addEventListener('popstate', recordNavigation, true);

  document.addEventListener('input', onInput, true);
  document.addEventListener('click', onClick, true);
  document.addEventListener('change', onChange, true);
  document.addEventListener('submit', onSubmit, true);
  document.addEventListener('keydown', onKeyDown, true);
  document.addEventListener('focusin', onFocusIn, true);
  document.addEventListener('blur', onBlur, true);

  window.__replayRecorder = {
    setCapture(enabled) {
      state.enabled = !!enabled;
    },
    drainReady() {
      const out = state.ready;
      state.ready = [];
      return out;
    },
    drainAll() {
      // terminal flush: debounce and settle windows do not apply any more
      finalizeAllPending();
      flushPendingNavigation();
      return this.drainReady();
    }
  };
})();`

// capturedEvent is the fixed wire schema the capture script emits. It must
// stay in sync with the eventFor helper in captureScript.
type capturedEvent struct {
	Action    string `json:"action"`
	Selector  string `json:"selector"`
	Value     string `json:"value"`
	URL       string `json:"url"`
	TS        int64  `json:"ts"`
	Tag       string `json:"tag"`
	InputType string `json:"inputType"`
}

// decodeCapturedEvents converts the raw result of a drain evaluation into
// recorded steps. Unknown action kinds are dropped with an error so a drifted
// capture script cannot smuggle malformed steps into a session.
func decodeCapturedEvents(raw interface{}) ([]types.RecordedStep, error) {
	if raw == nil {
		return nil, nil
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to encode captured events: %w", err)
	}

	var events []capturedEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("failed to decode captured events: %w", err)
	}

	steps := make([]types.RecordedStep, 0, len(events))
	for _, ev := range events {
		kind := types.ActionKind(ev.Action)
		if !kind.Valid() || kind == types.ActionSessionStart {
			return steps, fmt.Errorf("capture script emitted unknown action %q", ev.Action)
		}
		steps = append(steps, types.RecordedStep{
			ID:        uuid.New().String(),
			Action:    kind,
			Selector:  ev.Selector,
			Value:     ev.Value,
			URL:       ev.URL,
			Timestamp: time.UnixMilli(ev.TS),
			Meta: types.StepMeta{
				TagName:   ev.Tag,
				InputType: ev.InputType,
			},
		})
	}
	return steps, nil
}
