// Package recorder orchestrates browser interaction recording sessions.
//
// A Recorder owns the session registry and drives each session through the
// recording lifecycle (recording, paused, stopped, completed). Captured
// events are pulled from the browser by a per-session poll loop, run
// through per-kind consolidation rules that collapse keystroke noise and
// duplicate events, and accepted into an ordered step list. Stopping a
// session performs a synchronous terminal flush so input still inside its
// debounce window is never lost. Sessions can be persisted as test cases
// and replayed against a fresh browser.
package recorder
