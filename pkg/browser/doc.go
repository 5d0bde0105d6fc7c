// Package browser owns the live browser process behind every recording
// session, built on Playwright.
//
// The package bridges two worlds: the host-side recording orchestrator and
// the browser-resident interaction capture layer. The capture layer is a
// JavaScript module installed into every page of a session; it observes DOM
// events, debounces text input per element, and exposes a pull-based queue
// of finalized interactions. The host never reaches into page state
// directly — it communicates only through three operations on
// window.__replayRecorder: setCapture, drainReady and drainAll.
//
// # Architecture
//
//  1. Manager: registry owning one Session per recording; launches and
//     disposes browsers, routes per-session operations by handle
//  2. Session: a Playwright browser/context/page plus the capture-state
//     flag and, when needed, a session-owned virtual display
//  3. Capture script: the in-page actor holding the debounce tables and
//     the ready/pending queues
//
// # Display policy
//
// Interaction recording wants a visible browser. Session start resolves a
// display mode explicitly: the native display server when one is present,
// a virtual framebuffer (Xvfb) when allowed, or headless only when the
// caller opted in. When none of those apply the start request fails with a
// ResourceError carrying remediation detail — capture is never silently
// degraded.
//
// # Collection semantics
//
// CollectReady returns only events whose debounce window has elapsed, so
// half-typed input stays in the page. CollectAll is the terminal flush used
// by stop and save: it finalizes pending input synchronously so nothing
// typed before the stop is lost.
package browser
