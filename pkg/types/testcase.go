package types

import "time"

// PageSnapshot is a cleaned capture of the final page state, attached to a
// saved test case so a reviewer can see what the recording ended on without
// replaying it.
type PageSnapshot struct {
	// URL is the page URL at the time of the snapshot.
	URL string `json:"url"`

	// Title is the document title.
	Title string `json:"title,omitempty"`

	// Description is the page's meta description, if present.
	Description string `json:"description,omitempty"`

	// HTML is the cleaned document markup (scripts and styles stripped).
	HTML string `json:"html,omitempty"`

	// Truncated reports whether HTML was cut at the snapshot length limit.
	Truncated bool `json:"truncated,omitempty"`
}

// TestCase is the reusable artifact produced by saving a recording session.
// It holds only real user interactions; the synthetic session_start marker
// is stripped before persistence.
type TestCase struct {
	// ID uniquely identifies the test case.
	ID string `json:"id"`

	// Name is the display name given at save time.
	Name string `json:"name"`

	// Description is an optional free-form description.
	Description string `json:"description,omitempty"`

	// BaseURL is the URL the recording started from.
	BaseURL string `json:"base_url"`

	// SessionID is the recording session this test case was saved from.
	SessionID string `json:"session_id"`

	// Steps are the recorded interactions in acceptance order.
	Steps []RecordedStep `json:"steps"`

	// Snapshot is the cleaned final page state, when one could be taken.
	Snapshot *PageSnapshot `json:"snapshot,omitempty"`

	// CreatedAt is the time the test case was saved.
	CreatedAt time.Time `json:"created_at"`
}
