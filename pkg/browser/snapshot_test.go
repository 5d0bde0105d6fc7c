package browser

import (
	"strings"
	"testing"
)

func TestCleanSnapshot(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		maxLength int
		wantTitle string
		wantDesc  string
		wantHTML  []string // substrings that should be present
		wantNot   []string // substrings that should NOT be present
		truncated bool
	}{
		{
			name: "script and style removal",
			input: `<html>
				<head>
					<title>Login</title>
					<meta name="description" content="Sign in to the portal">
					<script>trackPageView();</script>
					<style>body { color: red; }</style>
				</head>
				<body>
					<h1 id="heading">Welcome</h1>
					<p class="intro">Please sign in.</p>
				</body>
			</html>`,
			maxLength: 10000,
			wantTitle: "Login",
			wantDesc:  "Sign in to the portal",
			wantHTML:  []string{`<h1 id="heading">`, "Welcome", `<p class="intro">`, "Please sign in."},
			wantNot:   []string{"<script>", "trackPageView", "<style>", "color: red"},
		},
		{
			name: "form attributes preserved",
			input: `<html><body>
				<form action="/login" method="post">
					<input type="text" name="UserName" id="UserName" placeholder="User name">
					<button type="submit">Sign in</button>
				</form>
			</body></html>`,
			maxLength: 10000,
			wantHTML: []string{
				`<form action="/login" method="post">`,
				`name="UserName"`,
				`id="UserName"`,
				`placeholder="User name"`,
				`<button type="submit">`,
			},
		},
		{
			name: "presentation attributes dropped",
			input: `<html><body>
				<div style="color: blue" onclick="doThing()" id="panel">Content</div>
			</body></html>`,
			maxLength: 10000,
			wantHTML:  []string{`<div id="panel">`, "Content"},
			wantNot:   []string{"style=", "onclick="},
		},
		{
			name:      "length limit truncates",
			input:     `<html><body><p>` + strings.Repeat("long text ", 100) + `</p></body></html>`,
			maxLength: 50,
			truncated: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := cleanSnapshot(tt.input, tt.maxLength)
			if err != nil {
				t.Fatalf("cleanSnapshot failed: %v", err)
			}

			if tt.wantTitle != "" && snap.Title != tt.wantTitle {
				t.Errorf("title = %q, want %q", snap.Title, tt.wantTitle)
			}
			if tt.wantDesc != "" && snap.Description != tt.wantDesc {
				t.Errorf("description = %q, want %q", snap.Description, tt.wantDesc)
			}
			for _, want := range tt.wantHTML {
				if !strings.Contains(snap.HTML, want) {
					t.Errorf("snapshot missing %q\nHTML:\n%s", want, snap.HTML)
				}
			}
			for _, not := range tt.wantNot {
				if strings.Contains(snap.HTML, not) {
					t.Errorf("snapshot should not contain %q\nHTML:\n%s", not, snap.HTML)
				}
			}
			if snap.Truncated != tt.truncated {
				t.Errorf("truncated = %v, want %v", snap.Truncated, tt.truncated)
			}
		})
	}
}

func TestCleanSnapshotInvalidMarkupStillParses(t *testing.T) {
	// html.Parse is lenient; garbage in still yields a snapshot
	snap, err := cleanSnapshot("<div><p>unclosed", 1000)
	if err != nil {
		t.Fatalf("cleanSnapshot failed: %v", err)
	}
	if !strings.Contains(snap.HTML, "unclosed") {
		t.Errorf("expected text to survive, got %q", snap.HTML)
	}
}
