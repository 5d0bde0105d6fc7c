package main

import "github.com/charmbracelet/lipgloss"

// Color Palette
// Single source of truth for all TUI colors.
var (
	salmonPink  = lipgloss.Color("#FFB3BA") // primary accent
	mintGreen   = lipgloss.Color("#A8E6CF") // success / recording states
	amberYellow = lipgloss.Color("#FFE4A8") // paused state
	mutedGray   = lipgloss.Color("#6B7280") // secondary text
	brightWhite = lipgloss.Color("#F9FAFB") // primary text
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(salmonPink).
			Bold(true)

	recordingStyle = lipgloss.NewStyle().
			Foreground(mintGreen).
			Bold(true)

	pausedStyle = lipgloss.NewStyle().
			Foreground(amberYellow).
			Bold(true)

	stoppedStyle = lipgloss.NewStyle().
			Foreground(mutedGray).
			Bold(true)

	stepActionStyle = lipgloss.NewStyle().
			Foreground(mintGreen)

	stepSelectorStyle = lipgloss.NewStyle().
				Foreground(brightWhite)

	stepValueStyle = lipgloss.NewStyle().
			Foreground(salmonPink)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedGray).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(salmonPink)

	toastStyle = lipgloss.NewStyle().
			Foreground(mintGreen).
			Italic(true)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(mutedGray).
			Padding(0, 1)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(salmonPink)
)
