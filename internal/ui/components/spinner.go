// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for the kgraph TUI.
package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/kgraph-tui/internal/ui/styles"
	"github.com/jeranaias/kgraph-tui/internal/util"
)

// =============================================================================
// SPINNER MODEL
// =============================================================================

// Spinner is a loading spinner shown while probing the backend or
// waiting for the first token.
type Spinner struct {
	spinner spinner.Model
	theme   *styles.Theme

	message   string
	startTime time.Time

	isActive  bool
	showTimer bool
}

// NewSpinner creates a spinner with ASCII-compatible frames.
func NewSpinner(theme *styles.Theme) Spinner {
	s := spinner.New()
	s.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	s.Style = theme.Spinner

	return Spinner{
		spinner:   s,
		theme:     theme,
		message:   "Working",
		showTimer: true,
	}
}

// SetMessage sets the text displayed next to the spinner.
func (s *Spinner) SetMessage(msg string) {
	s.message = msg
}

// Start activates the spinner and records the start time.
func (s *Spinner) Start() tea.Cmd {
	s.isActive = true
	s.startTime = time.Now()
	return s.spinner.Tick
}

// Stop deactivates the spinner.
func (s *Spinner) Stop() {
	s.isActive = false
}

// IsActive returns whether the spinner is currently running.
func (s *Spinner) IsActive() bool {
	return s.isActive
}

// Elapsed returns the duration since the spinner started.
func (s *Spinner) Elapsed() time.Duration {
	if s.startTime.IsZero() {
		return 0
	}
	return time.Since(s.startTime)
}

// Update handles messages for the spinner.
func (s Spinner) Update(msg tea.Msg) (Spinner, tea.Cmd) {
	if !s.isActive {
		return s, nil
	}
	var cmd tea.Cmd
	s.spinner, cmd = s.spinner.Update(msg)
	return s, cmd
}

// View renders the spinner line, empty when inactive.
func (s Spinner) View() string {
	if !s.isActive {
		return ""
	}
	out := s.spinner.View() + " " + s.theme.ThinkingText.Render(s.message+"...")
	if s.showTimer {
		out += " " + s.theme.HeaderMeta.Render(fmt.Sprintf("(%s)", util.FormatDuration(s.Elapsed())))
	}
	return out
}
