// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/kgraph-tui/internal/session"
	"github.com/jeranaias/kgraph-tui/internal/ui/styles"
	"github.com/jeranaias/kgraph-tui/internal/util"
)

// =============================================================================
// STATUS BAR COMPONENT - Bottom status bar
// =============================================================================

// Health represents the backend health shown in the status bar.
type Health int

const (
	HealthUnknown Health = iota
	HealthOK
	HealthDown
)

// String returns the display string for the health state.
func (h Health) String() string {
	switch h {
	case HealthOK:
		return "online"
	case HealthDown:
		return "offline"
	default:
		return "unknown"
	}
}

// Icon returns a shape indicator for the health state.
// ACCESSIBILITY: Distinct shapes alongside colors for colorblind users.
func (h Health) Icon() string {
	switch h {
	case HealthOK:
		return styles.StatusIndicators.Success
	case HealthDown:
		return styles.StatusIndicators.Error
	default:
		return styles.StatusIndicators.Pending
	}
}

// StatusBar renders the bottom status line: backend health, session id,
// stream state, question count, and any cold-start retry notice.
type StatusBar struct {
	Health      Health
	SessionID   string
	StreamState session.StreamState
	Questions   int
	RetryNotice string
	Width       int

	theme *styles.Theme
}

// NewStatusBar creates a status bar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{
		Health: HealthUnknown,
		Width:  80,
		theme:  theme,
	}
}

// SetWidth updates the status bar width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// SyncSession copies the display fields from the session manager.
func (s *StatusBar) SyncSession(mgr *session.Manager) {
	s.SessionID = mgr.SessionID()
	s.StreamState = mgr.StreamState()
	s.Questions = mgr.QuestionCount()
	s.RetryNotice = mgr.RetryNotice()
}

// View renders the status bar.
func (s *StatusBar) View() string {
	healthStyle := s.theme.HealthBad
	if s.Health == HealthOK {
		healthStyle = s.theme.HealthOK
	}

	segments := []string{
		healthStyle.Render(s.Health.Icon() + " " + s.Health.String()),
		s.theme.StatusKey.Render("session ") + s.theme.StatusValue.Render(shortID(s.SessionID)),
		s.theme.StatusKey.Render("state ") + s.theme.StatusValue.Render(s.StreamState.String()),
		s.theme.StatusKey.Render("asked ") + s.theme.StatusValue.Render(fmt.Sprintf("%d", s.Questions)),
	}

	// The cold-start notice takes visual priority while retries are in
	// flight.
	if s.RetryNotice != "" {
		segments = append(segments, s.theme.RetryNotice.Render(s.RetryNotice))
	}

	line := strings.Join(segments, s.theme.StatusKey.Render("  |  "))
	line = util.TruncateWidth(line, s.Width)
	return s.theme.StatusBar.Width(s.Width).Render(line)
}

// ShortcutsView renders the keyboard hint line shown under the input.
func (s *StatusBar) ShortcutsView() string {
	hints := [][2]string{
		{"enter", "ask"},
		{"esc", "cancel stream"},
		{"tab", "dashboard"},
		{"ctrl+l", "clear"},
		{"ctrl+c", "quit"},
	}
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, s.theme.ShortcutKey.Render(h[0])+" "+s.theme.ShortcutDesc.Render(h[1]))
	}
	return lipgloss.NewStyle().Width(s.Width).Render(strings.Join(parts, "   "))
}

// shortID abbreviates a uuid for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
