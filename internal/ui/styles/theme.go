// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// HEADER STYLES
	// ==========================================================================

	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	HeaderMeta  lipgloss.Style

	// ==========================================================================
	// MESSAGE BUBBLE STYLES
	// ==========================================================================

	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	SystemBubble    lipgloss.Style
	RoleLabel       lipgloss.Style
	SourceItem      lipgloss.Style
	StageText       lipgloss.Style

	// ==========================================================================
	// INPUT AREA STYLES
	// ==========================================================================

	InputContainer lipgloss.Style
	InputPrompt    lipgloss.Style

	// ==========================================================================
	// STATUS BAR STYLES
	// ==========================================================================

	StatusBar    lipgloss.Style
	StatusKey    lipgloss.Style
	StatusValue  lipgloss.Style
	RetryNotice  lipgloss.Style
	HealthOK     lipgloss.Style
	HealthBad    lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style

	// ==========================================================================
	// DASHBOARD STYLES
	// ==========================================================================

	TabActive   lipgloss.Style
	TabInactive lipgloss.Style
	TableHeader lipgloss.Style
	TableRow    lipgloss.Style
	TableRowAlt lipgloss.Style
	Sparkline   lipgloss.Style
	ValueUp     lipgloss.Style
	ValueDown   lipgloss.Style

	// ==========================================================================
	// SPINNER AND ERROR STYLES
	// ==========================================================================

	Spinner      lipgloss.Style
	ThinkingText lipgloss.Style
	ErrorBox     lipgloss.Style
	ErrorTitle   lipgloss.Style
	ErrorMessage lipgloss.Style
}

// NewTheme creates a new theme with all styles configured.
func NewTheme() *Theme {
	colorProfile := termenv.ColorProfile()
	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}

	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)
	t.HeaderTitle = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)
	t.HeaderMeta = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		Border(lipgloss.RoundedBorder(), false, false, false, true).
		BorderForeground(UserBubbleBorder).
		PaddingLeft(1)
	t.AssistantBubble = lipgloss.NewStyle().
		Foreground(AssistantBubbleFg).
		Border(lipgloss.RoundedBorder(), false, false, false, true).
		BorderForeground(AssistantBubbleBorder).
		PaddingLeft(1)
	t.SystemBubble = lipgloss.NewStyle().
		Foreground(SystemBubbleFg).
		Border(lipgloss.RoundedBorder(), false, false, false, true).
		BorderForeground(SystemBubbleBorder).
		PaddingLeft(1)
	t.RoleLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextSecondary)
	t.SourceItem = lipgloss.NewStyle().
		Foreground(TextMuted).
		PaddingLeft(2)
	t.StageText = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.InputContainer = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)
	t.StatusKey = lipgloss.NewStyle().
		Foreground(TextMuted)
	t.StatusValue = lipgloss.NewStyle().
		Foreground(TextPrimary)
	t.RetryNotice = lipgloss.NewStyle().
		Foreground(Amber).
		Bold(true)
	t.HealthOK = lipgloss.NewStyle().
		Foreground(Emerald)
	t.HealthBad = lipgloss.NewStyle().
		Foreground(Rose)
	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)
	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.TabActive = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true).
		Underline(true).
		Padding(0, 2)
	t.TabInactive = lipgloss.NewStyle().
		Foreground(TextMuted).
		Padding(0, 2)
	t.TableHeader = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Bold(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(Overlay)
	t.TableRow = lipgloss.NewStyle().
		Foreground(TextPrimary)
	t.TableRowAlt = lipgloss.NewStyle().
		Foreground(TextSecondary)
	t.Sparkline = lipgloss.NewStyle().
		Foreground(Purple)
	t.ValueUp = lipgloss.NewStyle().
		Foreground(Emerald)
	t.ValueDown = lipgloss.NewStyle().
		Foreground(Rose)

	t.Spinner = lipgloss.NewStyle().
		Foreground(Purple)
	t.ThinkingText = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)
	t.ErrorBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Rose).
		Padding(0, 1)
	t.ErrorTitle = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)
	t.ErrorMessage = lipgloss.NewStyle().
		Foreground(TextPrimary)

	return t
}

// SetSize records the current terminal dimensions.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}
