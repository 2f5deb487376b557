// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the kgraph TUI.

This package defines the color palette and styled components used
throughout the application. All colors use Lip Gloss AdaptiveColor for
automatic light/dark terminal detection; the Theme detects the
terminal's color profile with termenv.

# Color System (colors.go)

  - Purple - Primary accent for assistant messages
  - Cyan - Brand color for info and user highlights
  - Emerald - Healthy backend indicator
  - Amber - Cold-start retry notices
  - Rose - Errors and stream failures

# Theme (theme.go)

Theme bundles every lipgloss.Style the chat and dashboard views need:
message bubbles, status bar segments, dashboard tabs and tables, the
spinner, and error boxes. Construct one with NewTheme at startup and
share it across views.
*/
package styles
