// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides reusable UI components for the kgraph TUI.

This package contains styled components built on top of the Bubble Tea
and Lip Gloss libraries, shared by the chat and dashboard views.

# Components

StatusBar (statusbar.go) - Bottom status bar with backend health,
session id, stream state, and cold-start retry notices.

Spinner (spinner.go) - Animated spinner shown while probing the backend
or waiting for the first token.

MarkdownRenderer (markdown.go) - Cached glamour renderers for markdown
answer bodies, keyed by wrap width.
*/
package components
