// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"sync"

	"github.com/charmbracelet/glamour"
)

// =============================================================================
// MARKDOWN RENDERER
// =============================================================================

// MarkdownRenderer wraps a glamour renderer for answer bodies. Renderer
// construction is expensive, so instances are cached per wrap width.
type MarkdownRenderer struct {
	mu        sync.Mutex
	renderers map[int]*glamour.TermRenderer
}

// NewMarkdownRenderer creates an empty renderer cache.
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{renderers: make(map[int]*glamour.TermRenderer)}
}

// Render renders markdown wrapped at width columns. On any renderer
// failure the raw text comes back unchanged; a plain answer beats no
// answer.
func (m *MarkdownRenderer) Render(text string, width int) string {
	if width < 20 {
		width = 20
	}
	r, err := m.rendererFor(width)
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return out
}

func (m *MarkdownRenderer) rendererFor(width int) (*glamour.TermRenderer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.renderers[width]; ok {
		return r, nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	m.renderers[width] = r
	return r, nil
}
