// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/kgraph-tui/internal/model"
	"github.com/jeranaias/kgraph-tui/internal/util"
)

// =============================================================================
// CHAT VIEW
// =============================================================================

// View renders the chat layout top to bottom.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if m.spinner.IsActive() {
		b.WriteString(m.spinner.View())
	}
	b.WriteString("\n")

	b.WriteString(m.renderInput())
	b.WriteString("\n")
	b.WriteString(m.statusBar.ShortcutsView())
	b.WriteString("\n")

	m.statusBar.SyncSession(m.session)
	b.WriteString(m.statusBar.View())

	return b.String()
}

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("kgraph")
	meta := m.theme.HeaderMeta.Render("knowledge graph chat")
	line := lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", meta)
	return m.theme.Header.Width(m.width).Render(line)
}

func (m Model) renderInput() string {
	return m.theme.InputContainer.Width(max(m.width-2, 10)).Render(m.input.View())
}

// refreshViewport re-renders the transcript. When follow is true the
// viewport snaps to the bottom so streaming output stays in view.
func (m *Model) refreshViewport(follow bool) {
	m.viewport.SetContent(m.renderTranscript())
	if follow {
		m.viewport.GotoBottom()
	}
}

// renderTranscript renders all messages plus any trailing error box.
func (m *Model) renderTranscript() string {
	conv := m.session.Conversation()
	if conv.IsEmpty() && m.lastError == "" {
		return m.renderEmptyState()
	}

	parts := make([]string, 0, conv.MessageCount()+1)
	for _, msg := range conv.Messages {
		parts = append(parts, m.renderMessage(msg))
	}
	if m.lastError != "" {
		parts = append(parts, m.renderError())
	}
	return strings.Join(parts, "\n\n")
}

func (m *Model) renderMessage(msg *model.Message) string {
	wrap := m.bubbleWidth()

	switch msg.Role {
	case model.RoleUser:
		label := m.theme.RoleLabel.Render(msg.Role.DisplayName())
		body := m.theme.UserBubble.Width(wrap).Render(msg.DisplayContent())
		return label + "\n" + body

	case model.RoleSystem:
		return m.theme.SystemBubble.Width(wrap).Render(msg.DisplayContent())

	default:
		return m.renderAssistantMessage(msg, wrap)
	}
}

func (m *Model) renderAssistantMessage(msg *model.Message, wrap int) string {
	var b strings.Builder
	b.WriteString(m.theme.RoleLabel.Render(msg.Role.DisplayName()))
	b.WriteString("\n")

	content := msg.DisplayContent()
	if msg.IsStreaming {
		// Raw text while tokens arrive; markdown needs the whole
		// document to lay out fences and tables sanely.
		if msg.Stage != "" && content == "" {
			b.WriteString(m.theme.StageText.Render(msg.Stage + "..."))
			return b.String()
		}
		b.WriteString(m.theme.AssistantBubble.Width(wrap).Render(content))
		return b.String()
	}

	rendered := strings.TrimRight(m.markdown.Render(content, wrap-2), "\n")
	b.WriteString(m.theme.AssistantBubble.Width(wrap).Render(rendered))

	if len(msg.Sources) > 0 {
		b.WriteString("\n")
		b.WriteString(m.renderSources(msg))
	}
	if msg.TokenCount > 0 {
		b.WriteString("\n")
		b.WriteString(m.renderStats(msg))
	}
	return b.String()
}

func (m *Model) renderSources(msg *model.Message) string {
	lines := make([]string, 0, len(msg.Sources)+1)
	lines = append(lines, m.theme.StatusKey.Render("sources"))
	for _, s := range msg.Sources {
		item := s.Title
		if item == "" {
			item = s.URL
		}
		lines = append(lines, m.theme.SourceItem.Render("- "+util.TruncateWidth(item, m.bubbleWidth()-4)))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderStats(msg *model.Message) string {
	stats := fmt.Sprintf("%d tokens | ttft %s | %.1f tok/s",
		msg.TokenCount,
		util.FormatDuration(msg.TTFT),
		msg.TokensPerSec,
	)
	return m.theme.HeaderMeta.Render(stats)
}

func (m *Model) renderError() string {
	title := m.theme.ErrorTitle.Render("Request failed")
	body := m.theme.ErrorMessage.Render(m.lastError)
	return m.theme.ErrorBox.Width(m.bubbleWidth()).Render(title + "\n" + body)
}

func (m *Model) renderEmptyState() string {
	lines := []string{
		m.theme.HeaderTitle.Render("Ask the knowledge graph"),
		"",
		m.theme.ThinkingText.Render("Type a question and press enter."),
		m.theme.ThinkingText.Render("The first question may wake a cold backend; watch the status bar."),
	}
	return lipgloss.NewStyle().
		Width(m.viewport.Width).
		Height(m.viewport.Height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(strings.Join(lines, "\n"))
}

// bubbleWidth caps message bubbles so lines stay readable on wide
// terminals.
func (m *Model) bubbleWidth() int {
	w := m.width - 4
	if w > 100 {
		w = 100
	}
	if w < 20 {
		w = 20
	}
	return w
}
