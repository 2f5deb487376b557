// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/kgraph-tui/internal/api"
	"github.com/jeranaias/kgraph-tui/internal/session"
	"github.com/jeranaias/kgraph-tui/internal/ui/components"
)

// =============================================================================
// UPDATE LOOP
// =============================================================================

// Update handles messages for the chat view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keyMap.Quit):
			m.cancelStream()
			return m, tea.Quit

		case key.Matches(msg, m.keyMap.Submit):
			question := strings.TrimSpace(m.input.Value())
			if question == "" || m.Streaming() {
				return m, nil
			}
			m.input.Reset()
			return m, m.startStream(question)

		case key.Matches(msg, m.keyMap.Cancel):
			m.cancelStream()
			return m, nil

		case key.Matches(msg, m.keyMap.Clear):
			if !m.Streaming() {
				m.session.Conversation().ClearHistory()
				m.lastError = ""
				m.refreshViewport(true)
			}
			return m, nil

		case key.Matches(msg, m.keyMap.Dashboard):
			return m, func() tea.Msg { return SwitchViewMsg{View: "dashboard"} }

		case key.Matches(msg, m.keyMap.ScrollUp):
			m.viewport.HalfViewUp()
			return m, nil

		case key.Matches(msg, m.keyMap.ScrollDn):
			m.viewport.HalfViewDown()
			return m, nil
		}

	case StreamEventMsg:
		m.handleEvent(msg.Event)
		cmds = append(cmds, waitForStream(m.events, m.errc, m.notices))

	case RetryNoticeMsg:
		m.session.SetRetryNotice(msg.Message)
		m.spinner.SetMessage("Backend cold start, retrying")
		cmds = append(cmds, waitForStream(m.events, m.errc, m.notices))

	case StreamDoneMsg:
		m.finishStream(msg.Err)
		return m, nil

	case flushTickMsg:
		if m.Streaming() {
			if batch, ok := m.buffer.Flush(); ok {
				m.session.Conversation().AppendToLast(batch)
				m.refreshViewport(true)
			}
			cmds = append(cmds, flushTickCmd())
		}
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	cmds = append(cmds, cmd)

	if !m.Streaming() {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleEvent folds one stream event into the transcript. Any event at
// all means the backend answered the stream POST, so the health
// indicator flips to online here.
func (m *Model) handleEvent(ev api.StreamEvent) {
	m.statusBar.Health = components.HealthOK
	conv := m.session.Conversation()

	switch ev.Kind {
	case api.EventStatus:
		conv.SetLastStage(ev.Stage)
		m.spinner.SetMessage(ev.Stage)
		m.refreshViewport(true)

	case api.EventMeta:
		if ev.Meta != nil {
			conv.SetLastSources(ev.Meta.Sources)
		}

	case api.EventToken:
		if m.state != StateStreaming {
			m.state = StateStreaming
			m.session.SetStreamState(session.StreamStreaming)
			m.spinner.Stop()
		}
		if m.firstToken.IsZero() {
			m.firstToken = time.Now()
		}
		m.tokenCount++
		m.buffer.Write(ev.Token)

	case api.EventError:
		m.lastError = ev.Message

	case api.EventDone:
		// Channel close follows; finishStream settles everything.

	case api.EventUnknown:
		// Forward-compatible: ignore kinds this build does not know.
	}
}
