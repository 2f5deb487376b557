// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/kgraph-tui/internal/api"
	"github.com/jeranaias/kgraph-tui/internal/model"
	"github.com/jeranaias/kgraph-tui/internal/session"
	"github.com/jeranaias/kgraph-tui/internal/ui/components"
	"github.com/jeranaias/kgraph-tui/internal/ui/styles"
)

// =============================================================================
// CHAT STATE
// =============================================================================

// State is the chat view lifecycle state.
type State int

const (
	StateReady     State = iota // Ready for input
	StateProbing                // Health probe / cold-start retries in flight
	StateStreaming              // Receiving answer tokens
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view. It owns the live
// stream channels; at most one answer stream is in flight, matching the
// client's own single-stream rule.
type Model struct {
	state State

	theme    *styles.Theme
	width    int
	height   int
	markdown *components.MarkdownRenderer

	client  *api.Client
	session *session.Manager

	// Live stream plumbing; nil outside StateProbing/StateStreaming.
	events  <-chan api.StreamEvent
	errc    <-chan error
	notices chan retryNotice
	buffer  *StreamingBuffer

	// Timing for the answer statistics line.
	streamStart time.Time
	firstToken  time.Time
	tokenCount  int

	viewport  viewport.Model
	input     textinput.Model
	spinner   components.Spinner
	statusBar *components.StatusBar
	keyMap    KeyMap

	lastError string
}

// New creates the chat view.
func New(theme *styles.Theme, client *api.Client, mgr *session.Manager) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.PromptStyle = theme.InputPrompt
	ti.Placeholder = "Ask the knowledge graph..."
	ti.CharLimit = 4096
	ti.Focus()

	vp := viewport.New(80, 20)

	return Model{
		state:     StateReady,
		theme:     theme,
		markdown:  components.NewMarkdownRenderer(),
		client:    client,
		session:   mgr,
		buffer:    NewStreamingBuffer(),
		viewport:  vp,
		input:     ti,
		spinner:   components.NewSpinner(theme),
		statusBar: components.NewStatusBar(theme),
		keyMap:    DefaultKeyMap(),
	}
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// SetSize resizes the view layout.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.statusBar.SetWidth(width)

	// Header, input block, shortcuts, and status bar share the column
	// with the transcript viewport.
	vpHeight := height - chromeHeight()
	if vpHeight < 3 {
		vpHeight = 3
	}
	m.viewport.Width = width
	m.viewport.Height = vpHeight
	m.input.Width = width - 6
	m.refreshViewport(false)
}

// Streaming reports whether an answer stream is in flight.
func (m Model) Streaming() bool {
	return m.state != StateReady
}

// startStream kicks off a question. The client cancels any previous
// stream itself; this model only ever tracks the newest one.
func (m *Model) startStream(question string) tea.Cmd {
	m.session.RecordQuestion()
	m.session.SetStreamState(session.StreamProbing)

	conv := m.session.Conversation()
	conv.AddUserMessage(question)
	conv.AddAssistantMessage()

	m.buffer.Reset()
	m.state = StateProbing
	m.streamStart = time.Now()
	m.firstToken = time.Time{}
	m.tokenCount = 0
	m.lastError = ""

	notices := make(chan retryNotice, 8)
	m.notices = notices
	onRetry := func(attempt int, _ time.Duration, message string) {
		select {
		case notices <- retryNotice{attempt: attempt, message: message}:
		default:
		}
	}
	m.events, m.errc = m.client.AskStream(context.Background(), question, onRetry)

	m.spinner.SetMessage("Contacting backend")
	m.refreshViewport(true)
	return tea.Batch(
		m.spinner.Start(),
		waitForStream(m.events, m.errc, m.notices),
		flushTickCmd(),
	)
}

// cancelStream aborts the in-flight stream. StreamDoneMsg still arrives
// through the normal path once the channels close.
func (m *Model) cancelStream() {
	if m.state == StateReady {
		return
	}
	m.client.CancelStream()
}

// finishStream settles the transcript after the channels close.
func (m *Model) finishStream(err error) {
	if tail, ok := m.buffer.ForceFlush(); ok {
		m.session.Conversation().AppendToLast(tail)
	}

	var stats *model.Statistics
	if m.tokenCount > 0 {
		ttft := m.firstToken.Sub(m.streamStart)
		stats = model.NewStatistics(ttft, time.Since(m.streamStart), m.tokenCount)
	}
	m.session.Conversation().FinalizeLast(stats)

	if err != nil {
		m.lastError = err.Error()
	}

	// Health verdict: exhaustion or an unreachable backend means down;
	// any other failure still came from a live server. A clean or
	// cancelled finish leaves whatever handleEvent already recorded.
	switch {
	case api.IsUnavailable(err) || api.IsExhausted(err):
		m.statusBar.Health = components.HealthDown
	case err != nil:
		m.statusBar.Health = components.HealthOK
	}

	m.state = StateReady
	m.session.SetStreamState(session.StreamIdle)
	m.session.SetRetryNotice("")
	m.spinner.Stop()
	m.events = nil
	m.errc = nil
	m.notices = nil
	m.refreshViewport(true)
}

func chromeHeight() int {
	// header(3) + spinner line(1) + input(3) + shortcuts(1) + status(1)
	return 9
}
