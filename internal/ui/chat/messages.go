// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/kgraph-tui/internal/api"
)

// =============================================================================
// STREAM MESSAGES
// =============================================================================

// StreamEventMsg carries one parsed stream event into the update loop.
type StreamEventMsg struct {
	Event api.StreamEvent
}

// StreamDoneMsg signals that the stream channels closed. Err is nil on
// a clean finish or cancellation.
type StreamDoneMsg struct {
	Err error
}

// RetryNoticeMsg carries a cold-start notice from the retry layer.
type RetryNoticeMsg struct {
	Attempt int
	Message string
}

// SwitchViewMsg asks the application shell to change the active view.
type SwitchViewMsg struct {
	View string
}

// retryNotice is the channel form of a RetryNoticeMsg; the onRetry
// callback runs on the retry goroutine and cannot touch the model.
type retryNotice struct {
	attempt int
	message string
}

// waitForStream produces the next message from a live stream. The
// update loop re-issues it after every StreamEventMsg/RetryNoticeMsg
// until StreamDoneMsg arrives.
func waitForStream(events <-chan api.StreamEvent, errc <-chan error, notices <-chan retryNotice) tea.Cmd {
	return func() tea.Msg {
		select {
		case n := <-notices:
			return RetryNoticeMsg{Attempt: n.attempt, Message: n.message}
		case ev, ok := <-events:
			if !ok {
				// Drain any notice that raced in ahead of the close so
				// it is not lost, then report the final error.
				select {
				case n := <-notices:
					return RetryNoticeMsg{Attempt: n.attempt, Message: n.message}
				default:
				}
				return StreamDoneMsg{Err: <-errc}
			}
			return StreamEventMsg{Event: ev}
		}
	}
}
