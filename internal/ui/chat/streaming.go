// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// STREAMING BUFFER
// =============================================================================

// StreamingBuffer batches answer tokens between renders. Tokens arrive
// from the stream reader goroutine far faster than the terminal can
// usefully repaint, so the buffer accumulates them and releases a batch
// when either enough tokens have piled up or enough time has passed
// since the last flush.
//
// PERFORMANCE: Unbatched token rendering repaints the viewport per
// token, which flickers and burns CPU on long answers. Capping at ~30
// flushes per second keeps the stream visually smooth.
//
// Write happens on the stream goroutine and Flush on the Bubble Tea
// loop, so all state is mutex-guarded.
type StreamingBuffer struct {
	mu         sync.Mutex
	buf        strings.Builder
	tokenCount int
	lastFlush  time.Time

	batchSize   int
	minFlushGap time.Duration
}

const (
	defaultBatchSize = 15
	defaultMaxFPS    = 30
)

// NewStreamingBuffer creates a buffer with the default batch size and
// frame cap.
func NewStreamingBuffer() *StreamingBuffer {
	return &StreamingBuffer{
		batchSize:   defaultBatchSize,
		minFlushGap: time.Second / defaultMaxFPS,
		lastFlush:   time.Now(),
	}
}

// Write appends one token. Safe to call from the stream goroutine.
func (sb *StreamingBuffer) Write(token string) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.buf.WriteString(token)
	sb.tokenCount++
}

// Flush returns the accumulated tokens when a batch is due, draining
// the buffer. The second return is false when nothing should be
// rendered yet.
func (sb *StreamingBuffer) Flush() (string, bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.buf.Len() == 0 {
		return "", false
	}
	if sb.tokenCount < sb.batchSize && time.Since(sb.lastFlush) < sb.minFlushGap {
		return "", false
	}
	return sb.drainLocked(), true
}

// ForceFlush drains the buffer regardless of thresholds. Used when the
// stream finishes so no tail tokens are left behind.
func (sb *StreamingBuffer) ForceFlush() (string, bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	if sb.buf.Len() == 0 {
		return "", false
	}
	return sb.drainLocked(), true
}

// Pending reports whether undelivered tokens remain.
func (sb *StreamingBuffer) Pending() bool {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.buf.Len() > 0
}

// Reset clears the buffer for a new stream.
func (sb *StreamingBuffer) Reset() {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.buf.Reset()
	sb.tokenCount = 0
	sb.lastFlush = time.Now()
}

func (sb *StreamingBuffer) drainLocked() string {
	out := sb.buf.String()
	sb.buf.Reset()
	sb.tokenCount = 0
	sb.lastFlush = time.Now()
	return out
}

// =============================================================================
// FLUSH TICK
// =============================================================================

// flushTickMsg drives periodic buffer flushes while a stream is live.
type flushTickMsg time.Time

// flushTickCmd schedules the next flush check at the frame cap.
func flushTickCmd() tea.Cmd {
	return tea.Tick(time.Second/defaultMaxFPS, func(t time.Time) tea.Msg {
		return flushTickMsg(t)
	})
}
