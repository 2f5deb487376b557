// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session tracks client session identity and activity.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/kgraph-tui/internal/model"
)

// =============================================================================
// STREAM STATE
// =============================================================================

// StreamState describes what the session's answer stream is doing.
type StreamState int

const (
	StreamIdle StreamState = iota
	StreamProbing
	StreamStreaming
)

func (s StreamState) String() string {
	switch s {
	case StreamProbing:
		return "probing"
	case StreamStreaming:
		return "streaming"
	default:
		return "idle"
	}
}

// =============================================================================
// SESSION MANAGER
// =============================================================================

// Manager tracks one client session: its identity, the in-memory
// conversation, activity timestamps, and stream state. Conversation
// history is not persisted; it lives and dies with the process.
type Manager struct {
	mu sync.Mutex

	sessionID    string
	startTime    time.Time
	lastActivity time.Time

	conversation *model.Conversation

	streamState StreamState
	retryNotice string // last cold-start message, cleared when streaming starts
	questions   int
}

// NewManager creates a session with a fresh uuid identity.
func NewManager() *Manager {
	now := time.Now()
	return &Manager{
		sessionID:    uuid.NewString(),
		startTime:    now,
		lastActivity: now,
		conversation: model.NewConversation(),
	}
}

// =============================================================================
// SESSION STATE
// =============================================================================

// SessionID returns the session identifier sent to the backend.
func (m *Manager) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

// Conversation returns the session's transcript.
func (m *Manager) Conversation() *model.Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conversation
}

// StartTime returns when the session started.
func (m *Manager) StartTime() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startTime
}

// Duration returns how long the session has been active.
func (m *Manager) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return time.Since(m.startTime)
}

// IdleTime returns how long since last activity.
func (m *Manager) IdleTime() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return time.Since(m.lastActivity)
}

// QuestionCount returns how many questions were asked this session.
func (m *Manager) QuestionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.questions
}

// =============================================================================
// ACTIVITY TRACKING
// =============================================================================

// RecordActivity updates the last activity timestamp. Called on user
// input.
func (m *Manager) RecordActivity() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastActivity = time.Now()
}

// RecordQuestion counts a question and touches activity.
func (m *Manager) RecordQuestion() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.questions++
	m.lastActivity = time.Now()
}

// =============================================================================
// STREAM STATE
// =============================================================================

// SetStreamState updates the stream state. Entering StreamStreaming
// clears any lingering cold-start notice.
func (m *Manager) SetStreamState(s StreamState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.streamState = s
	if s == StreamStreaming {
		m.retryNotice = ""
	}
}

// StreamState returns the current stream state.
func (m *Manager) StreamState() StreamState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.streamState
}

// SetRetryNotice records the latest cold-start progress message for the
// status bar.
func (m *Manager) SetRetryNotice(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retryNotice = msg
}

// RetryNotice returns the current cold-start notice, if any.
func (m *Manager) RetryNotice() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.retryNotice
}

// Reset starts a new conversation under the same session identity.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conversation = model.NewConversation()
	m.streamState = StreamIdle
	m.retryNotice = ""
	m.lastActivity = time.Now()
}
