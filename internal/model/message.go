// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/kgraph-tui/internal/api"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a conversation.
type Message struct {
	// Identity
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`

	// Content
	Content string `json:"content"`

	// Streaming state (not persisted)
	// PERFORMANCE: strings.Builder avoids quadratic allocations during streaming
	IsStreaming   bool            `json:"-"`
	streamContent strings.Builder `json:"-"`

	// Stage is the pipeline stage the backend last reported while this
	// answer was in flight ("retrieving", "reasoning", ...).
	Stage string `json:"-"`

	// Sources holds the attributions from the answer's meta event.
	Sources []api.Source `json:"sources,omitempty"`

	// Token statistics
	TokenCount int `json:"token_count,omitempty"`

	// Performance metrics (for assistant messages)
	TTFT          time.Duration `json:"ttft_ns,omitempty"`
	TotalDuration time.Duration `json:"total_duration_ns,omitempty"`
	TokensPerSec  float64       `json:"tokens_per_sec,omitempty"`
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) *Message {
	return newMessage(RoleUser, content)
}

// NewAssistantMessage creates an empty assistant message in streaming
// state, ready to receive tokens.
func NewAssistantMessage() *Message {
	msg := newMessage(RoleAssistant, "")
	msg.IsStreaming = true
	return msg
}

// NewSystemMessage creates a system notice message.
func NewSystemMessage(content string) *Message {
	return newMessage(RoleSystem, content)
}

func newMessage(role Role, content string) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Role:      role,
		Timestamp: time.Now(),
		Content:   content,
	}
}

// AppendToken adds a streamed fragment to the in-flight content.
func (m *Message) AppendToken(token string) {
	if !m.IsStreaming {
		return
	}
	m.streamContent.WriteString(token)
	m.TokenCount++
}

// DisplayContent returns what should render right now: the final
// content, or the partial stream while tokens are still arriving.
func (m *Message) DisplayContent() string {
	if m.IsStreaming {
		return m.streamContent.String()
	}
	return m.Content
}

// FinalizeStream merges streamed content into Content and records
// statistics.
func (m *Message) FinalizeStream(stats *Statistics) {
	if m.IsStreaming {
		m.Content = m.streamContent.String()
		m.streamContent.Reset()
		m.IsStreaming = false
	}
	if stats != nil {
		m.TTFT = stats.TTFT
		m.TotalDuration = stats.TotalDuration
		m.TokensPerSec = stats.TokensPerSec
		if stats.TokenCount > 0 {
			m.TokenCount = stats.TokenCount
		}
	}
}

// =============================================================================
// STATISTICS
// =============================================================================

// Statistics captures timing for one streamed answer.
type Statistics struct {
	TTFT          time.Duration `json:"ttft_ns"`
	TotalDuration time.Duration `json:"total_duration_ns"`
	TokenCount    int           `json:"token_count"`
	TokensPerSec  float64       `json:"tokens_per_sec"`
}

// NewStatistics derives the generation rate from raw counters.
func NewStatistics(ttft, total time.Duration, tokens int) *Statistics {
	s := &Statistics{TTFT: ttft, TotalDuration: total, TokenCount: tokens}
	if total > 0 && tokens > 0 {
		s.TokensPerSec = float64(tokens) / total.Seconds()
	}
	return s
}
