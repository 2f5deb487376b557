// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"sync"
	"testing"
	"time"
)

func TestNewManager(t *testing.T) {
	m := NewManager()
	if m.SessionID() == "" {
		t.Error("SessionID should not be empty")
	}
	if m.Conversation() == nil {
		t.Error("Conversation should be initialized")
	}
	if m.StreamState() != StreamIdle {
		t.Errorf("StreamState = %v, want idle", m.StreamState())
	}
	if m.QuestionCount() != 0 {
		t.Errorf("QuestionCount = %d, want 0", m.QuestionCount())
	}
}

func TestSessionIDsAreUnique(t *testing.T) {
	if NewManager().SessionID() == NewManager().SessionID() {
		t.Error("two managers share a session id")
	}
}

func TestRecordQuestion(t *testing.T) {
	m := NewManager()
	m.RecordQuestion()
	m.RecordQuestion()
	if m.QuestionCount() != 2 {
		t.Errorf("QuestionCount = %d, want 2", m.QuestionCount())
	}
	if m.IdleTime() > time.Second {
		t.Errorf("IdleTime = %v after activity", m.IdleTime())
	}
}

func TestStreamStateClearsRetryNotice(t *testing.T) {
	m := NewManager()
	m.SetStreamState(StreamProbing)
	m.SetRetryNotice("Backend is waking up from a cold start...")

	if m.RetryNotice() == "" {
		t.Error("retry notice should be set while probing")
	}

	// First token arrived: the cold-start notice is stale.
	m.SetStreamState(StreamStreaming)
	if m.RetryNotice() != "" {
		t.Errorf("RetryNotice = %q, want cleared", m.RetryNotice())
	}
}

func TestStreamStateString(t *testing.T) {
	tests := []struct {
		state StreamState
		want  string
	}{
		{StreamIdle, "idle"},
		{StreamProbing, "probing"},
		{StreamStreaming, "streaming"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestResetKeepsIdentity(t *testing.T) {
	m := NewManager()
	id := m.SessionID()
	m.Conversation().AddUserMessage("q")
	m.SetStreamState(StreamStreaming)

	m.Reset()

	if m.SessionID() != id {
		t.Error("Reset must keep the session id")
	}
	if !m.Conversation().IsEmpty() {
		t.Error("Reset must start a fresh conversation")
	}
	if m.StreamState() != StreamIdle {
		t.Error("Reset must return stream state to idle")
	}
}

// Concurrent access must be race-free.
func TestManagerConcurrentAccess(t *testing.T) {
	m := NewManager()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			m.RecordQuestion()
		}()
		go func() {
			defer wg.Done()
			m.SetStreamState(StreamStreaming)
		}()
		go func() {
			defer wg.Done()
			_ = m.RetryNotice()
			_ = m.StreamState()
		}()
	}
	wg.Wait()
}
