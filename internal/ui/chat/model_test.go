// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jeranaias/kgraph-tui/internal/api"
	"github.com/jeranaias/kgraph-tui/internal/session"
	"github.com/jeranaias/kgraph-tui/internal/ui/components"
	"github.com/jeranaias/kgraph-tui/internal/ui/styles"
)

func newTestModel() Model {
	return New(styles.NewTheme(), api.NewClient(), session.NewManager())
}

func TestHealthStartsUnknown(t *testing.T) {
	m := newTestModel()
	assert.Equal(t, components.HealthUnknown, m.statusBar.Health)
}

func TestHandleEventMarksBackendOnline(t *testing.T) {
	m := newTestModel()
	m.session.Conversation().AddAssistantMessage()

	m.handleEvent(api.StreamEvent{Kind: api.EventToken, Token: "hi"})

	assert.Equal(t, components.HealthOK, m.statusBar.Health)
}

func TestFinishStreamMarksBackendDown(t *testing.T) {
	m := newTestModel()
	m.session.Conversation().AddAssistantMessage()

	m.finishStream(&api.ExhaustedError{Attempts: 5, Status: 503})

	assert.Equal(t, components.HealthDown, m.statusBar.Health)
	assert.NotEmpty(t, m.lastError)
}

func TestFinishStreamNonRetryableFailureStillOnline(t *testing.T) {
	m := newTestModel()
	m.session.Conversation().AddAssistantMessage()

	// A 4xx on the stream POST is an answer from a live server.
	m.finishStream(&api.StatusError{Code: 422, Status: "422 Unprocessable Entity"})

	assert.Equal(t, components.HealthOK, m.statusBar.Health)
}

func TestFinishStreamCancelKeepsHealthUnknown(t *testing.T) {
	m := newTestModel()
	m.session.Conversation().AddAssistantMessage()

	// Cancelled before the backend ever answered: no verdict.
	m.finishStream(nil)

	assert.Equal(t, components.HealthUnknown, m.statusBar.Health)
}
