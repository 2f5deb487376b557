// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEventKinds(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want StreamEvent
	}{
		{"status", `{"type":"status","data":"retrieving"}`, StreamEvent{Kind: EventStatus, Stage: "retrieving"}},
		{"token", `{"type":"token","data":" the"}`, StreamEvent{Kind: EventToken, Token: " the"}},
		{"error", `{"type":"error","data":"graph not ready"}`, StreamEvent{Kind: EventError, Message: "graph not ready"}},
		{"done", `{"type":"done"}`, StreamEvent{Kind: EventDone}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := ParseEvent([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, ev)
		})
	}
}

func TestParseEventMeta(t *testing.T) {
	in := `{"type":"meta","data":{"sources":[{"title":"10-K","url":"https://x/10k","snippet":"revenue"}],"model":"kg-7b"}}`
	ev, err := ParseEvent([]byte(in))
	require.NoError(t, err)
	assert.Equal(t, EventMeta, ev.Kind)
	require.NotNil(t, ev.Meta)
	require.Len(t, ev.Meta.Sources, 1)
	assert.Equal(t, "10-K", ev.Meta.Sources[0].Title)
	assert.Equal(t, "https://x/10k", ev.Meta.Sources[0].URL)
	assert.Contains(t, ev.Meta.Extra, "model")
}

func TestParseEventUnknownKindPreserved(t *testing.T) {
	ev, err := ParseEvent([]byte(`{"type":"heartbeat","data":1}`))
	require.NoError(t, err)
	assert.Equal(t, EventUnknown, ev.Kind)
	assert.Equal(t, "heartbeat", ev.RawType)
}

func TestParseEventMalformed(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"truncated json", `{"type":"token","data":"hi`},
		{"not json", `hello`},
		{"missing type", `{"data":"x"}`},
		{"wrong payload shape", `{"type":"token","data":{"nested":true}}`},
		{"bad status payload", `{"type":"status","data":7}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEvent([]byte(tt.in))
			assert.Error(t, err)
		})
	}
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "token", EventToken.String())
	assert.Equal(t, "done", EventDone.String())
	assert.Equal(t, "unknown", EventUnknown.String())
	assert.Equal(t, "unknown", EventKind(99).String())
}
