// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"encoding/json"
	"fmt"
)

// =============================================================================
// STREAM EVENT UNION
// =============================================================================

// EventKind identifies what a stream record carries.
type EventKind int

const (
	// EventUnknown is any record whose type the client does not
	// recognize. Unknown kinds are delivered, not dropped, so callers
	// can decide whether to ignore them.
	EventUnknown EventKind = iota
	EventStatus
	EventMeta
	EventToken
	EventError
	EventDone
)

func (k EventKind) String() string {
	switch k {
	case EventStatus:
		return "status"
	case EventMeta:
		return "meta"
	case EventToken:
		return "token"
	case EventError:
		return "error"
	case EventDone:
		return "done"
	default:
		return "unknown"
	}
}

// Source is one attribution entry carried by a meta event.
type Source struct {
	Title   string `json:"title"`
	URL     string `json:"url,omitempty"`
	Snippet string `json:"snippet,omitempty"`
}

// Meta is the payload of a meta event: source attributions plus any
// free-form fields the backend adds.
type Meta struct {
	Sources []Source                   `json:"sources,omitempty"`
	Extra   map[string]json.RawMessage `json:"-"`
}

func (m *Meta) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if raw, ok := fields["sources"]; ok {
		if err := json.Unmarshal(raw, &m.Sources); err != nil {
			return err
		}
		delete(fields, "sources")
	}
	if len(fields) > 0 {
		m.Extra = fields
	}
	return nil
}

// StreamEvent is one parsed record from an answer stream. Exactly the
// fields relevant to Kind are set.
type StreamEvent struct {
	Kind EventKind

	// Stage is the pipeline stage name (status events).
	Stage string

	// Token is a text fragment of the answer (token events).
	Token string

	// Message is the backend's error text (error events).
	Message string

	// Meta holds source attributions (meta events).
	Meta *Meta

	// RawType preserves the wire type string for unknown kinds.
	RawType string
}

// =============================================================================
// PARSING
// =============================================================================

// wireEvent is the raw record shape: {"type": "...", "data": ...} where
// the data payload depends on the type.
type wireEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ParseEvent decodes one stream record. Malformed JSON, a missing type,
// or a payload that does not match the declared type is an error; the
// stream reader skips such records with a diagnostic log rather than
// aborting the stream.
func ParseEvent(data []byte) (StreamEvent, error) {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return StreamEvent{}, fmt.Errorf("malformed stream record: %w", err)
	}
	if w.Type == "" {
		return StreamEvent{}, fmt.Errorf("stream record missing type")
	}

	switch w.Type {
	case "status":
		var stage string
		if err := json.Unmarshal(w.Data, &stage); err != nil {
			return StreamEvent{}, fmt.Errorf("bad status payload: %w", err)
		}
		return StreamEvent{Kind: EventStatus, Stage: stage}, nil
	case "token":
		var tok string
		if err := json.Unmarshal(w.Data, &tok); err != nil {
			return StreamEvent{}, fmt.Errorf("bad token payload: %w", err)
		}
		return StreamEvent{Kind: EventToken, Token: tok}, nil
	case "error":
		var msg string
		if err := json.Unmarshal(w.Data, &msg); err != nil {
			return StreamEvent{}, fmt.Errorf("bad error payload: %w", err)
		}
		return StreamEvent{Kind: EventError, Message: msg}, nil
	case "meta":
		var m Meta
		if len(w.Data) > 0 {
			if err := json.Unmarshal(w.Data, &m); err != nil {
				return StreamEvent{}, fmt.Errorf("bad meta payload: %w", err)
			}
		}
		return StreamEvent{Kind: EventMeta, Meta: &m}, nil
	case "done":
		return StreamEvent{Kind: EventDone}, nil
	default:
		return StreamEvent{Kind: EventUnknown, RawType: w.Type}, nil
	}
}
