// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
)

// =============================================================================
// ANSWER STREAMING
// =============================================================================

// askRequest is the POST /api/chat/stream body.
type askRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id,omitempty"`
}

// streamHandle identifies one in-flight stream so a finished stream only
// clears itself, never a successor that replaced it.
type streamHandle struct {
	cancel context.CancelFunc
}

// AskStream sends a question and streams the answer.
//
// Any stream previously started on this client is cancelled before the
// new request goes out; the superseded stream's channels close without
// an error. The health endpoint is probed first through the retry
// wrapper so a cold backend warms up before the POST; the probe runs
// under the stream's context, so superseding or cancelling also aborts
// a probe that is still retrying.
//
// Events arrive on the first channel in wire order. The channel closes
// after a done event, at end of stream, on cancellation, or on error;
// the second channel then yields at most one error. Cancellation is not
// an error. onRetry may be nil.
func (c *Client) AskStream(ctx context.Context, question string, onRetry RetryFunc) (<-chan StreamEvent, <-chan error) {
	events := make(chan StreamEvent, 64)
	errc := make(chan error, 1)

	streamCtx, cancel := context.WithCancel(ctx)
	h := &streamHandle{cancel: cancel}
	c.takeActive(h)

	go func() {
		defer close(errc)
		defer close(events)
		defer c.releaseActive(h)
		defer cancel()

		if err := c.run(streamCtx, question, events, onRetry); err != nil && !IsCancelled(err) {
			errc <- err
		}
	}()

	return events, errc
}

// Ask is the callback form of AskStream for callers without an event
// loop of their own. It blocks until the stream finishes.
func (c *Client) Ask(ctx context.Context, question string, onEvent func(StreamEvent), onRetry RetryFunc) error {
	events, errc := c.AskStream(ctx, question, onRetry)
	for ev := range events {
		if onEvent != nil {
			onEvent(ev)
		}
	}
	return <-errc
}

// CancelStream aborts the active answer stream, if any. The stream's
// channels close without an error.
func (c *Client) CancelStream() {
	c.mu.Lock()
	h := c.active
	c.active = nil
	c.mu.Unlock()
	if h != nil {
		h.cancel()
	}
}

// takeActive installs h as the one active stream, cancelling whatever
// was there.
func (c *Client) takeActive(h *streamHandle) {
	c.mu.Lock()
	prev := c.active
	c.active = h
	c.mu.Unlock()
	if prev != nil {
		prev.cancel()
	}
}

// releaseActive clears h if it is still the active stream.
func (c *Client) releaseActive(h *streamHandle) {
	c.mu.Lock()
	if c.active == h {
		c.active = nil
	}
	c.mu.Unlock()
}

// =============================================================================
// STREAM LIFECYCLE
// =============================================================================

func (c *Client) run(ctx context.Context, question string, events chan<- StreamEvent, onRetry RetryFunc) error {
	// Warm the backend. The probe result is discarded; its side effect
	// is the cold start it rides out.
	if err := c.probeHealth(ctx, onRetry); err != nil {
		return err
	}

	body, err := json.Marshal(askRequest{Question: question, SessionID: c.sessionID})
	if err != nil {
		return &ClientError{Type: ErrTypeUnknown, Message: "encoding question", Cause: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+streamPath, bytes.NewReader(body))
	if err != nil {
		return &ClientError{Type: ErrTypeUnknown, Message: "building stream request", Cause: err}
	}
	c.setHeaders(req)
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &ClientError{Type: ErrTypeUnavailable, Message: "starting answer stream", Cause: err}
	}
	defer resp.Body.Close()

	// The stream POST itself is never retried: tokens may already have
	// been produced server-side. Any non-2xx is fatal.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	return c.readStream(ctx, resp.Body, events)
}

// probeHealth warms the backend before streaming. Any HTTP response,
// success or not, counts: the request reached the service, which is all
// the warm-up needs. Only retry exhaustion or cancellation propagate.
func (c *Client) probeHealth(ctx context.Context, onRetry RetryFunc) error {
	resp, err := c.doWithRetry(ctx, http.MethodGet, c.baseURL+healthPath, nil, onRetry)
	if err != nil {
		return err
	}
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
	return nil
}

// readStream consumes the response body, forwarding parsed events in
// wire order. Malformed records are skipped with a diagnostic log. A
// done event is forwarded and ends the read; so does a clean EOF.
func (c *Client) readStream(ctx context.Context, body io.Reader, events chan<- StreamEvent) error {
	parser := &LineParser{}
	buf := make([]byte, 4096)

	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			for _, payload := range parser.Feed(buf[:n]) {
				done, err := c.forward(ctx, payload, events)
				if err != nil {
					return err
				}
				if done {
					return nil
				}
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				if payload, ok := parser.Flush(); ok {
					if _, err := c.forward(ctx, payload, events); err != nil {
						return err
					}
				}
				// End of stream without done: the answer may be
				// truncated but the stream itself ended normally.
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &ClientError{Type: ErrTypeStream, Message: "reading answer stream", Cause: readErr}
		}
	}
}

// forward parses one payload and delivers it. done=true after a done
// event.
func (c *Client) forward(ctx context.Context, payload []byte, events chan<- StreamEvent) (done bool, err error) {
	ev, perr := ParseEvent(payload)
	if perr != nil {
		log.Printf("kgraph: skipping stream record: %v", perr)
		return false, nil
	}
	select {
	case events <- ev:
	case <-ctx.Done():
		return false, ctx.Err()
	}
	return ev.Kind == EventDone, nil
}
