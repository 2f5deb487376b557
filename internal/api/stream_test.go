// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// streamBackend is a fake kgraph backend: /health always answers 200
// (unless healthFails is set), /api/chat/stream runs the per-question
// script.
type streamBackend struct {
	t           *testing.T
	healthFails atomic.Int32 // consume this many 503s before 200
	script      func(w http.ResponseWriter, r *http.Request, question string)
}

func (b *streamBackend) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			if b.healthFails.Add(-1) >= 0 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.Write([]byte(`{"status":"ok","graph_ready":true}`))
		case "/api/chat/stream":
			var req askRequest
			require.NoError(b.t, json.NewDecoder(r.Body).Decode(&req))
			b.script(w, r, req.Question)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func writeRecords(w http.ResponseWriter, lines ...string) {
	f := w.(http.Flusher)
	for _, l := range lines {
		fmt.Fprintf(w, "data: %s\n", l)
		f.Flush()
	}
}

func collect(t *testing.T, events <-chan StreamEvent, errc <-chan error) ([]StreamEvent, error) {
	t.Helper()
	var got []StreamEvent
	timeout := time.After(10 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return got, <-errc
			}
			got = append(got, ev)
		case <-timeout:
			t.Fatal("stream did not finish")
		}
	}
}

func TestAskStreamWireOrder(t *testing.T) {
	b := &streamBackend{t: t, script: func(w http.ResponseWriter, r *http.Request, q string) {
		writeRecords(w,
			`{"type":"status","data":"retrieving"}`,
			`{"type":"meta","data":{"sources":[{"title":"report"}]}}`,
			`{"type":"token","data":"Revenue"}`,
			`{"type":"token","data":" grew"}`,
			`{"type":"done"}`,
		)
	}}
	srv := httptest.NewServer(b.handler())
	defer srv.Close()

	c := newTestClient(srv.URL, fastRetry(3))
	events, errc := c.AskStream(context.Background(), "how did revenue do?", nil)

	got, err := collect(t, events, errc)
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, EventStatus, got[0].Kind)
	assert.Equal(t, "retrieving", got[0].Stage)
	assert.Equal(t, EventMeta, got[1].Kind)
	assert.Equal(t, "Revenue", got[2].Token)
	assert.Equal(t, " grew", got[3].Token)
	assert.Equal(t, EventDone, got[4].Kind)
}

func TestAskStreamDoneIsTerminal(t *testing.T) {
	b := &streamBackend{t: t, script: func(w http.ResponseWriter, r *http.Request, q string) {
		writeRecords(w,
			`{"type":"done"}`,
			`{"type":"token","data":"late"}`,
		)
	}}
	srv := httptest.NewServer(b.handler())
	defer srv.Close()

	c := newTestClient(srv.URL, fastRetry(3))
	events, errc := c.AskStream(context.Background(), "q", nil)

	got, err := collect(t, events, errc)
	require.NoError(t, err)
	// Nothing after done is delivered.
	require.Len(t, got, 1)
	assert.Equal(t, EventDone, got[0].Kind)
}

func TestAskStreamSkipsMalformedRecords(t *testing.T) {
	b := &streamBackend{t: t, script: func(w http.ResponseWriter, r *http.Request, q string) {
		writeRecords(w,
			`{"type":"token","data":`, // truncated JSON
			`{"type":"done"}`,
		)
	}}
	srv := httptest.NewServer(b.handler())
	defer srv.Close()

	c := newTestClient(srv.URL, fastRetry(3))
	events, errc := c.AskStream(context.Background(), "q", nil)

	got, err := collect(t, events, errc)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, EventDone, got[0].Kind)
}

func TestAskStreamEOFWithoutDoneIsBenign(t *testing.T) {
	b := &streamBackend{t: t, script: func(w http.ResponseWriter, r *http.Request, q string) {
		writeRecords(w, `{"type":"token","data":"partial"}`)
		// Handler returns: connection closes with no done record.
	}}
	srv := httptest.NewServer(b.handler())
	defer srv.Close()

	c := newTestClient(srv.URL, fastRetry(3))
	events, errc := c.AskStream(context.Background(), "q", nil)

	got, err := collect(t, events, errc)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "partial", got[0].Token)
}

func TestAskStreamNon2xxIsFatal(t *testing.T) {
	b := &streamBackend{t: t, script: func(w http.ResponseWriter, r *http.Request, q string) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}}
	srv := httptest.NewServer(b.handler())
	defer srv.Close()

	c := newTestClient(srv.URL, fastRetry(3))
	events, errc := c.AskStream(context.Background(), "q", nil)

	got, err := collect(t, events, errc)
	assert.Empty(t, got)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnprocessableEntity, se.Code)
}

func TestAskStreamHealthProbeRetries(t *testing.T) {
	b := &streamBackend{t: t, script: func(w http.ResponseWriter, r *http.Request, q string) {
		writeRecords(w, `{"type":"done"}`)
	}}
	b.healthFails.Store(2)
	srv := httptest.NewServer(b.handler())
	defer srv.Close()

	c := newTestClient(srv.URL, fastRetry(5))

	var notices atomic.Int32
	events, errc := c.AskStream(context.Background(), "q",
		func(int, time.Duration, string) { notices.Add(1) })

	got, err := collect(t, events, errc)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int32(2), notices.Load())
}

func TestAskStreamHealthProbeExhaustionFails(t *testing.T) {
	b := &streamBackend{t: t, script: func(w http.ResponseWriter, r *http.Request, q string) {
		t.Error("stream must not start when the probe never succeeds")
	}}
	b.healthFails.Store(100)
	srv := httptest.NewServer(b.handler())
	defer srv.Close()

	c := newTestClient(srv.URL, fastRetry(3))
	events, errc := c.AskStream(context.Background(), "q", nil)

	got, err := collect(t, events, errc)
	assert.Empty(t, got)
	assert.True(t, IsExhausted(err))
}

func TestAskStreamSupersedesPrevious(t *testing.T) {
	firstStarted := make(chan struct{})
	b := &streamBackend{t: t}
	b.script = func(w http.ResponseWriter, r *http.Request, q string) {
		switch q {
		case "first":
			writeRecords(w, `{"type":"token","data":"A"}`)
			close(firstStarted)
			<-r.Context().Done() // hold the stream open until superseded
		case "second":
			writeRecords(w,
				`{"type":"token","data":"B"}`,
				`{"type":"done"}`,
			)
		}
	}
	srv := httptest.NewServer(b.handler())
	defer srv.Close()

	c := newTestClient(srv.URL, fastRetry(3))

	eventsA, errcA := c.AskStream(context.Background(), "first", nil)

	// Wait until A is live so the supersede races nothing.
	select {
	case <-firstStarted:
	case <-time.After(10 * time.Second):
		t.Fatal("first stream never started")
	}

	eventsB, errcB := c.AskStream(context.Background(), "second", nil)

	gotA, errA := collect(t, eventsA, errcA)
	gotB, errB := collect(t, eventsB, errcB)

	// The superseded stream ends quietly; events already delivered stay
	// delivered.
	require.NoError(t, errA)
	require.Len(t, gotA, 1)
	assert.Equal(t, "A", gotA[0].Token)

	require.NoError(t, errB)
	require.Len(t, gotB, 2)
	assert.Equal(t, "B", gotB[0].Token)
	assert.Equal(t, EventDone, gotB[1].Kind)
}

func TestCancelStreamIsBenign(t *testing.T) {
	started := make(chan struct{})
	b := &streamBackend{t: t, script: func(w http.ResponseWriter, r *http.Request, q string) {
		writeRecords(w, `{"type":"token","data":"x"}`)
		close(started)
		<-r.Context().Done()
	}}
	srv := httptest.NewServer(b.handler())
	defer srv.Close()

	c := newTestClient(srv.URL, fastRetry(3))
	events, errc := c.AskStream(context.Background(), "q", nil)

	select {
	case <-started:
	case <-time.After(10 * time.Second):
		t.Fatal("stream never started")
	}
	c.CancelStream()

	got, err := collect(t, events, errc)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestCancelStreamWithNoActiveStream(t *testing.T) {
	c := NewClient()
	c.CancelStream() // must not panic
}

func TestAskCallbackWrapper(t *testing.T) {
	b := &streamBackend{t: t, script: func(w http.ResponseWriter, r *http.Request, q string) {
		writeRecords(w,
			`{"type":"token","data":"hello"}`,
			`{"type":"token","data":" world"}`,
			`{"type":"done"}`,
		)
	}}
	srv := httptest.NewServer(b.handler())
	defer srv.Close()

	c := newTestClient(srv.URL, fastRetry(3))

	var answer string
	var done bool
	err := c.Ask(context.Background(), "q", func(ev StreamEvent) {
		switch ev.Kind {
		case EventToken:
			answer += ev.Token
		case EventDone:
			done = true
		}
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, "hello world", answer)
	assert.True(t, done)
}

func TestAskStreamSendsSessionID(t *testing.T) {
	var sawSession atomic.Value
	b := &streamBackend{t: t, script: func(w http.ResponseWriter, r *http.Request, q string) {
		sawSession.Store(r.Header.Get("X-Session-ID"))
		writeRecords(w, `{"type":"done"}`)
	}}
	srv := httptest.NewServer(b.handler())
	defer srv.Close()

	c := newTestClient(srv.URL, fastRetry(3))
	events, errc := c.AskStream(context.Background(), "q", nil)
	_, err := collect(t, events, errc)
	require.NoError(t, err)
	assert.Equal(t, c.SessionID(), sawSession.Load())
}
