// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/kgraph-tui/internal/api"
)

func TestStreamingBufferBatchThreshold(t *testing.T) {
	sb := NewStreamingBuffer()
	sb.lastFlush = time.Now() // keep the time threshold out of play

	for i := 0; i < defaultBatchSize-1; i++ {
		sb.Write("x")
	}
	_, ok := sb.Flush()
	assert.False(t, ok, "flush before the batch fills")

	sb.Write("x")
	out, ok := sb.Flush()
	require.True(t, ok)
	assert.Len(t, out, defaultBatchSize)
}

func TestStreamingBufferTimeThreshold(t *testing.T) {
	sb := NewStreamingBuffer()
	sb.Write("hello")

	// A single token flushes once the frame gap has passed.
	sb.lastFlush = time.Now().Add(-time.Second)
	out, ok := sb.Flush()
	require.True(t, ok)
	assert.Equal(t, "hello", out)
}

func TestStreamingBufferForceFlush(t *testing.T) {
	sb := NewStreamingBuffer()
	sb.Write("tail")

	out, ok := sb.ForceFlush()
	require.True(t, ok)
	assert.Equal(t, "tail", out)

	_, ok = sb.ForceFlush()
	assert.False(t, ok, "second force flush has nothing left")
}

func TestStreamingBufferReset(t *testing.T) {
	sb := NewStreamingBuffer()
	sb.Write("stale")
	sb.Reset()

	assert.False(t, sb.Pending())
	_, ok := sb.ForceFlush()
	assert.False(t, ok)
}

func TestStreamingBufferDrainResetsCount(t *testing.T) {
	sb := NewStreamingBuffer()
	for i := 0; i < defaultBatchSize; i++ {
		sb.Write("a")
	}
	_, ok := sb.Flush()
	require.True(t, ok)

	// The count starts over: one more token is below the batch size
	// again.
	sb.lastFlush = time.Now()
	sb.Write("a")
	_, ok = sb.Flush()
	assert.False(t, ok)
}

func TestWaitForStreamDeliversEvent(t *testing.T) {
	events := make(chan api.StreamEvent, 1)
	errc := make(chan error, 1)
	notices := make(chan retryNotice, 1)

	events <- api.StreamEvent{Kind: api.EventToken, Token: "hi"}
	msg := waitForStream(events, errc, notices)()

	ev, ok := msg.(StreamEventMsg)
	require.True(t, ok, "expected StreamEventMsg, got %T", msg)
	assert.Equal(t, "hi", ev.Event.Token)
}

func TestWaitForStreamDeliversNotice(t *testing.T) {
	events := make(chan api.StreamEvent, 1)
	errc := make(chan error, 1)
	notices := make(chan retryNotice, 1)

	notices <- retryNotice{attempt: 2, message: "Still warming up, hang tight..."}
	msg := waitForStream(events, errc, notices)()

	n, ok := msg.(RetryNoticeMsg)
	require.True(t, ok, "expected RetryNoticeMsg, got %T", msg)
	assert.Equal(t, 2, n.Attempt)
	assert.Contains(t, n.Message, "warming up")
}

func TestWaitForStreamReportsClose(t *testing.T) {
	events := make(chan api.StreamEvent)
	errc := make(chan error, 1)
	notices := make(chan retryNotice, 1)

	close(events)
	close(errc)
	msg := waitForStream(events, errc, notices)()

	done, ok := msg.(StreamDoneMsg)
	require.True(t, ok, "expected StreamDoneMsg, got %T", msg)
	assert.NoError(t, done.Err)
}

func TestWaitForStreamDrainsNoticeBeforeClose(t *testing.T) {
	events := make(chan api.StreamEvent)
	errc := make(chan error, 1)
	notices := make(chan retryNotice, 1)

	notices <- retryNotice{attempt: 1, message: "Backend is waking up from a cold start..."}
	close(events)
	close(errc)

	// The raced-in notice is delivered first; the close on the next
	// wait.
	first := waitForStream(events, errc, notices)()
	_, isNotice := first.(RetryNoticeMsg)
	assert.True(t, isNotice, "expected the pending notice first, got %T", first)

	second := waitForStream(events, errc, notices)()
	_, isDone := second.(StreamDoneMsg)
	assert.True(t, isDone, "expected StreamDoneMsg second, got %T", second)
}
