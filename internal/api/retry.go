// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"io"
	"log"
	"math"
	"math/rand/v2"
	"net/http"
	"time"
)

// =============================================================================
// RETRY CONFIGURATION
// =============================================================================

// Default retry policy. Tuned for serverless cold starts: the backend can
// take tens of seconds to warm, so the budget is generous.
const (
	DefaultMaxAttempts       = 5
	DefaultInitialDelay      = 1 * time.Second
	DefaultMaxDelay          = 30 * time.Second
	DefaultBackoffMultiplier = 2.0
	DefaultJitterFactor      = 0.2
)

// RetryConfig controls the backoff retry wrapper applied to every
// request the client sends.
type RetryConfig struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int

	// InitialDelay is the pause before the second attempt.
	InitialDelay time.Duration

	// MaxDelay caps the computed delay before jitter is applied.
	MaxDelay time.Duration

	// BackoffMultiplier grows the delay per attempt.
	BackoffMultiplier float64

	// JitterFactor spreads the delay by ±JitterFactor*delay so that
	// simultaneous clients do not retry in lockstep.
	JitterFactor float64

	// RetryableStatuses are the HTTP status codes worth retrying.
	// Anything else is returned to the caller as-is.
	RetryableStatuses map[int]bool
}

// DefaultRetryConfig returns the cold-start retry policy.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       DefaultMaxAttempts,
		InitialDelay:      DefaultInitialDelay,
		MaxDelay:          DefaultMaxDelay,
		BackoffMultiplier: DefaultBackoffMultiplier,
		JitterFactor:      DefaultJitterFactor,
		RetryableStatuses: map[int]bool{
			http.StatusRequestTimeout:      true, // 408
			http.StatusTooManyRequests:     true, // 429
			http.StatusInternalServerError: true, // 500
			http.StatusBadGateway:          true, // 502
			http.StatusServiceUnavailable:  true, // 503
			http.StatusGatewayTimeout:      true, // 504
		},
	}
}

// normalized fills zero fields with defaults so a partially-populated
// config behaves sensibly.
func (c RetryConfig) normalized() RetryConfig {
	d := DefaultRetryConfig()
	if c.MaxAttempts < 1 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = d.InitialDelay
	}
	if c.MaxDelay < c.InitialDelay {
		c.MaxDelay = d.MaxDelay
	}
	if c.BackoffMultiplier <= 1 {
		c.BackoffMultiplier = d.BackoffMultiplier
	}
	if c.JitterFactor < 0 || c.JitterFactor >= 1 {
		c.JitterFactor = d.JitterFactor
	}
	if c.RetryableStatuses == nil {
		c.RetryableStatuses = d.RetryableStatuses
	}
	return c
}

// backoff computes the sleep before attempt+1. The exponential delay is
// capped at MaxDelay first, then jittered symmetrically, so the result
// can exceed MaxDelay by at most JitterFactor*MaxDelay.
func (c RetryConfig) backoff(attempt int) time.Duration {
	base := float64(c.InitialDelay) * math.Pow(c.BackoffMultiplier, float64(attempt-1))
	if capped := float64(c.MaxDelay); base > capped {
		base = capped
	}
	if c.JitterFactor > 0 {
		base *= 1 + (rand.Float64()*2-1)*c.JitterFactor
	}
	if base < 0 {
		base = 0
	}
	return time.Duration(base)
}

// =============================================================================
// RETRY NOTIFICATIONS
// =============================================================================

// RetryFunc is invoked before each retry sleep. attempt is the attempt
// that just failed (1-based), delay the upcoming pause, message a
// human-readable progress line. The callback is advisory: it runs on the
// requesting goroutine but a panic inside it never aborts the retry loop.
type RetryFunc func(attempt int, delay time.Duration, message string)

// coldStartMessages are shown in order as retries accumulate; the last
// one repeats once the list is exhausted.
var coldStartMessages = []string{
	"Backend is waking up from a cold start...",
	"Still warming up, hang tight...",
	"Spinning up the knowledge graph...",
	"Almost there, the server is nearly ready...",
	"Taking longer than usual, still trying...",
}

// ColdStartMessage returns the progress line for a failed attempt
// (1-based).
func ColdStartMessage(attempt int) string {
	i := attempt - 1
	if i < 0 {
		i = 0
	}
	if i >= len(coldStartMessages) {
		i = len(coldStartMessages) - 1
	}
	return coldStartMessages[i]
}

func notifyRetry(fn RetryFunc, attempt int, delay time.Duration) {
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("kgraph: retry callback panicked: %v", r)
		}
	}()
	fn(attempt, delay, ColdStartMessage(attempt))
}

// =============================================================================
// RETRY LOOP
// =============================================================================

// doWithRetry issues method+url with the client's retry policy. A nil
// error means the response is live and the caller owns the body; the
// status code may still be a non-retryable error status. Network
// failures and retryable statuses are retried with backoff until the
// attempt budget runs out, then surface as *ExhaustedError. Context
// cancellation aborts immediately.
func (c *Client) doWithRetry(ctx context.Context, method, url string, body []byte, onRetry RetryFunc) (*http.Response, error) {
	cfg := c.retry
	var lastErr error
	var lastStatus int

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, &ClientError{Type: ErrTypeUnknown, Message: "building request", Cause: err}
		}
		c.setHeaders(req)

		resp, err := c.httpClient.Do(req)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if !isNetworkErr(err) {
				return nil, &ClientError{Type: ErrTypeUnknown, Message: "request failed", Cause: err}
			}
			lastErr, lastStatus = err, 0
		case cfg.RetryableStatuses[resp.StatusCode]:
			io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			lastErr, lastStatus = nil, resp.StatusCode
		default:
			return resp, nil
		}

		if attempt == cfg.MaxAttempts {
			break
		}
		delay := cfg.backoff(attempt)
		notifyRetry(onRetry, attempt, delay)
		if err := sleepCtx(ctx, delay); err != nil {
			return nil, err
		}
	}

	return nil, &ExhaustedError{Attempts: cfg.MaxAttempts, Status: lastStatus, Last: lastErr}
}

// sleepCtx sleeps for d unless ctx is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
