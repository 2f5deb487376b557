// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeUnavailable
	ErrTypeTimeout
	ErrTypeInvalidResponse
	ErrTypeStream
)

// ClientError represents an error from the kgraph client.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Sentinel errors for easy checking.
var (
	ErrUnavailable = &ClientError{Type: ErrTypeUnavailable, Message: "backend is not reachable"}
	ErrTimeout     = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
)

// StatusError represents a non-retryable HTTP error response.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	if e.Status != "" {
		return "unexpected status from backend: " + e.Status
	}
	return fmt.Sprintf("unexpected status from backend: %d", e.Code)
}

// ExhaustedError is returned when every retry attempt has failed.
// Status is the last HTTP status code seen, or 0 for network failures.
type ExhaustedError struct {
	Attempts int
	Status   int
	Last     error
}

func (e *ExhaustedError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("request failed with status %d after %d attempts", e.Status, e.Attempts)
	}
	if e.Last != nil {
		return fmt.Sprintf("request failed after %d attempts: %v", e.Attempts, e.Last)
	}
	return fmt.Sprintf("request failed after %d attempts", e.Attempts)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// =============================================================================
// CLASSIFICATION HELPERS
// =============================================================================

// IsExhausted reports whether err means the retry budget ran out.
func IsExhausted(err error) bool {
	var ee *ExhaustedError
	return errors.As(err, &ee)
}

// IsUnavailable reports whether err indicates the backend is unreachable.
func IsUnavailable(err error) bool {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Type == ErrTypeUnavailable
	}
	return errors.Is(err, ErrUnavailable)
}

// IsCancelled reports whether err is a benign cancellation. A superseded
// or user-cancelled stream ends with a cancellation, never a user-facing
// error.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled)
}

// isNetworkErr reports whether err looks like a connection-level or
// timeout failure worth retrying.
func isNetworkErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	// http.Client wraps transport failures in *url.Error; anything that
	// is not a context cancellation is treated as transient here.
	return true
}
