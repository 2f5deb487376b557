// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api implements the HTTP client for the kgraph backend.
//
// The backend is a serverless knowledge-graph service that may be cold
// when the first request arrives, so every request goes through a retry
// wrapper with exponential backoff and jitter (see retry.go). Chat
// answers are streamed token-by-token over an SSE-style response body
// (see stream.go and sse.go); dashboard data (entities, portfolio,
// trends) comes from plain JSON REST endpoints (see client.go).
//
// A Client owns at most one active answer stream. Starting a new stream
// cancels the previous one before the new request is issued.
package api
