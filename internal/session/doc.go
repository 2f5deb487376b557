// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session tracks client session identity and activity.
//
// A session owns the uuid identifier sent with every backend request,
// the in-memory conversation transcript, activity timestamps, and the
// answer-stream state surfaced in the status bar. Nothing is persisted:
// history lives for the lifetime of the process.
//
// # Usage
//
//	mgr := session.NewManager()
//	mgr.RecordQuestion()
//	mgr.SetStreamState(session.StreamProbing)
package session
