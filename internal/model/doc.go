// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// This package defines the core domain types used throughout the
// application for representing chat transcripts.
//
// # Key Types
//
//   - Conversation: Container for a chat session with messages
//   - Message: Single message with role, content, timestamp, and sources
//   - Statistics: Timing for one streamed answer
//   - Role: Message role enumeration (user, assistant, system)
//
// # Usage
//
// Create a new conversation:
//
//	conv := model.NewConversation()
//	conv.AddUserMessage("How did revenue trend?")
//	msg := conv.AddAssistantMessage()
//	msg.AppendToken("Revenue")
package model
