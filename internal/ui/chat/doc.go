// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat implements the interactive chat view of the kgraph TUI.

The view wires the api client's answer stream into the Bubble Tea loop:
AskStream's event channel is pumped through waitForStream commands, and
tokens are batched by a StreamingBuffer so the transcript repaints at a
capped frame rate instead of once per token. Cold-start retry notices
surface in the status bar while the health probe rides out a sleeping
backend.

Finished answers render as markdown through glamour; in-flight answers
render as raw text because markdown layout needs the complete document.
*/
package chat
