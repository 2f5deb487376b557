// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package cli implements the non-TUI command surface of kgraph.

Commands: ask (one-shot streamed answer), chat (liner REPL), status
(health check), config (get/set/list), version, and help. Parsing is a
plain switch over os.Args; the command set is small enough that a flag
framework would outweigh it.

Output discipline: answers and data go to stdout, progress and
diagnostics to stderr, so every command composes with pipes. --json
switches ask and status to machine-readable output.
*/
package cli
