// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Argument parsing and command dispatch for kgraph.
package cli

import (
	"fmt"
	"os"
	"strings"
)

// Version information (can be overridden at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdStatus
	CmdDashboard
	CmdConfig
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet   bool
	Verbose bool
	JSON    bool
	NoCache bool
	BaseURL string

	// Command-specific
	Question   string
	Subcommand string
	ConfigKey  string
	ConfigVal  string

	// Raw args remaining after flag parsing
	Raw []string
}

const usageText = `kgraph - terminal client for a knowledge-graph backend

Kgraph chats with a knowledge-graph service and browses its dashboard
data from the terminal. Answers stream token by token; a sleeping
backend is woken automatically with progress notices while it warms up.

Usage:
  kgraph                     Start the chat TUI (default)
  kgraph ask "question"      Ask one question, print the answer
  kgraph chat                Interactive REPL without the TUI
  kgraph dashboard           Start the TUI on the dashboard view
  kgraph status, s           Check backend health
  kgraph config [get|set|list]  Configuration
  kgraph version             Show version
  kgraph help                Show this help

Config Commands:
  kgraph config list               Show all keys and values
  kgraph config get backend.base_url
  kgraph config set retry.max_attempts 5

Global Flags:
  --base-url URL   Override the backend base URL for this run
  --no-cache       Skip the dashboard response cache
  --json           Machine-readable output (ask, status)
  -q, --quiet      Suppress progress notices
  -v, --verbose    Show stream stages and timing
  -h, --help       Show help

Environment:
  KGRAPH_BASE_URL, KGRAPH_TIMEOUT_SECS, KGRAPH_MAX_ATTEMPTS,
  KGRAPH_THEME, KGRAPH_NO_MARKDOWN, KGRAPH_NO_CACHE

Examples:
  kgraph ask "Who is connected to Acme Corp?"
  kgraph ask --json "Summarize this week's trends" > answer.json
  kgraph status
  KGRAPH_BASE_URL=https://kg.example.com kgraph`

// Parse reads os.Args and returns the command plus its arguments.
func Parse() (Command, Args) {
	return parseArgv(os.Args[1:])
}

func parseArgv(argv []string) (Command, Args) {
	rest, args := parseGlobalFlags(argv)

	if len(rest) == 0 {
		return CmdTUI, args
	}

	cmd := rest[0]
	rest = rest[1:]
	args.Raw = rest

	switch cmd {
	case "tui":
		return CmdTUI, args

	case "ask":
		args.Question = strings.TrimSpace(strings.Join(rest, " "))
		return CmdAsk, args

	case "chat":
		return CmdChat, args

	case "dashboard", "dash":
		return CmdDashboard, args

	case "status", "s", "health":
		return CmdStatus, args

	case "config":
		if len(rest) > 0 {
			args.Subcommand = rest[0]
		}
		if len(rest) > 1 {
			args.ConfigKey = rest[1]
		}
		if len(rest) > 2 {
			args.ConfigVal = strings.Join(rest[2:], " ")
		}
		return CmdConfig, args

	case "version", "--version":
		return CmdVersion, args

	case "help", "-h", "--help":
		return CmdHelp, args

	default:
		fmt.Fprintf(os.Stderr, "kgraph: unknown command %q\n\n", cmd)
		return CmdHelp, args
	}
}

// parseGlobalFlags strips flags that apply to every command.
func parseGlobalFlags(argv []string) ([]string, Args) {
	var args Args
	rest := make([]string, 0, len(argv))

	for i := 0; i < len(argv); i++ {
		switch argv[i] {
		case "-q", "--quiet":
			args.Quiet = true
		case "-v", "--verbose":
			args.Verbose = true
		case "--json":
			args.JSON = true
		case "--no-cache":
			args.NoCache = true
		case "--base-url":
			if i+1 < len(argv) {
				i++
				args.BaseURL = argv[i]
			}
		default:
			rest = append(rest, argv[i])
		}
	}
	return rest, args
}

// PrintUsage writes the help text to stdout.
func PrintUsage() {
	fmt.Println(usageText)
}

// PrintVersion writes build information to stdout.
func PrintVersion() {
	fmt.Printf("kgraph %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
}
