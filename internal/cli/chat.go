// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive REPL without the full TUI.
//
// USABILITY: liner gives arrow-key history and line editing; history
// persists across sessions in the config directory.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/peterh/liner"

	"github.com/jeranaias/kgraph-tui/internal/api"
	"github.com/jeranaias/kgraph-tui/internal/config"
)

// =============================================================================
// REPL INPUT
// =============================================================================

// replInput wraps liner with persistent history.
type replInput struct {
	line        *liner.State
	historyFile string
}

func newREPLInput() *replInput {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	historyFile, err := config.Global().HistoryPath()
	if err != nil {
		historyFile = filepath.Join(os.TempDir(), "kgraph_history")
	}

	r := &replInput{line: line, historyFile: historyFile}
	r.loadHistory()
	return r
}

func (r *replInput) loadHistory() {
	if f, err := os.Open(r.historyFile); err == nil {
		r.line.ReadHistory(f)
		f.Close()
	}
}

func (r *replInput) saveHistory() {
	if err := os.MkdirAll(filepath.Dir(r.historyFile), 0755); err != nil {
		return
	}
	f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	r.line.WriteHistory(f)
}

// read returns one line of input, recording non-empty lines in history.
func (r *replInput) read(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

func (r *replInput) close() {
	r.saveHistory()
	r.line.Close()
}

// =============================================================================
// CHAT COMMAND
// =============================================================================

// HandleChat runs the REPL loop.
func HandleChat(args Args) error {
	if !StdinIsTerminal() {
		return fmt.Errorf("chat needs an interactive terminal; use `kgraph ask` for piped input")
	}

	client := newClient(args)
	input := newREPLInput()
	defer input.close()

	if !args.Quiet {
		fmt.Println("kgraph chat - /help for commands, /quit or ctrl+d to exit")
	}

	for {
		line, err := input.read("kgraph> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				continue
			}
			// io.EOF on ctrl+d.
			fmt.Println()
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if done := replCommand(line, client, args); done {
				return nil
			}
			continue
		}

		if err := streamToStdout(client, line, args); err != nil {
			fmt.Fprintf(os.Stderr, "kgraph: %v\n", err)
		}
	}
}

// replCommand handles slash commands; true means exit the loop.
func replCommand(line string, client *api.Client, args Args) bool {
	switch strings.Fields(line)[0] {
	case "/quit", "/exit", "/q":
		return true
	case "/status":
		if err := HandleStatus(args); err != nil {
			fmt.Fprintf(os.Stderr, "kgraph: %v\n", err)
		}
	case "/session":
		fmt.Println("session", client.SessionID())
	case "/help":
		fmt.Println("  /status   backend health")
		fmt.Println("  /session  show session id")
		fmt.Println("  /quit     exit")
	default:
		fmt.Fprintf(os.Stderr, "kgraph: unknown command %s\n", line)
	}
	return false
}

// streamToStdout streams one answer, printing tokens as they arrive.
func streamToStdout(client *api.Client, question string, args Args) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	onRetry := func(attempt int, delay time.Duration, message string) {
		if !args.Quiet {
			fmt.Fprintf(os.Stderr, "%s (attempt %d)\n", message, attempt)
		}
	}

	printed := false
	var sources []api.Source
	err := client.Ask(ctx, question, func(ev api.StreamEvent) {
		switch ev.Kind {
		case api.EventStatus:
			if args.Verbose {
				fmt.Fprintf(os.Stderr, "[%s]\n", ev.Stage)
			}
		case api.EventToken:
			printed = true
			fmt.Print(ev.Token)
		case api.EventMeta:
			if ev.Meta != nil {
				sources = ev.Meta.Sources
			}
		case api.EventError:
			fmt.Fprintf(os.Stderr, "kgraph: backend error: %s\n", ev.Message)
		}
	}, onRetry)

	if printed {
		fmt.Println()
	}
	if err != nil {
		return err
	}
	if !args.Quiet && len(sources) > 0 {
		printSources(sources)
	}
	fmt.Println()
	return nil
}
