// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - Single question command handler.
//
// Streams one answer to stdout. When stdout is a TTY the finished
// answer is re-rendered as markdown; piped output stays raw so the
// command composes with other tools.
//
// Examples:
//
//	kgraph ask "Who is connected to Acme Corp?"
//	kgraph ask --json "Summarize this week's trends" > answer.json
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jeranaias/kgraph-tui/internal/api"
	"github.com/jeranaias/kgraph-tui/internal/config"
	"github.com/jeranaias/kgraph-tui/internal/ui/components"
)

// askResult is the --json output shape.
type askResult struct {
	Question string       `json:"question"`
	Answer   string       `json:"answer"`
	Sources  []api.Source `json:"sources,omitempty"`
	Stage    string       `json:"last_stage,omitempty"`
	Tokens   int          `json:"tokens"`
	Duration string       `json:"duration"`
	Error    string       `json:"error,omitempty"`
}

// HandleAsk runs the ask command.
func HandleAsk(args Args) error {
	if args.Question == "" {
		return fmt.Errorf("usage: kgraph ask \"question\"")
	}

	client := newClient(args)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var (
		answer  strings.Builder
		sources []api.Source
		stage   string
		tokens  int
		start   = time.Now()
	)

	onRetry := func(attempt int, delay time.Duration, message string) {
		if args.Quiet {
			return
		}
		fmt.Fprintf(os.Stderr, "%s (attempt %d, next try in %s)\n", message, attempt, delay.Round(time.Second))
	}

	// Tokens go straight to stdout as they arrive except when the
	// finished answer will be re-rendered as markdown, or collected
	// silently for --json.
	renderMarkdown := config.Global().UI.Markdown && StdoutIsTerminal()
	echoTokens := !args.JSON && !renderMarkdown

	onEvent := func(ev api.StreamEvent) {
		switch ev.Kind {
		case api.EventStatus:
			stage = ev.Stage
			if args.Verbose {
				fmt.Fprintf(os.Stderr, "[%s]\n", ev.Stage)
			}
		case api.EventToken:
			tokens++
			answer.WriteString(ev.Token)
			if echoTokens {
				fmt.Print(ev.Token)
			}
		case api.EventMeta:
			if ev.Meta != nil {
				sources = ev.Meta.Sources
			}
		case api.EventError:
			fmt.Fprintf(os.Stderr, "kgraph: backend error: %s\n", ev.Message)
		}
	}

	err := client.Ask(ctx, args.Question, onEvent, onRetry)

	if args.JSON {
		return printAskJSON(args.Question, answer.String(), sources, stage, tokens, time.Since(start), err)
	}
	if err != nil {
		if echoTokens && answer.Len() > 0 {
			fmt.Println()
		}
		return err
	}

	if echoTokens {
		fmt.Println()
	} else {
		renderAnswer(answer.String())
	}

	if !args.Quiet && len(sources) > 0 {
		printSources(sources)
	}
	if args.Verbose {
		fmt.Fprintf(os.Stderr, "%d tokens in %s\n", tokens, time.Since(start).Round(time.Millisecond))
	}
	return nil
}

// renderAnswer prints the finished answer markdown-formatted.
func renderAnswer(answer string) {
	width := TerminalWidth()
	if width > 100 {
		width = 100
	}
	out := components.NewMarkdownRenderer().Render(answer, width)
	fmt.Print(strings.TrimLeft(out, "\n"))
}

func printSources(sources []api.Source) {
	fmt.Println()
	fmt.Println("Sources:")
	for _, s := range sources {
		switch {
		case s.Title != "" && s.URL != "":
			fmt.Printf("  - %s (%s)\n", s.Title, s.URL)
		case s.Title != "":
			fmt.Printf("  - %s\n", s.Title)
		default:
			fmt.Printf("  - %s\n", s.URL)
		}
	}
}

func printAskJSON(question, answer string, sources []api.Source, stage string, tokens int, elapsed time.Duration, err error) error {
	res := askResult{
		Question: question,
		Answer:   answer,
		Sources:  sources,
		Stage:    stage,
		Tokens:   tokens,
		Duration: elapsed.Round(time.Millisecond).String(),
	}
	if err != nil {
		res.Error = err.Error()
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(res); encErr != nil {
		return encErr
	}
	return err
}

// newClient builds an api client from global config plus CLI overrides.
func newClient(args Args) *api.Client {
	cfg := config.Global().ClientConfig()
	if args.BaseURL != "" {
		cfg.BaseURL = args.BaseURL
	}
	return api.NewClientWithConfig(cfg)
}
