// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// main.go - Entry point and application shell for kgraph.
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/kgraph-tui/internal/api"
	"github.com/jeranaias/kgraph-tui/internal/cache"
	"github.com/jeranaias/kgraph-tui/internal/cli"
	"github.com/jeranaias/kgraph-tui/internal/config"
	"github.com/jeranaias/kgraph-tui/internal/session"
	"github.com/jeranaias/kgraph-tui/internal/ui/chat"
	"github.com/jeranaias/kgraph-tui/internal/ui/dashboard"
	"github.com/jeranaias/kgraph-tui/internal/ui/styles"
)

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdAsk:
		exitOn(cli.HandleAsk(args))
	case cli.CmdChat:
		exitOn(cli.HandleChat(args))
	case cli.CmdStatus:
		exitOn(cli.HandleStatus(args))
	case cli.CmdConfig:
		exitOn(cli.HandleConfig(args))
	case cli.CmdVersion:
		cli.PrintVersion()
	case cli.CmdHelp:
		cli.PrintUsage()
	case cli.CmdDashboard:
		runTUI(args, viewDashboard)
	default:
		runTUI(args, viewChat)
	}
}

func exitOn(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// TUI BOOTSTRAP
// =============================================================================

// runTUI starts the full-screen interface on the given view.
func runTUI(args cli.Args, view viewID) {
	cfg := config.Global()

	mgr := session.NewManager()
	client := newSessionClient(args, mgr)

	var store *cache.Cache
	if cfg.Cache.Enabled && !args.NoCache {
		if path, err := cfg.CachePath(); err == nil {
			if c, err := cache.Open(path, cfg.CacheTTL()); err == nil {
				store = c
				defer store.Close()
			} else if args.Verbose {
				fmt.Fprintf(os.Stderr, "kgraph: cache disabled: %v\n", err)
			}
		}
	}

	// Live config reload keeps long-running TUI sessions in sync with
	// `kgraph config set` from another terminal.
	if tomlPath, err := config.ConfigPathTOML(); err == nil {
		if w, err := config.NewWatcher(tomlPath, nil); err == nil {
			if w.Watch() == nil {
				defer w.Close()
			} else {
				w.Close()
			}
		}
	}

	theme := styles.NewTheme()

	m := appModel{
		active:        view,
		theme:         theme,
		chat:          chat.New(theme, client, mgr),
		dashboard:     dashboard.New(theme, client, store),
		dashboardInit: view == viewDashboard,
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running kgraph: %v\n", err)
		os.Exit(1)
	}
}

// newSessionClient builds the api client for a TUI session. The client
// carries the manager's session id so the id in the status bar is the
// one every X-Session-ID header ships.
func newSessionClient(args cli.Args, mgr *session.Manager) *api.Client {
	clientCfg := config.Global().ClientConfig()
	clientCfg.SessionID = mgr.SessionID()
	if args.BaseURL != "" {
		clientCfg.BaseURL = args.BaseURL
	}
	return api.NewClientWithConfig(clientCfg)
}

// =============================================================================
// APPLICATION SHELL
// =============================================================================

// viewID identifies the active top-level view.
type viewID int

const (
	viewChat viewID = iota
	viewDashboard
)

// appModel hosts the chat and dashboard views and routes view-switch
// messages between them.
type appModel struct {
	active viewID
	theme  *styles.Theme
	width  int
	height int

	chat          chat.Model
	dashboard     dashboard.Model
	dashboardInit bool
}

func (m appModel) Init() tea.Cmd {
	if m.active == viewDashboard {
		return tea.Batch(m.chat.Init(), m.dashboard.Init())
	}
	return m.chat.Init()
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.theme.SetSize(msg.Width, msg.Height)
		var chatCmd, dashCmd tea.Cmd
		m.chat, chatCmd = m.chat.Update(msg)
		m.dashboard, dashCmd = m.dashboard.Update(msg)
		return m, tea.Batch(chatCmd, dashCmd)

	case chat.SwitchViewMsg:
		if msg.View == "dashboard" {
			m.active = viewDashboard
			if !m.dashboardInit {
				m.dashboardInit = true
				return m, m.dashboard.Init()
			}
		}
		return m, nil

	case dashboard.BackMsg:
		m.active = viewChat
		return m, nil
	}

	// Keys go to the view on screen. Everything else, stream events,
	// fetch results, ticks, goes to both views so a background stream
	// keeps flowing while the user browses the dashboard.
	if _, isKey := msg.(tea.KeyMsg); isKey {
		var cmd tea.Cmd
		if m.active == viewDashboard {
			m.dashboard, cmd = m.dashboard.Update(msg)
		} else {
			m.chat, cmd = m.chat.Update(msg)
		}
		return m, cmd
	}

	var chatCmd, dashCmd tea.Cmd
	m.chat, chatCmd = m.chat.Update(msg)
	m.dashboard, dashCmd = m.dashboard.Update(msg)
	return m, tea.Batch(chatCmd, dashCmd)
}

func (m appModel) View() string {
	if m.active == viewDashboard {
		return m.dashboard.View()
	}
	return m.chat.View()
}
