// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dashboard

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/kgraph-tui/internal/api"
	"github.com/jeranaias/kgraph-tui/internal/cache"
	"github.com/jeranaias/kgraph-tui/internal/ui/components"
	"github.com/jeranaias/kgraph-tui/internal/ui/styles"
)

// =============================================================================
// DASHBOARD MODEL
// =============================================================================

// Tab identifies one dashboard pane.
type Tab int

const (
	TabEntities Tab = iota
	TabPortfolio
	TabTrends
)

// String returns the tab label.
func (t Tab) String() string {
	switch t {
	case TabEntities:
		return "Entities"
	case TabPortfolio:
		return "Portfolio"
	default:
		return "Trends"
	}
}

// tabCount keeps cycling arithmetic in one place.
const tabCount = 3

// Model is the Bubble Tea model for the dashboard view.
type Model struct {
	theme  *styles.Theme
	width  int
	height int

	client *api.Client
	store  *cache.Cache

	active Tab

	entities  []api.Entity
	portfolio *api.Portfolio
	trends    []api.Trend

	loading map[Tab]bool
	loaded  map[Tab]bool
	errs    map[Tab]string

	scroll  int
	spinner components.Spinner
}

// New creates the dashboard view. store may be nil; fetches then always
// go to the network.
func New(theme *styles.Theme, client *api.Client, store *cache.Cache) Model {
	return Model{
		theme:   theme,
		client:  client,
		store:   store,
		loading: make(map[Tab]bool),
		loaded:  make(map[Tab]bool),
		errs:    make(map[Tab]string),
		spinner: components.NewSpinner(theme),
	}
}

// Init loads the first tab.
func (m Model) Init() tea.Cmd {
	return m.loadTab(m.active, false)
}

// SetSize resizes the view layout.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// loadTab starts a fetch for tab unless one is already in flight or the
// data is present. force invalidates the cache entry first.
func (m *Model) loadTab(tab Tab, force bool) tea.Cmd {
	if m.loading[tab] {
		return nil
	}
	if m.loaded[tab] && !force {
		return nil
	}
	m.loading[tab] = true
	m.errs[tab] = ""

	var fetch tea.Cmd
	switch tab {
	case TabEntities:
		if force {
			invalidate(m.store, keyEntities)
		}
		fetch = fetchEntitiesCmd(m.client, m.store)
	case TabPortfolio:
		if force {
			invalidate(m.store, keyPortfolio)
		}
		fetch = fetchPortfolioCmd(m.client, m.store)
	case TabTrends:
		if force {
			invalidate(m.store, keyTrends)
		}
		fetch = fetchTrendsCmd(m.client, m.store)
	}

	m.spinner.SetMessage("Loading " + tab.String())
	return tea.Batch(m.spinner.Start(), fetch)
}

// Update handles messages for the dashboard view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case EntitiesMsg:
		m.settle(TabEntities, msg.Err)
		if msg.Err == nil {
			m.entities = msg.Entities
		}
		return m, nil

	case PortfolioMsg:
		m.settle(TabPortfolio, msg.Err)
		if msg.Err == nil {
			m.portfolio = msg.Portfolio
		}
		return m, nil

	case TrendsMsg:
		m.settle(TabTrends, msg.Err)
		if msg.Err == nil {
			m.trends = msg.Trends
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

// BackMsg asks the application shell to return to the chat view.
type BackMsg struct{}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "esc":
		return m, func() tea.Msg { return BackMsg{} }
	case "tab", "right", "l":
		m.active = (m.active + 1) % tabCount
		m.scroll = 0
		return m, m.loadTab(m.active, false)
	case "shift+tab", "left", "h":
		m.active = (m.active + tabCount - 1) % tabCount
		m.scroll = 0
		return m, m.loadTab(m.active, false)
	case "r":
		m.loaded[m.active] = false
		return m, m.loadTab(m.active, true)
	case "up", "k":
		if m.scroll > 0 {
			m.scroll--
		}
		return m, nil
	case "down", "j":
		m.scroll++
		return m, nil
	}
	return m, nil
}

// settle records the outcome of a fetch.
func (m *Model) settle(tab Tab, err error) {
	m.loading[tab] = false
	m.loaded[tab] = err == nil
	if err != nil {
		m.errs[tab] = err.Error()
	}
	if !m.anyLoading() {
		m.spinner.Stop()
	}
}

func (m *Model) anyLoading() bool {
	for _, v := range m.loading {
		if v {
			return true
		}
	}
	return false
}
