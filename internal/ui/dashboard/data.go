// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dashboard

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/kgraph-tui/internal/api"
	"github.com/jeranaias/kgraph-tui/internal/cache"
)

// =============================================================================
// DATA COMMANDS
// =============================================================================

// Cache keys, one per REST endpoint backing a tab.
const (
	keyEntities  = "dashboard/entities"
	keyPortfolio = "dashboard/portfolio"
	keyTrends    = "dashboard/trends"
)

// fetchTimeout bounds one dashboard load including retries inside the
// client.
const fetchTimeout = 3 * time.Minute

// EntitiesMsg carries the entities tab payload.
type EntitiesMsg struct {
	Entities []api.Entity
	Err      error
}

// PortfolioMsg carries the portfolio tab payload.
type PortfolioMsg struct {
	Portfolio *api.Portfolio
	Err       error
}

// TrendsMsg carries the trends tab payload.
type TrendsMsg struct {
	Trends []api.Trend
	Err    error
}

func fetchEntitiesCmd(client *api.Client, store *cache.Cache) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		ents, err := cache.GetOrFetch(ctx, store, keyEntities, func(ctx context.Context) ([]api.Entity, error) {
			return client.Entities(ctx)
		})
		return EntitiesMsg{Entities: ents, Err: err}
	}
}

func fetchPortfolioCmd(client *api.Client, store *cache.Cache) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		pf, err := cache.GetOrFetch(ctx, store, keyPortfolio, func(ctx context.Context) (*api.Portfolio, error) {
			return client.Portfolio(ctx)
		})
		return PortfolioMsg{Portfolio: pf, Err: err}
	}
}

func fetchTrendsCmd(client *api.Client, store *cache.Cache) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		trends, err := cache.GetOrFetch(ctx, store, keyTrends, func(ctx context.Context) ([]api.Trend, error) {
			return client.Trends(ctx)
		})
		return TrendsMsg{Trends: trends, Err: err}
	}
}

// invalidate drops the cached entry for a tab so the next fetch goes to
// the network. A nil cache is a no-op.
func invalidate(store *cache.Cache, key string) {
	if store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = store.Invalidate(ctx, key)
}
