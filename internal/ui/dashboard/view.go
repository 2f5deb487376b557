// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/kgraph-tui/internal/api"
	"github.com/jeranaias/kgraph-tui/internal/util"
)

// =============================================================================
// DASHBOARD VIEW
// =============================================================================

// View renders the dashboard layout.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	if m.errs[m.active] != "" {
		b.WriteString(m.renderError(m.errs[m.active]))
	} else if m.loading[m.active] {
		b.WriteString(m.spinner.View())
	} else {
		b.WriteString(m.renderActive())
	}

	b.WriteString("\n\n")
	b.WriteString(m.renderHints())
	return b.String()
}

func (m Model) renderTabs() string {
	parts := make([]string, 0, tabCount)
	for t := Tab(0); t < tabCount; t++ {
		style := m.theme.TabInactive
		if t == m.active {
			style = m.theme.TabActive
		}
		parts = append(parts, style.Render(" "+t.String()+" "))
	}
	return lipgloss.JoinHorizontal(lipgloss.Bottom, parts...)
}

func (m Model) renderActive() string {
	switch m.active {
	case TabEntities:
		return m.renderEntities()
	case TabPortfolio:
		return m.renderPortfolio()
	default:
		return m.renderTrends()
	}
}

// =============================================================================
// ENTITIES TAB
// =============================================================================

func (m Model) renderEntities() string {
	if len(m.entities) == 0 {
		return m.theme.TableRow.Render("No entities in the graph yet.")
	}

	nameW, typeW := 28, 14
	header := fmt.Sprintf("%-*s %-*s %8s  %s", nameW, "NAME", typeW, "TYPE", "MENTIONS", "DESCRIPTION")
	lines := []string{m.theme.TableHeader.Render(header)}

	for i, e := range m.visibleRows(len(m.entities)) {
		ent := m.entities[e]
		descW := m.width - nameW - typeW - 14
		row := fmt.Sprintf("%-*s %-*s %8d  %s",
			nameW, util.TruncateWidth(ent.Name, nameW),
			typeW, util.TruncateWidth(ent.Type, typeW),
			ent.Mentions,
			util.TruncateWidth(ent.Description, descW),
		)
		lines = append(lines, m.rowStyle(i).Render(row))
	}
	return strings.Join(lines, "\n")
}

// =============================================================================
// PORTFOLIO TAB
// =============================================================================

func (m Model) renderPortfolio() string {
	if m.portfolio == nil || len(m.portfolio.Holdings) == 0 {
		return m.theme.TableRow.Render("No portfolio data.")
	}

	lines := []string{
		m.theme.HeaderMeta.Render("as of " + util.FormatTimestamp(m.portfolio.AsOf)),
		m.theme.TableHeader.Render(fmt.Sprintf("%-8s %-24s %-14s %8s %9s", "SYMBOL", "NAME", "SECTOR", "WEIGHT", "CHANGE")),
	}

	for i, h := range m.visibleRows(len(m.portfolio.Holdings)) {
		pos := m.portfolio.Holdings[h]
		change := fmt.Sprintf("%+8.2f%%", pos.Change)
		changeStyle := m.theme.ValueDown
		if pos.Change >= 0 {
			changeStyle = m.theme.ValueUp
		}
		row := fmt.Sprintf("%-8s %-24s %-14s %7.1f%% ",
			pos.Symbol,
			util.TruncateWidth(pos.Name, 24),
			util.TruncateWidth(pos.Sector, 14),
			pos.Weight*100,
		)
		lines = append(lines, m.rowStyle(i).Render(row)+changeStyle.Render(change))
	}
	return strings.Join(lines, "\n")
}

// =============================================================================
// TRENDS TAB
// =============================================================================

func (m Model) renderTrends() string {
	if len(m.trends) == 0 {
		return m.theme.TableRow.Render("No trend data.")
	}

	sparkW := m.width - 36
	if sparkW < 10 {
		sparkW = 10
	}

	lines := make([]string, 0, len(m.trends)*2)
	for i, tr := range m.visibleRows(len(m.trends)) {
		trend := m.trends[tr]
		label := util.PadRight(util.TruncateWidth(trend.Name, 24), 24)
		lines = append(lines,
			m.rowStyle(i).Render(label)+" "+m.theme.Sparkline.Render(Sparkline(trendValues(trend), sparkW)),
			m.theme.HeaderMeta.Render(strings.Repeat(" ", 25)+trendSummary(trend)),
		)
	}
	return strings.Join(lines, "\n")
}

// trendValues extracts the series values in order.
func trendValues(t api.Trend) []float64 {
	vals := make([]float64, len(t.Points))
	for i, p := range t.Points {
		vals[i] = p.Value
	}
	return vals
}

// trendSummary is the "latest / delta" line under a sparkline.
func trendSummary(t api.Trend) string {
	if len(t.Points) == 0 {
		return "no samples"
	}
	last := t.Points[len(t.Points)-1]
	out := fmt.Sprintf("%.2f%s on %s", last.Value, unitSuffix(t.Unit), last.Date)
	if len(t.Points) > 1 {
		delta := last.Value - t.Points[len(t.Points)-2].Value
		out += fmt.Sprintf(" (%+.2f)", delta)
	}
	return out
}

func unitSuffix(unit string) string {
	if unit == "" {
		return ""
	}
	return " " + unit
}

// =============================================================================
// SHARED RENDER HELPERS
// =============================================================================

// visibleRows returns the indexes of rows on screen after scrolling.
func (m Model) visibleRows(total int) []int {
	rows := m.height - 8
	if rows < 5 {
		rows = 5
	}
	start := m.scroll
	if start > total-1 {
		start = total - 1
	}
	if start < 0 {
		start = 0
	}
	end := start + rows
	if end > total {
		end = total
	}
	out := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, i)
	}
	return out
}

func (m Model) rowStyle(i int) lipgloss.Style {
	if i%2 == 1 {
		return m.theme.TableRowAlt
	}
	return m.theme.TableRow
}

func (m Model) renderError(msg string) string {
	return m.theme.ErrorBox.Render(
		m.theme.ErrorTitle.Render("Load failed") + "\n" +
			m.theme.ErrorMessage.Render(msg) + "\n" +
			m.theme.ShortcutDesc.Render("press r to retry"),
	)
}

func (m Model) renderHints() string {
	hints := [][2]string{
		{"tab", "next pane"},
		{"r", "refresh"},
		{"j/k", "scroll"},
		{"esc", "chat"},
		{"q", "quit"},
	}
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, m.theme.ShortcutKey.Render(h[0])+" "+m.theme.ShortcutDesc.Render(h[1]))
	}
	return strings.Join(parts, "   ")
}
