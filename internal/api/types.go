// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

// =============================================================================
// REST RESPONSE TYPES
// =============================================================================

// HealthStatus is the GET /health response.
type HealthStatus struct {
	Status      string `json:"status"`
	EntityCount int    `json:"entity_count"`
	GraphReady  bool   `json:"graph_ready"`
	Version     string `json:"version,omitempty"`
}

// Entity is one node of the knowledge graph.
type Entity struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Mentions    int      `json:"mentions"`
	Connections []string `json:"connections,omitempty"`
}

// EntityDetail is a single entity plus its graph neighborhood.
type EntityDetail struct {
	Entity
	Related []Entity `json:"related,omitempty"`
	Sources []Source `json:"sources,omitempty"`
}

// Holding is one position in the portfolio view.
type Holding struct {
	Symbol string  `json:"symbol"`
	Name   string  `json:"name"`
	Sector string  `json:"sector,omitempty"`
	Weight float64 `json:"weight"`
	Change float64 `json:"change"`
}

// Portfolio is the GET /api/portfolio response.
type Portfolio struct {
	AsOf     string    `json:"as_of"`
	Holdings []Holding `json:"holdings"`
}

// TrendPoint is one sample of a trend series.
type TrendPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// Trend is one named time series from GET /api/trends.
type Trend struct {
	Name   string       `json:"name"`
	Unit   string       `json:"unit,omitempty"`
	Points []TrendPoint `json:"points"`
}
