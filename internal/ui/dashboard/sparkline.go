// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dashboard

import "strings"

// =============================================================================
// SPARKLINE
// =============================================================================

// sparkLevels are the bar glyphs from lowest to highest. ASCII only so
// the chart survives terminals without good Unicode block coverage.
var sparkLevels = []byte("_.-=+*#@")

// Sparkline renders values as a one-line chart at most width chars
// wide. When the series is longer than width, the tail wins: the most
// recent samples are what a trend reader cares about.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	var b strings.Builder
	span := hi - lo
	for _, v := range values {
		idx := 0
		if span > 0 {
			idx = int((v - lo) / span * float64(len(sparkLevels)-1))
		}
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkLevels) {
			idx = len(sparkLevels) - 1
		}
		b.WriteByte(sparkLevels[idx])
	}
	return b.String()
}
