// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import "time"

// displayLayout is the human-readable timestamp shown in transcripts
// and dashboard tables.
const displayLayout = "2006-01-02 15:04"

// FormatTimestamp converts an RFC 3339 timestamp (or a bare
// "2006-01-02" date) to display form. The function is idempotent:
// feeding its own output back returns it unchanged, and an
// unrecognized value passes through untouched rather than becoming an
// error string.
func FormatTimestamp(s string) string {
	if s == "" {
		return ""
	}
	if _, err := time.Parse(displayLayout, s); err == nil {
		return s
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Format(displayLayout)
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.Format("2006-01-02") + " 00:00"
	}
	return s
}

// FormatTime renders a wall-clock time in display form.
func FormatTime(t time.Time) string {
	return t.Format(displayLayout)
}

// FormatDuration renders a duration compactly for the status bar
// (e.g. "1.5s", "2m10s").
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	if d < time.Minute {
		return d.Round(100 * time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}
