// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"

	"github.com/jeranaias/kgraph-tui/internal/session"
	"github.com/jeranaias/kgraph-tui/internal/ui/styles"
)

func TestHealthStrings(t *testing.T) {
	if HealthOK.String() != "online" || HealthDown.String() != "offline" || HealthUnknown.String() != "unknown" {
		t.Error("unexpected health display strings")
	}
	if HealthOK.Icon() != "[OK]" {
		t.Errorf("HealthOK icon = %q", HealthOK.Icon())
	}
}

func TestStatusBarShowsRetryNotice(t *testing.T) {
	sb := NewStatusBar(styles.NewTheme())
	sb.SetWidth(200)
	sb.Health = HealthOK
	sb.SessionID = "0123456789abcdef"
	sb.RetryNotice = "Backend is waking up from a cold start..."

	out := sb.View()
	if !strings.Contains(out, "waking up") {
		t.Errorf("status bar missing retry notice: %q", out)
	}
	if !strings.Contains(out, "01234567") {
		t.Error("status bar should show the abbreviated session id")
	}
	if strings.Contains(out, "0123456789abcdef") {
		t.Error("status bar should not show the full session id")
	}
}

func TestStatusBarSyncSession(t *testing.T) {
	mgr := session.NewManager()
	mgr.RecordQuestion()
	mgr.SetStreamState(session.StreamProbing)
	mgr.SetRetryNotice("Still warming up, hang tight...")

	sb := NewStatusBar(styles.NewTheme())
	sb.SyncSession(mgr)

	if sb.Questions != 1 {
		t.Errorf("Questions = %d", sb.Questions)
	}
	if sb.StreamState != session.StreamProbing {
		t.Errorf("StreamState = %v", sb.StreamState)
	}
	if sb.RetryNotice == "" {
		t.Error("RetryNotice not synced")
	}
}

func TestMarkdownRendererFallsBackToPlain(t *testing.T) {
	r := NewMarkdownRenderer()
	out := r.Render("plain **bold** text", 60)
	if out == "" {
		t.Error("render produced nothing")
	}
}

func TestShortID(t *testing.T) {
	if shortID("abc") != "abc" {
		t.Error("short ids pass through")
	}
	if shortID("0123456789") != "01234567" {
		t.Error("long ids are abbreviated to 8 chars")
	}
}
