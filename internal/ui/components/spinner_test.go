// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/kgraph-tui/internal/ui/styles"
)

// =============================================================================
// SPINNER TESTS
// =============================================================================

func TestNewSpinnerInactive(t *testing.T) {
	s := NewSpinner(styles.NewTheme())

	if s.IsActive() {
		t.Error("new spinner should not be active")
	}
	if s.View() != "" {
		t.Error("inactive spinner should render nothing")
	}
}

func TestSpinnerStartStop(t *testing.T) {
	s := NewSpinner(styles.NewTheme())

	cmd := s.Start()
	if cmd == nil {
		t.Fatal("Start() should return the tick command")
	}
	if !s.IsActive() {
		t.Error("spinner should be active after Start")
	}

	s.Stop()
	if s.IsActive() {
		t.Error("spinner should be inactive after Stop")
	}
}

func TestSpinnerViewShowsMessage(t *testing.T) {
	s := NewSpinner(styles.NewTheme())
	s.SetMessage("Contacting backend")
	s.Start()

	out := s.View()
	if !strings.Contains(out, "Contacting backend") {
		t.Errorf("spinner view missing message: %q", out)
	}
}

func TestSpinnerElapsed(t *testing.T) {
	s := NewSpinner(styles.NewTheme())
	if s.Elapsed() != 0 {
		t.Error("elapsed before start should be zero")
	}

	s.Start()
	time.Sleep(5 * time.Millisecond)
	if s.Elapsed() <= 0 {
		t.Error("elapsed after start should grow")
	}
}
