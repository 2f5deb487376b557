// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "testing"

func TestNewThemeConfiguresStyles(t *testing.T) {
	th := NewTheme()

	// Spot-check that key styles carry their semantic colors.
	if th.RetryNotice.GetForeground() != Amber {
		t.Error("RetryNotice should use Amber")
	}
	if th.HealthOK.GetForeground() != Emerald {
		t.Error("HealthOK should use Emerald")
	}
	if th.ErrorTitle.GetForeground() != Rose {
		t.Error("ErrorTitle should use Rose")
	}
	if !th.TabActive.GetBold() {
		t.Error("TabActive should be bold")
	}
}

func TestSetSize(t *testing.T) {
	th := NewTheme()
	th.SetSize(120, 40)
	if th.Width != 120 || th.Height != 40 {
		t.Errorf("SetSize not applied: %dx%d", th.Width, th.Height)
	}
}
