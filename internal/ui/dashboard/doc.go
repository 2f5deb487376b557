// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package dashboard implements the tabbed data view of the kgraph TUI.

Three tabs render REST data from the backend: graph entities, portfolio
holdings, and trend series with ASCII sparklines. Fetches go through
the SQLite response cache, so switching tabs inside the TTL window does
not hit the network, and a manual refresh invalidates the cached entry
first.
*/
package dashboard
