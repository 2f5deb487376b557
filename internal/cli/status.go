// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - Backend health check command.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jeranaias/kgraph-tui/internal/api"
	"github.com/jeranaias/kgraph-tui/internal/config"
)

// statusResult is the --json output shape.
type statusResult struct {
	BaseURL     string `json:"base_url"`
	Reachable   bool   `json:"reachable"`
	Status      string `json:"status,omitempty"`
	GraphReady  bool   `json:"graph_ready"`
	EntityCount int    `json:"entity_count"`
	Version     string `json:"version,omitempty"`
	Latency     string `json:"latency,omitempty"`
	Error       string `json:"error,omitempty"`
}

// HandleStatus runs the status command. The exit error is non-nil when
// the backend is unreachable so scripts can gate on it.
func HandleStatus(args Args) error {
	client := newClient(args)

	ctx, cancel := context.WithTimeout(context.Background(), 4*time.Minute)
	defer cancel()

	start := time.Now()
	health, err := client.Health(ctx)
	latency := time.Since(start)

	if args.JSON {
		return printStatusJSON(client.BaseURL(), health, latency, err)
	}

	fmt.Println("backend ", client.BaseURL())
	if err != nil {
		fmt.Println("health   unreachable")
		return err
	}

	fmt.Println("health  ", health.Status)
	fmt.Printf("graph    ready=%v entities=%d\n", health.GraphReady, health.EntityCount)
	if health.Version != "" {
		fmt.Println("version ", health.Version)
	}
	fmt.Println("latency ", latency.Round(time.Millisecond))
	if args.Verbose {
		fmt.Println("session ", client.SessionID())
		fmt.Println("config  ", configPathForDisplay())
	}
	return nil
}

func printStatusJSON(baseURL string, health *api.HealthStatus, latency time.Duration, err error) error {
	res := statusResult{
		BaseURL:   baseURL,
		Reachable: err == nil,
		Latency:   latency.Round(time.Millisecond).String(),
	}
	if health != nil {
		res.Status = health.Status
		res.GraphReady = health.GraphReady
		res.EntityCount = health.EntityCount
		res.Version = health.Version
	}
	if err != nil {
		res.Error = err.Error()
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(res); encErr != nil {
		return encErr
	}
	return err
}

func configPathForDisplay() string {
	path, err := config.ConfigPathTOML()
	if err != nil {
		return "(unknown)"
	}
	return path
}
