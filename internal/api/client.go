// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultBaseURL is the local development backend.
	DefaultBaseURL = "http://127.0.0.1:8080"

	// DefaultAttemptTimeout bounds a single request attempt. It is
	// deliberately long: a serverless cold start can take most of it.
	// Backoff delays between attempts are separate.
	DefaultAttemptTimeout = 45 * time.Second

	// DefaultRequestsPerSecond limits dashboard REST traffic so a
	// refresh loop cannot pile requests onto a cold backend.
	DefaultRequestsPerSecond = 4

	// MaxResponseSize caps how much of a REST response body is read.
	MaxResponseSize = 10 * 1024 * 1024
)

const (
	healthPath    = "/health"
	streamPath    = "/api/chat/stream"
	entitiesPath  = "/api/graph/entities"
	portfolioPath = "/api/portfolio"
	trendsPath    = "/api/trends"
)

// =============================================================================
// SHARED TRANSPORTS
// =============================================================================

// PERFORMANCE: shared pooled transports; a per-call http.Client would
// re-dial and re-handshake TLS on every dashboard refresh.
var (
	sharedHTTPClient = &http.Client{
		Timeout: DefaultAttemptTimeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	// No client timeout: an answer stream is open-ended and governed
	// by its context instead.
	sharedStreamClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     90 * time.Second,
		},
	}
)

// =============================================================================
// CLIENT
// =============================================================================

// ClientConfig holds client construction options. Zero fields take
// defaults.
type ClientConfig struct {
	BaseURL           string
	AttemptTimeout    time.Duration
	Retry             RetryConfig
	RequestsPerSecond float64
	SessionID         string
}

// Client talks to the kgraph backend. Safe for concurrent use; at most
// one answer stream is active per client at any time.
type Client struct {
	baseURL      string
	sessionID    string
	retry        RetryConfig
	httpClient   *http.Client
	streamClient *http.Client
	limiter      *rate.Limiter

	mu     sync.Mutex
	active *streamHandle
}

// NewClient returns a client for the default local backend.
func NewClient() *Client {
	return NewClientWithConfig(ClientConfig{})
}

// NewClientWithConfig returns a client with explicit options.
func NewClientWithConfig(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.SessionID == "" {
		cfg.SessionID = uuid.NewString()
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}

	httpClient := sharedHTTPClient
	if cfg.AttemptTimeout > 0 && cfg.AttemptTimeout != DefaultAttemptTimeout {
		httpClient = &http.Client{
			Timeout:   cfg.AttemptTimeout,
			Transport: sharedHTTPClient.Transport,
		}
	}

	return &Client{
		baseURL:      cfg.BaseURL,
		sessionID:    cfg.SessionID,
		retry:        cfg.Retry.normalized(),
		httpClient:   httpClient,
		streamClient: sharedStreamClient,
		limiter:      rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
	}
}

// SessionID returns the identifier sent with every request.
func (c *Client) SessionID() string {
	return c.sessionID
}

// BaseURL returns the backend address this client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", "kgraph/0.1.0")
	req.Header.Set("X-Session-ID", c.sessionID)
	if req.Method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}
}

// =============================================================================
// REST ENDPOINTS
// =============================================================================

// getJSON fetches path through the retry wrapper and decodes the
// response into v.
func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	resp, err := c.doWithRetry(ctx, http.MethodGet, c.baseURL+path, nil, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}
	body := io.LimitReader(resp.Body, MaxResponseSize)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return &ClientError{
			Type:    ErrTypeInvalidResponse,
			Message: fmt.Sprintf("decoding %s response", path),
			Cause:   err,
		}
	}
	return nil
}

// Health checks the backend and returns its reported status. Goes
// through the retry wrapper, so a cold backend gets time to warm.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var hs HealthStatus
	if err := c.getJSON(ctx, healthPath, &hs); err != nil {
		return nil, err
	}
	return &hs, nil
}

// Entities lists the knowledge-graph entities.
func (c *Client) Entities(ctx context.Context) ([]Entity, error) {
	var out []Entity
	if err := c.getJSON(ctx, entitiesPath, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Entity fetches one entity with its neighborhood.
func (c *Client) Entity(ctx context.Context, name string) (*EntityDetail, error) {
	var out EntityDetail
	if err := c.getJSON(ctx, entitiesPath+"/"+url.PathEscape(name), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Portfolio fetches the portfolio snapshot.
func (c *Client) Portfolio(ctx context.Context) (*Portfolio, error) {
	var out Portfolio
	if err := c.getJSON(ctx, portfolioPath, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Trends fetches the trend series.
func (c *Client) Trends(ctx context.Context) ([]Trend, error) {
	var out []Trend
	if err := c.getJSON(ctx, trendsPath, &out); err != nil {
		return nil, err
	}
	return out, nil
}
