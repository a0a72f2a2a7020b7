package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Client provides HTTP client functionality to communicate with a
// twickell serve daemon
type Client struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// Config holds client configuration
type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  *slog.Logger // Optional logger for client operations
}

// DefaultConfig returns default client configuration
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://127.0.0.1:9615/api",
		Timeout: 10 * time.Second,
	}
}

// New creates a new twickell API client
func New(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = "http://127.0.0.1:9615/api"
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Client{
		baseURL: config.BaseURL,
		logger:  config.Logger,
		client:  &http.Client{Timeout: config.Timeout},
	}
}

// IsReachable checks if the daemon is running and reachable
func (c *Client) IsReachable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("daemon unreachable", "error", err)
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}

// StatusAll returns the status of every configured service
func (c *Client) StatusAll(ctx context.Context) ([]ServiceStatus, error) {
	var out []ServiceStatus
	if err := c.getJSON(ctx, c.baseURL+"/status", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Status returns the status of one service by name
func (c *Client) Status(ctx context.Context, name string) (ServiceStatus, error) {
	var out ServiceStatus
	err := c.getJSON(ctx, c.baseURL+"/status?name="+url.QueryEscape(name), &out)
	return out, err
}

// Start asks the daemon to start the named service. The returned result
// is STARTED, ALREADY_RUNNING, or NOT_RUNNING.
func (c *Client) Start(ctx context.Context, name string) (ActionResult, error) {
	return c.action(ctx, "start", name)
}

// Stop asks the daemon to stop the named service
func (c *Client) Stop(ctx context.Context, name string) (ActionResult, error) {
	return c.action(ctx, "stop", name)
}

// Restart asks the daemon to stop then start the named service
func (c *Client) Restart(ctx context.Context, name string) (ActionResult, error) {
	return c.action(ctx, "restart", name)
}

func (c *Client) action(ctx context.Context, verb, name string) (ActionResult, error) {
	c.logger.Debug("service action", "verb", verb, "name", name)
	target := fmt.Sprintf("%s/%s?name=%s", c.baseURL, verb, url.QueryEscape(name))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, nil)
	if err != nil {
		return ActionResult{}, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return ActionResult{}, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if err := checkStatus(resp); err != nil {
		return ActionResult{}, err
	}
	var out ActionResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return ActionResult{}, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, target string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if err := checkStatus(resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	var errResp ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil || errResp.Error == "" {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return fmt.Errorf("API error: %s", errResp.Error)
}
