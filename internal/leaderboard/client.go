package leaderboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

const defaultPushTimeout = 5 * time.Second

// Client talks to the shared leaderboard service over HTTP.
type Client struct {
	baseURL string
	client  *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a leaderboard client for the service at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		client:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Push sends a profile's aggregate to the ranking service. The leaderboard
// is a nice-to-have view, not a correctness dependency of the local record,
// so every failure is logged and swallowed. Push satisfies progress.Syncer.
func (c *Client) Push(ctx context.Context, username string, points, lessonsCompleted int) {
	ctx, cancel := context.WithTimeout(ctx, defaultPushTimeout)
	defer cancel()

	body, err := json.Marshal(Summary{
		Username:         username,
		Points:           points,
		LessonsCompleted: lessonsCompleted,
	})
	if err != nil {
		slog.Warn("leaderboard push skipped", "error", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/leaderboard", bytes.NewReader(body))
	if err != nil {
		slog.Warn("leaderboard push skipped", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		slog.Warn("leaderboard push failed", "error", err)
		return
	}
	defer func() { _ = resp.Body.Close() }()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		slog.Warn("leaderboard push rejected", "status", resp.StatusCode)
	}
}

// FetchTop returns the current top-n ranking, points descending.
func (c *Client) FetchTop(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		n = DefaultTopN
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/leaderboard?n="+strconv.Itoa(n), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("leaderboard api error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var entries []Entry
	if err := json.Unmarshal(respBody, &entries); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return entries, nil
}
