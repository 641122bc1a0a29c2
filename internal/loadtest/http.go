package loadtest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPClient wraps http.Client with the service base URL.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// newHTTPClient creates a new HTTP client with timeout.
func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// StatusError reports an unexpected HTTP status.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Body)
}

// do sends a request and decodes a JSON answer into out when the status is one of ok.
func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any, ok ...int) (int, error) {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	if !contains(ok, resp.StatusCode) {
		return resp.StatusCode, &StatusError{Status: resp.StatusCode, Body: string(bytes.TrimSpace(data))}
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func (c *HTTPClient) health(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/healthz", nil, nil, http.StatusOK)
	return err
}

func (c *HTTPClient) rate(ctx context.Context, req RateRequest) (RateResponse, error) {
	var resp RateResponse
	_, err := c.do(ctx, http.MethodPost, "/trueskill", req, &resp, http.StatusOK)
	return resp, err
}

func (c *HTTPClient) submit(ctx context.Context, m Match) (ackResponse, error) {
	var ack ackResponse
	_, err := c.do(ctx, http.MethodPost, "/matches", m, &ack, http.StatusAccepted, http.StatusOK)
	return ack, err
}

func (c *HTTPClient) stats(ctx context.Context) (map[string]any, error) {
	var stats map[string]any
	_, err := c.do(ctx, http.MethodGet, "/stats", nil, &stats, http.StatusOK)
	return stats, err
}

func (c *HTTPClient) leaderboard(ctx context.Context, n int) ([]Entry, error) {
	var entries []Entry
	_, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/leaderboard?limit=%d", n), nil, &entries, http.StatusOK)
	return entries, err
}

func (c *HTTPClient) player(ctx context.Context, id string) (Entry, error) {
	var e Entry
	_, err := c.do(ctx, http.MethodGet, "/players/"+id, nil, &e, http.StatusOK)
	return e, err
}

func contains(codes []int, code int) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}
