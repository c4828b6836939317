// Package downstream reads from the event backend the relay forwards to.
package downstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/roeintheglasses/heimdall/internal/domain"
)

// Client is a read-only client for the downstream backend's stats and
// event listing endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Stats fetches GET /api/stats.
func (c *Client) Stats(ctx context.Context) (*domain.Stats, error) {
	var stats domain.Stats
	if err := c.getJSON(ctx, "/api/stats", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// eventsPage is the paginated listing the backend returns.
type eventsPage struct {
	Events []domain.DashboardEvent `json:"events"`
}

// Events fetches GET /api/events, newest first. The backend wraps the list
// as {"events":[...],"pagination":{...}}; a bare array is accepted too.
func (c *Client) Events(ctx context.Context) ([]domain.DashboardEvent, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, "/api/events", &raw); err != nil {
		return nil, err
	}

	events, err := decodeEvents(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding /api/events: %w", err)
	}
	if events == nil {
		events = []domain.DashboardEvent{}
	}
	return events, nil
}

func decodeEvents(raw json.RawMessage) ([]domain.DashboardEvent, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var events []domain.DashboardEvent
		if err := json.Unmarshal(trimmed, &events); err != nil {
			return nil, err
		}
		return events, nil
	}

	var page eventsPage
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return nil, err
	}
	return page.Events, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("requesting %s: unexpected status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}
