package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/roeintheglasses/heimdall/internal/domain"
)

// WebhookPath is the downstream route that accepts relayed envelopes.
const WebhookPath = "/api/webhook"

// Forwarder posts normalized envelopes to the downstream event backend.
// It makes exactly one attempt per envelope.
type Forwarder struct {
	httpClient *http.Client
	endpoint   string
	logger     *slog.Logger
}

// NewForwarder creates a forwarder targeting baseURL + WebhookPath.
func NewForwarder(baseURL string, timeout time.Duration, logger *slog.Logger) *Forwarder {
	return &Forwarder{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		endpoint: strings.TrimRight(baseURL, "/") + WebhookPath,
		logger:   logger,
	}
}

// Endpoint returns the full downstream URL envelopes are posted to.
func (f *Forwarder) Endpoint() string {
	return f.endpoint
}

// Forward sends the envelope downstream. Any non-2xx status or transport
// failure is returned as an error wrapping ErrDownstream.
func (f *Forwarder) Forward(ctx context.Context, env domain.Envelope) error {
	start := time.Now()

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshaling envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating downstream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if rid := middleware.GetReqID(ctx); rid != "" {
		req.Header.Set(middleware.RequestIDHeader, rid)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		f.logger.Error("downstream request failed",
			"event_type", env.EventType,
			"error", err,
			"response_time_ms", time.Since(start).Milliseconds(),
		)
		return fmt.Errorf("%w: %w", ErrDownstream, err)
	}
	defer resp.Body.Close()

	// Only a prefix of the body is kept, for the failure log.
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	elapsed := time.Since(start).Milliseconds()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		f.logger.Error("downstream rejected event",
			"event_type", env.EventType,
			"status_code", resp.StatusCode,
			"response_body", string(respBody),
			"response_time_ms", elapsed,
		)
		return &DownstreamError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	f.logger.Info("event relayed",
		"event_type", env.EventType,
		"status_code", resp.StatusCode,
		"response_time_ms", elapsed,
	)
	return nil
}
