// Package relay verifies, classifies and forwards inbound webhooks to the
// downstream event backend.
package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/roeintheglasses/heimdall/internal/domain"
)

// Sender delivers an envelope downstream. *Forwarder is the production
// implementation.
type Sender interface {
	Forward(ctx context.Context, env domain.Envelope) error
}

// Relay runs the verify -> parse -> classify -> forward pipeline for one
// inbound request. It holds no per-request state.
type Relay struct {
	verifier *Verifier
	sender   Sender
	logger   *slog.Logger
}

func New(verifier *Verifier, sender Sender, logger *slog.Logger) *Relay {
	return &Relay{verifier: verifier, sender: sender, logger: logger}
}

// Process relays a single webhook. The returned event type is set once
// classification succeeds, even if forwarding then fails.
func (r *Relay) Process(ctx context.Context, headers http.Header, body []byte) (domain.EventType, error) {
	if err := r.verifier.Verify(headers, body); err != nil {
		r.logger.Warn("webhook signature rejected",
			"github_event", headers.Get(HeaderGitHubEvent),
			"delivery_id", headers.Get(HeaderGitHubDelivery),
			"error", err,
		)
		return "", err
	}

	if !json.Valid(body) {
		r.logger.Error("webhook payload is not valid JSON", "bytes", len(body))
		return "", ErrMalformedPayload
	}

	eventType, err := Classify(headers)
	if err != nil {
		r.logger.Info("webhook ignored",
			"github_event", headers.Get(HeaderGitHubEvent),
			"delivery_id", headers.Get(HeaderGitHubDelivery),
		)
		return "", err
	}

	env := domain.Envelope{
		EventType: eventType,
		Event:     json.RawMessage(body),
	}
	if err := r.sender.Forward(ctx, env); err != nil {
		return eventType, err
	}
	return eventType, nil
}
