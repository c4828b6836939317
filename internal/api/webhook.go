package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/roeintheglasses/heimdall/internal/metrics"
	"github.com/roeintheglasses/heimdall/internal/relay"
)

// maxWebhookBody bounds inbound payloads. GitHub caps deliveries at 25 MB
// but push and deployment payloads are far smaller.
const maxWebhookBody = 5 << 20

const (
	msgProcessed        = "Webhook processed successfully"
	msgMethodNotAllowed = "Method not allowed"
	msgInvalidSignature = "Invalid signature"
	msgUnknownEvent     = "Unknown event type"
	msgTooLarge         = "Payload too large"
	msgInternal         = "Internal server error"
)

// WebhookHandler is the HTTP face of the relay pipeline.
type WebhookHandler struct {
	relay   *relay.Relay
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewWebhookHandler(r *relay.Relay, m *metrics.Metrics, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{relay: r, metrics: m, logger: logger}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		respondText(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		h.observe("", metrics.OutcomeMethodNotAllowed, start)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondText(w, http.StatusRequestEntityTooLarge, msgTooLarge)
		} else {
			h.logger.Error("failed to read webhook body", "error", err, "request_id", middleware.GetReqID(r.Context()))
			respondText(w, http.StatusInternalServerError, msgInternal)
		}
		h.observe("", metrics.OutcomeReadError, start)
		return
	}

	eventType, err := h.relay.Process(r.Context(), r.Header, body)
	switch {
	case err == nil:
		respondText(w, http.StatusOK, msgProcessed)
		h.observe(string(eventType), metrics.OutcomeRelayed, start)

	case errors.Is(err, relay.ErrInvalidSignature):
		respondText(w, http.StatusUnauthorized, msgInvalidSignature)
		h.observe("", metrics.OutcomeInvalidSignature, start)

	case errors.Is(err, relay.ErrUnknownEventType):
		respondText(w, http.StatusBadRequest, msgUnknownEvent)
		h.observe("", metrics.OutcomeUnknownEvent, start)

	case errors.Is(err, relay.ErrMalformedPayload):
		respondText(w, http.StatusInternalServerError, msgInternal)
		h.observe("", metrics.OutcomeMalformed, start)

	default:
		h.logger.Error("webhook relay failed",
			"event_type", eventType,
			"error", err,
			"request_id", middleware.GetReqID(r.Context()),
		)
		respondText(w, http.StatusInternalServerError, msgInternal)
		h.observe(string(eventType), metrics.OutcomeDownstreamError, start)
	}
}

func (h *WebhookHandler) observe(eventType, outcome string, start time.Time) {
	if h.metrics != nil {
		h.metrics.ObserveRelay(eventType, outcome, time.Since(start))
	}
}
