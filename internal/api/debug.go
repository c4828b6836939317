package api

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/roeintheglasses/heimdall/internal/config"
)

type envInfo struct {
	WebhookSecret bool      `json:"WEBHOOK_SECRET"`
	GoServiceURL  string    `json:"GO_SERVICE_URL"`
	AppEnv        string    `json:"APP_ENV"`
	Version       string    `json:"version"`
	RedisEnabled  bool      `json:"redis_enabled"`
	Timestamp     time.Time `json:"timestamp"`
}

// DebugEnvHandler reports which settings are present without exposing
// secret values. It answers 404 when no debug key is configured.
func DebugEnvHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.DebugKey == "" {
			http.NotFound(w, r)
			return
		}

		key := r.URL.Query().Get("key")
		if subtle.ConstantTimeCompare([]byte(key), []byte(cfg.DebugKey)) != 1 {
			respondText(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		downstream := cfg.DownstreamURL
		if downstream == "" {
			downstream = "NOT_SET"
		}

		respondJSON(w, http.StatusOK, envInfo{
			WebhookSecret: cfg.WebhookSecret != "",
			GoServiceURL:  downstream,
			AppEnv:        cfg.AppEnv,
			Version:       cfg.Version,
			RedisEnabled:  cfg.RedisURL != "",
			Timestamp:     time.Now().UTC(),
		})
	}
}

// RailwayDebugHandler logs whatever Railway posts so new webhook formats
// can be inspected before the downstream backend learns them.
type RailwayDebugHandler struct {
	logger *slog.Logger
}

func NewRailwayDebugHandler(logger *slog.Logger) *RailwayDebugHandler {
	return &RailwayDebugHandler{logger: logger}
}

func (h *RailwayDebugHandler) Status(w http.ResponseWriter, r *http.Request) {
	respondText(w, http.StatusOK, "Railway debug webhook endpoint is active")
}

func (h *RailwayDebugHandler) Receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		h.logger.Error("railway debug read failed", "error", err)
		respondText(w, http.StatusInternalServerError, "Error processing Railway debug webhook")
		return
	}

	if len(body) > 0 && !json.Valid(body) {
		h.logger.Error("railway debug payload is not JSON", "body_length", len(body))
		respondText(w, http.StatusInternalServerError, "Error processing Railway debug webhook")
		return
	}

	headers := make(map[string]string, len(r.Header))
	for k := range r.Header {
		headers[k] = r.Header.Get(k)
	}

	h.logger.Info("railway debug webhook",
		"headers", headers,
		"body_length", len(body),
		"body", string(body),
	)
	respondText(w, http.StatusOK, "Railway debug webhook received successfully")
}
