package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/roeintheglasses/heimdall/internal/config"
	"github.com/roeintheglasses/heimdall/internal/domain"
)

type stubStats struct {
	stats *domain.Stats
	err   error
}

func (s stubStats) Get(context.Context) (*domain.Stats, error) {
	return s.stats, s.err
}

func TestBadgeHandler(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	stats := &domain.Stats{
		TotalEvents: 42,
		Last24Hours: 3,
		Streak:      &domain.Streak{CurrentStreak: 5, LastActiveDate: "2026-03-09"},
	}

	tests := []struct {
		name  string
		query string
		src   stubStats
		want  []string
	}{
		{"total", "?type=total", stubStats{stats: stats}, []string{"Total", "42 events"}},
		{"today", "?type=today", stubStats{stats: stats}, []string{"Today", "3 deploys"}},
		{"streak", "?type=streak", stubStats{stats: stats}, []string{"Streak", "5 days"}},
		{"default is last", "", stubStats{stats: stats}, []string{"Last shipped"}},
		{"unavailable", "?type=total", stubStats{err: errors.New("down")}, []string{"Heimdall", "N/A"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewBadgeHandler(tt.src, testLogger())
			h.now = func() time.Time { return now }

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/badge"+tt.query, nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
				t.Errorf("Content-Type = %q", ct)
			}
			if cc := rec.Header().Get("Cache-Control"); cc != "public, max-age=300, s-maxage=300" {
				t.Errorf("Cache-Control = %q", cc)
			}
			body := rec.Body.String()
			for _, w := range tt.want {
				if !strings.Contains(body, w) {
					t.Errorf("badge missing %q", w)
				}
			}
		})
	}
}

func TestDebugEnvHandler(t *testing.T) {
	cfg := &config.Config{
		AppEnv:        "production",
		Version:       "test",
		WebhookSecret: "super-secret",
		DownstreamURL: "https://backend.example",
		DebugKey:      "k",
	}
	h := DebugEnvHandler(cfg)

	for _, key := range []string{"", "wrong"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/debug/env?key="+key, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("key %q: status = %d, want 401", key, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/debug/env?key=k", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "super-secret") {
		t.Error("response leaks the webhook secret")
	}

	var info envInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !info.WebhookSecret {
		t.Error("WEBHOOK_SECRET should report true")
	}
	if info.GoServiceURL != "https://backend.example" {
		t.Errorf("GO_SERVICE_URL = %q", info.GoServiceURL)
	}
}

func TestDebugEnvHandler_DisabledWithoutKey(t *testing.T) {
	h := DebugEnvHandler(&config.Config{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/debug/env?key=", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestRailwayDebug(t *testing.T) {
	down := newFakeDownstream(t, http.StatusOK)
	h, _ := newTestRouter(t, "", down, nil)

	tests := []struct {
		method string
		body   string
		want   int
	}{
		{http.MethodGet, "", http.StatusOK},
		{http.MethodPost, `{"type":"DEPLOY"}`, http.StatusOK},
		{http.MethodPost, `{broken`, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(tt.method, "/api/railway-debug", strings.NewReader(tt.body)))
		if rec.Code != tt.want {
			t.Errorf("%s %q: status = %d, want %d", tt.method, tt.body, rec.Code, tt.want)
		}
	}
}

func TestHealthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthHandler("1.2.3", nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "healthy" || resp.Service != "heimdall-relay" || resp.Version != "1.2.3" {
		t.Errorf("unexpected health response: %+v", resp)
	}
}

func TestHealthHandler_FailingCheck(t *testing.T) {
	checks := map[string]HealthCheck{
		"redis": func(context.Context) error { return errors.New("connection refused") },
	}

	rec := httptest.NewRecorder()
	HealthHandler("1.2.3", checks).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}
