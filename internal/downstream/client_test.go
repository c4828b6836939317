package downstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClient_Stats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/stats" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"total_events":120,"last_24_hours":4,"streak":{"current_streak":6,"last_active_date":"2026-10-18T09:00:00Z"},"by_category":{}}`))
	}))
	defer server.Close()

	c := NewClient(server.URL+"/", 5*time.Second)
	stats, err := c.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}

	if stats.TotalEvents != 120 || stats.Last24Hours != 4 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if stats.Streak == nil || stats.Streak.CurrentStreak != 6 {
		t.Fatalf("unexpected streak: %+v", stats.Streak)
	}
}

func TestClient_Events(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/events" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": "evt-2", "event_type": "github.push", "title": "Pushed 2 commits", "created_at": "2026-10-18T10:00:00Z"},
			{"id": "evt-1", "event_type": "vercel.deploy", "title": "Deployed", "created_at": "2026-10-18T09:00:00Z"},
		})
	}))
	defer server.Close()

	events, err := NewClient(server.URL, 5*time.Second).Events(context.Background())
	if err != nil {
		t.Fatalf("Events() error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].ID != "evt-2" || events[0].Title != "Pushed 2 commits" {
		t.Errorf("unexpected first event: %+v", events[0])
	}
}

func TestClient_EventsPaginatedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"events":[{"id":"e1","event_type":"github.push","title":"Pushed 1 commit","metadata":{},"created_at":"2026-10-18T10:00:00Z"}],"pagination":{"limit":50,"offset":0,"total":1,"hasMore":false}}`))
	}))
	defer server.Close()

	events, err := NewClient(server.URL, 5*time.Second).Events(context.Background())
	if err != nil {
		t.Fatalf("Events() error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].ID != "e1" || events[0].EventType != "github.push" {
		t.Errorf("unexpected event: %+v", events[0])
	}
}

func TestClient_EventsPaginatedEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"events":null,"pagination":{"limit":50,"offset":0,"total":0,"hasMore":false}}`))
	}))
	defer server.Close()

	events, err := NewClient(server.URL, 5*time.Second).Events(context.Background())
	if err != nil {
		t.Fatalf("Events() error: %v", err)
	}
	if events == nil || len(events) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", events)
	}
}

func TestClient_EventsMalformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"events":"nope"}`))
	}))
	defer server.Close()

	if _, err := NewClient(server.URL, 5*time.Second).Events(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestClient_NullEventsIsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`null`))
	}))
	defer server.Close()

	events, err := NewClient(server.URL, 5*time.Second).Events(context.Background())
	if err != nil {
		t.Fatalf("Events() error: %v", err)
	}
	if events == nil || len(events) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", events)
	}
}

func TestClient_Non2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	if _, err := NewClient(server.URL, 5*time.Second).Stats(context.Background()); err == nil {
		t.Fatal("expected error for 502 response")
	}
}
