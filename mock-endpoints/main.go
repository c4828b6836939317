// Command mock-endpoints is a stand-in for the Heimdall event backend. It
// accepts relayed envelopes and serves the stats and event list the badge
// and live stream read.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/roeintheglasses/heimdall/internal/domain"
)

var requestCount atomic.Int64

// eventsPage mirrors the backend's paginated /api/events response.
type eventsPage struct {
	Events     []domain.DashboardEvent `json:"events"`
	Pagination pagination              `json:"pagination"`
}

type pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	Total   int  `json:"total"`
	HasMore bool `json:"hasMore"`
}

type backend struct {
	mu     sync.Mutex
	events []domain.DashboardEvent
}

func main() {
	port := "9090"
	if p := os.Getenv("PORT"); p != "" {
		port = p
	}

	b := &backend{}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)

	// Relay target: records the envelope and returns 200.
	r.Post("/api/webhook", b.receive)

	// Failing relay target: point GO_SERVICE_URL at /fail to exercise the
	// relay's 500 path.
	r.Post("/fail/api/webhook", func(w http.ResponseWriter, r *http.Request) {
		count := requestCount.Add(1)
		logRequest(r, count, http.StatusServiceUnavailable, "")
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	})

	r.Get("/api/stats", b.stats)
	r.Get("/api/events", b.list)

	log.Printf("Mock backend starting on :%s", port)
	log.Printf("  POST /api/webhook       -> 200 OK, records event")
	log.Printf("  POST /fail/api/webhook  -> 503 Error")
	log.Printf("  GET  /api/stats         -> aggregate stats")
	log.Printf("  GET  /api/events        -> {events, pagination}, newest first")

	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func (b *backend) receive(w http.ResponseWriter, r *http.Request) {
	count := requestCount.Add(1)

	var env domain.Envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		logRequest(r, count, http.StatusBadRequest, "")
		http.Error(w, "invalid envelope", http.StatusBadRequest)
		return
	}
	logRequest(r, count, http.StatusOK, string(env.EventType))

	ev := domain.DashboardEvent{
		ID:        uuid.NewString(),
		EventType: string(env.EventType),
		Title:     fmt.Sprintf("%s #%d", env.EventType, count),
		Metadata:  map[string]interface{}{"bytes": len(env.Event)},
		CreatedAt: time.Now().UTC(),
	}

	b.mu.Lock()
	b.events = append([]domain.DashboardEvent{ev}, b.events...)
	b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "received", "id": ev.ID})
}

func (b *backend) stats(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	cutoff := time.Now().Add(-24 * time.Hour)
	recent := 0
	lastActive := ""
	for _, ev := range b.events {
		if ev.CreatedAt.After(cutoff) {
			recent++
		}
	}
	if len(b.events) > 0 {
		lastActive = b.events[0].CreatedAt.Format(time.RFC3339)
	}

	streak := 0
	if recent > 0 {
		streak = 1
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(domain.Stats{
		TotalEvents: len(b.events),
		Last24Hours: recent,
		Streak:      &domain.Streak{CurrentStreak: streak, LastActiveDate: lastActive},
	})
}

func (b *backend) list(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		limit = l
	}

	offset := 0
	if o, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && o > 0 {
		offset = o
	}

	b.mu.Lock()
	total := len(b.events)
	events := []domain.DashboardEvent{}
	if offset < total {
		end := min(offset+limit, total)
		events = append(events, b.events[offset:end]...)
	}
	b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(eventsPage{
		Events: events,
		Pagination: pagination{
			Limit:   limit,
			Offset:  offset,
			Total:   total,
			HasMore: offset+len(events) < total,
		},
	})
}

func logRequest(r *http.Request, count int64, status int, eventType string) {
	fmt.Printf("[#%d] %s %s -> %d | event=%s request_id=%s\n",
		count,
		r.Method,
		r.URL.Path,
		status,
		eventType,
		truncate(r.Header.Get("X-Request-Id"), 16),
	)
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
