package domain

import (
	"encoding/json"
	"time"
)

// EventType is the dotted name the downstream backend keys its transformers on.
type EventType string

const (
	EventTypeGitHubPush   EventType = "github.push"
	EventTypeVercelDeploy EventType = "vercel.deploy"
)

// Envelope is the normalized body relayed to the downstream backend.
// Event is the inbound payload, byte-for-byte.
type Envelope struct {
	EventType EventType       `json:"event_type"`
	Event     json.RawMessage `json:"event"`
}

// DashboardEvent is a processed event as listed by the downstream backend.
type DashboardEvent struct {
	ID        string                 `json:"id"`
	EventType string                 `json:"event_type"`
	Title     string                 `json:"title"`
	Metadata  map[string]interface{} `json:"metadata"`
	CreatedAt time.Time              `json:"created_at"`
}

// Streak is the shipping streak section of the downstream stats.
type Streak struct {
	CurrentStreak  int    `json:"current_streak"`
	LastActiveDate string `json:"last_active_date"`
}

// Stats is the subset of downstream statistics the badge renders.
type Stats struct {
	TotalEvents int     `json:"total_events"`
	Last24Hours int     `json:"last_24_hours"`
	Streak      *Streak `json:"streak,omitempty"`
}
