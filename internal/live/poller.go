package live

import (
	"context"
	"log/slog"
	"time"

	"github.com/roeintheglasses/heimdall/internal/domain"
)

// EventSource lists dashboard events, newest first.
type EventSource interface {
	Events(ctx context.Context) ([]domain.DashboardEvent, error)
}

// Poller watches the downstream event list and broadcasts the newest event
// whenever it changes. It only polls while clients are connected.
type Poller struct {
	source   EventSource
	hub      *Hub
	interval time.Duration
	logger   *slog.Logger

	lastID string
}

func NewPoller(source EventSource, hub *Hub, interval time.Duration, logger *slog.Logger) *Poller {
	return &Poller{
		source:   source,
		hub:      hub,
		interval: interval,
		logger:   logger,
	}
}

// Start begins the polling loop. It runs until the context is cancelled.
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("event poller started", "interval", p.interval.String())

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("event poller stopping")
			return
		case <-ticker.C:
			if p.hub.ClientCount() == 0 {
				continue
			}
			p.poll(ctx)
		}
	}
}

// poll fetches the event list once and reports whether it broadcast.
func (p *Poller) poll(ctx context.Context) bool {
	events, err := p.source.Events(ctx)
	if err != nil {
		p.logger.Error("failed to poll downstream events", "error", err)
		return false
	}
	if len(events) == 0 {
		return false
	}

	latest := events[0]
	if latest.ID == p.lastID {
		return false
	}

	p.hub.Broadcast(latest)
	p.lastID = latest.ID
	p.logger.Debug("broadcast new event", "event_id", latest.ID, "event_type", latest.EventType)
	return true
}
