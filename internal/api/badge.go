package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/roeintheglasses/heimdall/internal/badge"
	"github.com/roeintheglasses/heimdall/internal/domain"
)

// StatsProvider returns dashboard statistics, typically through a cache.
type StatsProvider interface {
	Get(ctx context.Context) (*domain.Stats, error)
}

type BadgeHandler struct {
	stats  StatsProvider
	logger *slog.Logger
	now    func() time.Time
}

func NewBadgeHandler(stats StatsProvider, logger *slog.Logger) *BadgeHandler {
	return &BadgeHandler{stats: stats, logger: logger, now: time.Now}
}

// ServeHTTP renders GET /api/badge. A downstream failure still yields a
// badge, showing N/A.
func (h *BadgeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	kind := badge.Kind(q.Get("type"))
	if kind == "" {
		kind = badge.KindLast
	}
	style := badge.Style(q.Get("style"))
	color := q.Get("color")

	stats, err := h.stats.Get(r.Context())
	if err != nil {
		h.logger.Warn("badge stats unavailable", "error", err)
		stats = nil
	}

	label, value := badge.FromStats(stats, kind, h.now())
	svg := badge.New(label, value, color, style).SVG()

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=300, s-maxage=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(svg))
}
