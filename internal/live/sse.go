package live

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HandleSSE streams hub messages to the client as Server-Sent Events.
func (h *Hub) HandleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	c := h.join("sse")
	if c == nil {
		http.Error(w, "stream unavailable", http.StatusServiceUnavailable)
		return
	}
	defer h.leave(c)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeSSE(w, StatusMessage{Type: TypeConnected, Message: "SSE connection established"}); err != nil {
		return
	}
	flusher.Flush()

	heartbeat := time.NewTicker(h.HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return

		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", msg); err != nil {
				return
			}
			flusher.Flush()

		case <-heartbeat.C:
			now := time.Now().UTC()
			if err := writeSSE(w, StatusMessage{Type: TypeHeartbeat, Timestamp: &now}); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}
