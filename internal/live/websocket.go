package live

import (
	"io"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	// Browsers only send pongs and close frames on this stream.
	wsMaxInbound = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // dashboard is served from a different origin
	},
}

// HandleWebSocket upgrades the request and streams hub messages to it until
// either side goes away.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	c := h.join("websocket")
	if c == nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "stream unavailable"),
			time.Now().Add(wsWriteWait))
		conn.Close()
		return
	}

	go h.pushFrames(conn, c)
	h.discardInbound(conn, c)
}

// discardInbound consumes client frames so pongs and close frames are
// processed. A read error means the peer is gone.
func (h *Hub) discardInbound(conn *websocket.Conn, c *client) {
	defer h.leave(c)

	extend := func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	}
	conn.SetReadLimit(wsMaxInbound)
	_ = extend("")
	conn.SetPongHandler(extend)

	for {
		_, r, err := conn.NextReader()
		if err != nil {
			return
		}
		if _, err := io.Copy(io.Discard, r); err != nil {
			return
		}
	}
}

// pushFrames owns all writes on conn. It closes conn when the hub closes
// the client's channel or a write fails.
func (h *Hub) pushFrames(conn *websocket.Conn, c *client) {
	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()
	defer conn.Close()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
					time.Now().Add(wsWriteWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.logger.Debug("websocket write failed", "error", err)
				return
			}

		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}
