package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = streamPongWait * 9 / 10
	streamBuffer     = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API binds to a local address; any page served alongside it may
	// subscribe.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleStream upgrades to a websocket and writes every bus event as a
// JSON text frame until the client goes away. Clients never send
// anything meaningful; reads only service pongs and close frames.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	events := s.ctl.Subscribe(streamBuffer)
	if events == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "event stream not configured")
		return
	}
	defer s.ctl.Unsubscribe(events)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("stream upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	s.logger.Debug("stream client connected", "remote", r.RemoteAddr)

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(4096)
		conn.SetReadDeadline(time.Now().Add(streamPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(streamPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.logger.Debug("stream read failed", "error", err)
				}
				return
			}
		}
	}()

	ping := time.NewTicker(streamPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-done:
			return
		case e, ok := <-events:
			conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := conn.WriteJSON(e); err != nil {
				s.logger.Debug("stream write failed", "error", err)
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
