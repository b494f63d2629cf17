package push

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"

	"github.com/Strob0t/EventBoard/internal/domain/change"
)

// Message is the envelope for all WebSocket messages.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// HandleWS upgrades the connection to WebSocket and registers it for change
// notifications. Each change is sent as {"type":"event","payload":"<kind>"}.
func (s *Streams) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // CORS handled by middleware
	})
	if err != nil {
		slog.Error("websocket accept failed", "error", err)
		return
	}

	conn := NewConn(TransportWS, s.buffer)
	s.reg.Register(conn)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	slog.Info("websocket connected", "subscriber", conn.ID(), "remote", r.RemoteAddr)

	// Read loop (to detect disconnects and consume pings)
	go func() {
		defer conn.Close()
		for {
			if _, _, err := ws.Read(ctx); err != nil {
				return
			}
		}
	}()

	status := s.writeLoop(ctx, ws, conn)
	conn.Close()
	_ = ws.Close(status, "")
	slog.Info("websocket disconnected", "subscriber", conn.ID())
}

func (s *Streams) writeLoop(ctx context.Context, ws *websocket.Conn, conn *Conn) websocket.StatusCode {
	heartbeat, expired, stop := s.timers()
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return websocket.StatusGoingAway
		case <-conn.Done():
			return websocket.StatusNormalClosure
		case <-expired:
			return websocket.StatusNormalClosure
		case <-heartbeat:
			pctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := ws.Ping(pctx)
			cancel()
			if err != nil {
				slog.Debug("websocket ping failed", "subscriber", conn.ID(), "error", err)
				return websocket.StatusGoingAway
			}
		case c := <-conn.Messages():
			data, err := encodeMessage(c)
			if err != nil {
				slog.Error("websocket marshal failed", "error", err)
				continue
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err = ws.Write(wctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				slog.Debug("websocket write failed", "subscriber", conn.ID(), "error", err)
				return websocket.StatusGoingAway
			}
		}
	}
}

func encodeMessage(c change.Change) ([]byte, error) {
	payload, err := json.Marshal(c.Data())
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Type: change.Name, Payload: payload})
}
