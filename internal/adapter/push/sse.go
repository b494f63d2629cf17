package push

import (
	"bytes"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Strob0t/EventBoard/internal/domain/change"
)

// HandleSSE opens a Server-Sent Events stream and registers it for change
// notifications. Each change is written as:
//
//	event: event
//	data: <kind>
//
// The handler returns when the client disconnects, the stream reaches its
// configured lifetime, a write fails, or the registry closes the subscriber.
func (s *Streams) HandleSSE(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	// Streams outlive the server's WriteTimeout; each write sets its own deadline.
	_ = rc.SetWriteDeadline(time.Time{})

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if err := rc.Flush(); err != nil {
		slog.Error("sse flush unsupported", "error", err)
		return
	}

	conn := NewConn(TransportSSE, s.buffer)
	s.reg.Register(conn)
	defer conn.Close()

	slog.Info("sse connected", "subscriber", conn.ID(), "remote", r.RemoteAddr)
	defer slog.Info("sse disconnected", "subscriber", conn.ID())

	heartbeat, expired, stop := s.timers()
	defer stop()

	write := func(frame []byte) bool {
		_ = rc.SetWriteDeadline(time.Now().Add(writeTimeout))
		if _, err := w.Write(frame); err != nil {
			slog.Debug("sse write failed", "subscriber", conn.ID(), "error", err)
			return false
		}
		if err := rc.Flush(); err != nil {
			slog.Debug("sse flush failed", "subscriber", conn.ID(), "error", err)
			return false
		}
		return true
	}

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-conn.Done():
			return
		case <-expired:
			return
		case <-heartbeat:
			if !write(commentFrame("ping")) {
				return
			}
		case c := <-conn.Messages():
			if !write(eventFrame(change.Name, c.Data())) {
				return
			}
		}
	}
}

// eventFrame encodes one SSE message. Multi-line data is split across
// data fields so embedded newlines cannot terminate the frame early.
func eventFrame(event, data string) []byte {
	var b bytes.Buffer
	b.WriteString("event: ")
	b.WriteString(event)
	b.WriteByte('\n')
	for _, line := range strings.Split(data, "\n") {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	return b.Bytes()
}

// commentFrame encodes an SSE comment, ignored by EventSource clients.
func commentFrame(text string) []byte {
	return []byte(": " + text + "\n\n")
}
