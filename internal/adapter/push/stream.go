package push

import (
	"time"

	"github.com/Strob0t/EventBoard/internal/config"
)

// writeTimeout bounds a single frame write to a client.
const writeTimeout = 10 * time.Second

// Streams serves the push transports and registers every client stream
// in a shared Registry.
type Streams struct {
	reg         *Registry
	buffer      int
	heartbeat   time.Duration
	maxLifetime time.Duration
}

// NewStreams creates the transport handlers for reg.
func NewStreams(reg *Registry, cfg config.Notify) *Streams {
	return &Streams{
		reg:         reg,
		buffer:      cfg.Buffer,
		heartbeat:   cfg.Heartbeat,
		maxLifetime: cfg.MaxLifetime,
	}
}

// Registry returns the registry the streams register into.
func (s *Streams) Registry() *Registry { return s.reg }

// timers returns the heartbeat and lifetime channels for one stream.
// A nil channel blocks forever, which disables the corresponding case.
func (s *Streams) timers() (heartbeat <-chan time.Time, expired <-chan time.Time, stop func()) {
	var ticker *time.Ticker
	var timer *time.Timer
	if s.heartbeat > 0 {
		ticker = time.NewTicker(s.heartbeat)
		heartbeat = ticker.C
	}
	if s.maxLifetime > 0 {
		timer = time.NewTimer(s.maxLifetime)
		expired = timer.C
	}
	return heartbeat, expired, func() {
		if ticker != nil {
			ticker.Stop()
		}
		if timer != nil {
			timer.Stop()
		}
	}
}
