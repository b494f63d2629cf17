package push

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/Strob0t/EventBoard/internal/domain/change"
)

// Transport names used in logs and metrics.
const (
	TransportSSE = "sse"
	TransportWS  = "ws"
)

var (
	// ErrClosed is returned by Send after the subscriber completed.
	ErrClosed = errors.New("push: subscriber closed")
	// ErrSlowSubscriber is returned by Send when the outbound queue is full.
	ErrSlowSubscriber = errors.New("push: subscriber queue full")
)

// Conn is a transport-neutral subscriber. Broadcasts enqueue into a bounded
// queue; the transport goroutine drains Messages and writes to the client.
// Once closed a Conn never reopens.
type Conn struct {
	id        string
	transport string
	queue     chan change.Change
	done      chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewConn creates an open subscriber with an outbound queue of the given size.
func NewConn(transport string, buffer int) *Conn {
	if buffer < 1 {
		buffer = 1
	}
	return &Conn{
		id:        uuid.NewString(),
		transport: transport,
		queue:     make(chan change.Change, buffer),
		done:      make(chan struct{}),
	}
}

// ID returns the registry handle of the subscriber.
func (c *Conn) ID() string { return c.id }

// Transport returns the transport name ("sse" or "ws").
func (c *Conn) Transport() string { return c.transport }

// Send enqueues a change without blocking.
func (c *Conn) Send(ch change.Change) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrClosed
	}
	select {
	case c.queue <- ch:
		return nil
	default:
		return ErrSlowSubscriber
	}
}

// Messages returns the queue drained by the transport writer.
// The channel is never closed; select on Done as well.
func (c *Conn) Messages() <-chan change.Change { return c.queue }

// Done is closed when the subscriber completes for any reason.
func (c *Conn) Done() <-chan struct{} { return c.done }

// Close completes the subscriber. Safe to call more than once.
func (c *Conn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.done)
	}
}

// Closed reports whether the subscriber has completed.
func (c *Conn) Closed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}
