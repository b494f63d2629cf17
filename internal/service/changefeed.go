package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	ebotel "github.com/Strob0t/EventBoard/internal/adapter/otel"
	"github.com/Strob0t/EventBoard/internal/domain/change"
	"github.com/Strob0t/EventBoard/internal/logger"
	"github.com/Strob0t/EventBoard/internal/port/messagequeue"
	"github.com/Strob0t/EventBoard/internal/resilience"
)

// publishTimeout bounds how long a mutation waits on the broker.
const publishTimeout = 2 * time.Second

// ChangeFeed appends change records to the durable message stream so other
// systems can follow mutations. Unlike the push stream, records name the
// affected event.
type ChangeFeed struct {
	queue   messagequeue.Queue
	breaker *resilience.Breaker
	now     func() time.Time
}

// NewChangeFeed creates a ChangeFeed publishing through q, guarded by b.
func NewChangeFeed(q messagequeue.Queue, b *resilience.Breaker) *ChangeFeed {
	return &ChangeFeed{
		queue:   q,
		breaker: b,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Publish appends one change record. It fails fast while the breaker is open.
func (f *ChangeFeed) Publish(ctx context.Context, kind change.Kind, eventID string) error {
	data, err := json.Marshal(messagequeue.ChangeRecordPayload{
		Kind:      kind,
		EventID:   eventID,
		RequestID: logger.RequestID(ctx),
		At:        f.now(),
	})
	if err != nil {
		return fmt.Errorf("marshal change record: %w", err)
	}

	subject := messagequeue.SubjectFor(kind)
	ctx, span := ebotel.StartFeedPublishSpan(ctx, subject)
	defer span.End()

	return f.breaker.Execute(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, publishTimeout)
		defer cancel()
		return f.queue.Publish(ctx, subject, data)
	})
}

// Tail calls fn for every new change record until the returned cancel
// function is called. Undecodable records are acknowledged and skipped.
func (f *ChangeFeed) Tail(ctx context.Context, fn func(context.Context, messagequeue.ChangeRecordPayload)) (func(), error) {
	return f.queue.Subscribe(ctx, messagequeue.SubjectEventsAll, func(ctx context.Context, subject string, data []byte) error {
		var rec messagequeue.ChangeRecordPayload
		if err := json.Unmarshal(data, &rec); err != nil {
			logger.FromContext(ctx).Warn("change record undecodable", "subject", subject, "error", err)
			return nil
		}
		fn(ctx, rec)
		return nil
	})
}

// BreakerState reports the feed breaker state for health checks.
func (f *ChangeFeed) BreakerState() resilience.State {
	return f.breaker.State()
}
