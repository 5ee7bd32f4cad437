package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"roomchat/contract"
	"roomchat/domain/event"
	"roomchat/errors"
	"roomchat/observability"
)

// Broadcaster delivers frames to the members of a room.
//
// Membership is resolved through the registry on every call. Delivery is
// best-effort: a recipient that is closed, full or slow is logged and skipped,
// the others still receive the frame.
type Broadcaster struct {
	log         *slog.Logger
	registry    contract.IRegistry
	metrics     *observability.Metrics
	sinkTimeout time.Duration
}

func NewBroadcaster(log *slog.Logger, registry contract.IRegistry, metrics *observability.Metrics, sinkTimeout time.Duration) *Broadcaster {
	return &Broadcaster{log: log, registry: registry, metrics: metrics, sinkTimeout: sinkTimeout}
}

// Broadcast returns the number of connections the frame was enqueued to.
func (b *Broadcaster) Broadcast(ctx context.Context, room string, frame event.Outbound, exclude string) int {
	sinks := b.registry.SinksOf(room)
	if len(sinks) == 0 {
		return 0
	}

	var delivered atomic.Int64
	var wg sync.WaitGroup
	for id, sink := range sinks {
		if id == exclude {
			continue
		}
		wg.Add(1)
		go func(id string, sink contract.Sink) {
			defer wg.Done()
			if err := b.deliver(ctx, sink, frame); err != nil {
				b.log.Warn("Delivery failed",
					"connection_id", id,
					"room", room,
					"frame", frame.OutboundType(),
					"error", err)
				b.metrics.Dropped(reason(err))
				return
			}
			delivered.Add(1)
		}(id, sink)
	}
	wg.Wait()

	count := int(delivered.Load())
	b.metrics.Broadcast(count)
	return count
}

// Send delivers a frame to a single connection, used for private replies.
func (b *Broadcaster) Send(ctx context.Context, connectionID string, frame event.Outbound) error {
	sink, ok := b.registry.SinkOf(connectionID)
	if !ok {
		return fmt.Errorf("%w: %s", errors.ErrUnknownConnection, connectionID)
	}
	if err := b.deliver(ctx, sink, frame); err != nil {
		b.metrics.Dropped(reason(err))
		return err
	}
	return nil
}

func (b *Broadcaster) deliver(ctx context.Context, sink contract.Sink, frame event.Outbound) error {
	if b.sinkTimeout <= 0 {
		return sink.Deliver(context.WithoutCancel(ctx), frame)
	}
	sinkCtx, cancel := context.WithTimeout(ctx, b.sinkTimeout)
	defer cancel()
	return sink.Deliver(sinkCtx, frame)
}

func reason(err error) string {
	switch {
	case errors.Is(err, errors.ErrConnectionClosed):
		return "closed"
	case errors.Is(err, errors.ErrSlowConsumer):
		return "slow"
	default:
		return "error"
	}
}
