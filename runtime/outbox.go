package runtime

import (
	"context"
	"sync"

	"roomchat/domain/event"
	"roomchat/errors"
)

// Outbox is a bounded outbound queue for one connection.
// The transport drains Frames; producers go through Deliver.
type Outbox struct {
	frames chan event.Outbound
	done   chan struct{}
	once   sync.Once
}

func NewOutbox(size int) *Outbox {
	if size <= 0 {
		size = 1
	}
	return &Outbox{
		frames: make(chan event.Outbound, size),
		done:   make(chan struct{}),
	}
}

// Deliver enqueues frame. When the queue is full it waits for room until ctx
// expires; a ctx without deadline that is already full fails immediately.
func (o *Outbox) Deliver(ctx context.Context, frame event.Outbound) error {
	select {
	case <-o.done:
		return errors.ErrConnectionClosed
	default:
	}

	select {
	case o.frames <- frame:
		return nil
	default:
	}

	if _, ok := ctx.Deadline(); !ok {
		return errors.ErrSlowConsumer
	}
	select {
	case o.frames <- frame:
		return nil
	case <-o.done:
		return errors.ErrConnectionClosed
	case <-ctx.Done():
		return errors.ErrSlowConsumer
	}
}

// Frames is never closed; select on Done to stop draining.
func (o *Outbox) Frames() <-chan event.Outbound { return o.frames }

func (o *Outbox) Done() <-chan struct{} { return o.done }

func (o *Outbox) Close() {
	o.once.Do(func() { close(o.done) })
}

func (o *Outbox) Len() int { return len(o.frames) }
