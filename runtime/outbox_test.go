package runtime

import (
	"context"
	"testing"
	"time"

	"roomchat/domain/event"
	"roomchat/errors"

	"github.com/stretchr/testify/require"
)

func TestOutbox_Deliver_Then_Drain(t *testing.T) {
	req := require.New(t)
	outbox := NewOutbox(2)

	req.NoError(outbox.Deliver(context.Background(), event.Status{Msg: "one"}))
	req.NoError(outbox.Deliver(context.Background(), event.Status{Msg: "two"}))
	req.Equal(2, outbox.Len())

	req.Equal(event.Status{Msg: "one"}, <-outbox.Frames())
	req.Equal(event.Status{Msg: "two"}, <-outbox.Frames())
}

func TestOutbox_Full_Without_Deadline_Fails_Fast(t *testing.T) {
	req := require.New(t)
	outbox := NewOutbox(1)
	req.NoError(outbox.Deliver(context.Background(), event.Status{Msg: "one"}))

	err := outbox.Deliver(context.Background(), event.Status{Msg: "two"})

	req.ErrorIs(err, errors.ErrSlowConsumer)
}

func TestOutbox_Full_Waits_Until_Deadline(t *testing.T) {
	req := require.New(t)
	outbox := NewOutbox(1)
	req.NoError(outbox.Deliver(context.Background(), event.Status{Msg: "one"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	err := outbox.Deliver(ctx, event.Status{Msg: "two"})

	req.ErrorIs(err, errors.ErrSlowConsumer)
	req.GreaterOrEqual(time.Since(start), 20*time.Millisecond)
}

func TestOutbox_Full_Succeeds_When_Drained(t *testing.T) {
	req := require.New(t)
	outbox := NewOutbox(1)
	req.NoError(outbox.Deliver(context.Background(), event.Status{Msg: "one"}))

	go func() {
		time.Sleep(10 * time.Millisecond)
		<-outbox.Frames()
	}()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	req.NoError(outbox.Deliver(ctx, event.Status{Msg: "two"}))
}

func TestOutbox_Closed(t *testing.T) {
	req := require.New(t)
	outbox := NewOutbox(1)

	outbox.Close()
	outbox.Close()

	req.ErrorIs(outbox.Deliver(context.Background(), event.Status{Msg: "late"}), errors.ErrConnectionClosed)
	select {
	case <-outbox.Done():
	default:
		req.Fail("done channel should be closed")
	}
}
