package grpc

import (
	"context"

	"roomchat/domain/event"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// CallOptions selects the JSON codec; pass it to grpc.WithDefaultCallOptions.
func CallOptions() []grpc.CallOption {
	return []grpc.CallOption{grpc.CallContentSubtype(CodecName)}
}

// ChatStream is the client side of ChatService/Connect.
type ChatStream struct {
	stream grpc.ClientStream
}

// OpenStream starts a chat stream. A non-empty token is sent as a bearer token.
func OpenStream(ctx context.Context, conn grpc.ClientConnInterface, token string) (*ChatStream, error) {
	if token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)
	}
	stream, err := conn.NewStream(ctx, &ChatServiceDesc.Streams[0], ConnectMethodName, CallOptions()...)
	if err != nil {
		return nil, err
	}
	return &ChatStream{stream: stream}, nil
}

func (c *ChatStream) Send(in event.Inbound) error {
	env, err := event.WrapInbound(in)
	if err != nil {
		return err
	}
	return c.stream.SendMsg(&env)
}

func (c *ChatStream) Recv() (event.Outbound, error) {
	var env event.Envelope
	if err := c.stream.RecvMsg(&env); err != nil {
		return nil, err
	}
	return event.UnwrapOutbound(env)
}

// CloseSend ends the client side; the server then closes the session.
func (c *ChatStream) CloseSend() error {
	return c.stream.CloseSend()
}
