package grpc

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"roomchat/auth"
	"roomchat/domain/event"
	"roomchat/errors"
	"roomchat/runtime"
	"roomchat/services"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	ServiceName       = "roomchat.v1.ChatService"
	ConnectMethodName = "/" + ServiceName + "/Connect"
)

// ChatServiceServer is the server API of the chat stream.
type ChatServiceServer interface {
	Connect(stream grpc.ServerStream) error
}

// ChatServiceDesc describes a single bidirectional stream of event.Envelope.
var ChatServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ChatServiceServer)(nil),
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Connect",
			Handler:       connectHandler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "roomchat/v1/chat",
}

func connectHandler(srv any, stream grpc.ServerStream) error {
	return srv.(ChatServiceServer).Connect(stream)
}

func RegisterChatServiceServer(s grpc.ServiceRegistrar, srv ChatServiceServer) {
	s.RegisterService(&ChatServiceDesc, srv)
}

type ChatServer struct {
	log                  *slog.Logger
	gateway              *services.SessionGateway
	connectionBufferSize int
	rateLimitPerSecond   float64
	rateLimitBurst       int
}

func NewChatServer(
	log *slog.Logger,
	gateway *services.SessionGateway,
	connectionBufferSize int,
	rateLimitPerSecond float64,
	rateLimitBurst int,
) *ChatServer {
	return &ChatServer{
		log:                  log,
		gateway:              gateway,
		connectionBufferSize: connectionBufferSize,
		rateLimitPerSecond:   rateLimitPerSecond,
		rateLimitBurst:       rateLimitBurst,
	}
}

// Connect runs one session for the lifetime of the stream.
// Inbound envelopes are handled in order on this goroutine; a second goroutine
// is the only one calling SendMsg.
func (s *ChatServer) Connect(stream grpc.ServerStream) error {
	ctx, cancel := context.WithCancel(stream.Context())
	defer cancel()

	outbox := runtime.NewOutbox(s.connectionBufferSize)
	session, err := s.gateway.Connect(ctx, auth.NameFromContext(ctx), outbox)
	if err != nil {
		return status.Error(codes.Internal, err.Error())
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		if err := s.sendLoop(ctx, stream, outbox); err != nil {
			// RecvMsg may stay blocked; stop routing frames to a dead stream now
			session.Close(context.WithoutCancel(ctx))
		}
	}()
	defer func() {
		// the session must be gone before the stream is released
		session.Close(context.WithoutCancel(ctx))
		wg.Wait()
	}()

	limiter := runtime.NewLimiter(s.rateLimitPerSecond, s.rateLimitBurst)
	for {
		var env event.Envelope
		if err = stream.RecvMsg(&env); err != nil {
			if err == io.EOF || ctx.Err() != nil {
				return nil
			}
			s.log.Debug("Stream receive failed", "connection_id", session.ID(), "error", err)
			return err
		}
		if !limiter.Allow() {
			session.Reject(ctx, errors.ErrRateLimited)
			continue
		}
		in, err := event.DecodeEnvelope(env)
		if err != nil {
			session.Reject(ctx, err)
			continue
		}
		if err = session.Handle(ctx, in); errors.Is(err, errors.ErrConnectionClosed) {
			return nil
		}
	}
}

// sendLoop returns an error only when the stream refused a frame.
func (s *ChatServer) sendLoop(ctx context.Context, stream grpc.ServerStream, outbox *runtime.Outbox) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-outbox.Done():
			return nil
		case frame := <-outbox.Frames():
			env, err := event.Wrap(frame)
			if err != nil {
				s.log.Error("Failed to encode frame", "frame", frame.OutboundType(), "error", err)
				continue
			}
			if err = stream.SendMsg(&env); err != nil {
				s.log.Error("Failed to push frame to stream", "frame", frame.OutboundType(), "error", err)
				return err
			}
		}
	}
}
