package grpc

import (
	"context"
	"io"
	"log/slog"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"roomchat/auth"
	"roomchat/domain/event"
	"roomchat/repositories"
	"roomchat/runtime"
	"roomchat/services"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type harness struct {
	conn     *grpc.ClientConn
	resolver *auth.TokenResolver
}

func newHarness(t *testing.T, authEnabled bool, rateLimit float64, burst int) harness {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	store := repositories.NewMessageRepository(db, log)
	registry := runtime.NewRegistry()
	broadcaster := runtime.NewBroadcaster(log, registry, nil, 100*time.Millisecond)
	gateway := services.NewSessionGateway(log, registry, broadcaster, store, nil, nil, 0)
	resolver := auth.NewTokenResolver("a_long_enough_secret_for_tests", time.Hour)

	listener := bufconn.Listen(1 << 20)
	server := grpc.NewServer(grpc.StreamInterceptor(auth.StreamInterceptor(resolver, authEnabled)))
	RegisterChatServiceServer(server, NewChatServer(log, gateway, 16, rateLimit, burst))
	go func() { _ = server.Serve(listener) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = conn.Close()
		server.Stop()
		_ = store.Close()
		_ = db.Close()
	})
	return harness{conn: conn, resolver: resolver}
}

func (h harness) open(t *testing.T, token string) *ChatStream {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	stream, err := OpenStream(ctx, h.conn, token)
	require.NoError(t, err)
	return stream
}

func recv(t *testing.T, stream *ChatStream) event.Outbound {
	t.Helper()
	type result struct {
		out event.Outbound
		err error
	}
	results := make(chan result, 1)
	go func() {
		out, err := stream.Recv()
		results <- result{out, err}
	}()
	select {
	case r := <-results:
		require.NoError(t, r.err)
		return r.out
	case <-time.After(2 * time.Second):
		require.FailNow(t, "no frame received")
		return nil
	}
}

func TestChatServer_Two_Streams_Share_A_Room(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, false, 0, 0)
	alice := h.open(t, "")
	bob := h.open(t, "")

	// Given alice and bob joined the lobby
	req.NoError(alice.Send(event.Join{Room: "lobby", Username: "alice"}))
	req.IsType(event.History{}, recv(t, alice))
	req.Equal(event.Status{Msg: "alice has joined the room."}, recv(t, alice))
	req.NoError(bob.Send(event.Join{Room: "lobby", Username: "bob"}))
	req.IsType(event.History{}, recv(t, bob))
	req.Equal(event.Status{Msg: "bob has joined the room."}, recv(t, bob))
	req.Equal(event.Status{Msg: "bob has joined the room."}, recv(t, alice))

	// When bob speaks
	req.NoError(bob.Send(event.PostMessage{Message: "hey"}))

	// Then alice reads it
	message, ok := recv(t, alice).(event.Message)
	req.True(ok)
	req.Equal("bob", message.Sender)
	req.Equal("hey", message.Message)
	recv(t, bob)

	// When bob hangs up
	req.NoError(bob.CloseSend())

	// Then alice sees him leave
	req.Equal(event.Status{Msg: "bob has left the room."}, recv(t, alice))
}

func TestChatServer_Errors_Are_Private(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, false, 0, 0)
	alice := h.open(t, "")

	req.NoError(alice.Send(event.PostMessage{Message: "hello?"}))

	req.Equal("not_joined", recv(t, alice).(event.Error).Code)
}

func TestChatServer_Rate_Limited(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, false, 0.001, 1)
	alice := h.open(t, "")

	req.NoError(alice.Send(event.Leave{}))
	req.NoError(alice.Send(event.Leave{}))

	req.Equal("rate_limited", recv(t, alice).(event.Error).Code)
}

func TestChatServer_Auth(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, true, 0, 0)

	// Without a token the stream is refused
	anonymous := h.open(t, "")
	_, err := anonymous.Recv()
	req.Equal(codes.Unauthenticated, status.Code(err))

	// With a token the name claim is used
	token, err := h.resolver.GenerateToken("alice")
	req.NoError(err)
	alice := h.open(t, token)
	req.NoError(alice.Send(event.Join{Room: "lobby", Username: "someone else"}))
	req.IsType(event.History{}, recv(t, alice))
	req.Equal(event.Status{Msg: "alice has joined the room."}, recv(t, alice))
}

// brokenStream accepts a single join, refuses every outbound frame and then
// blocks in RecvMsg until its context ends.
type brokenStream struct {
	grpc.ServerStream
	ctx      context.Context
	join     event.Envelope
	received atomic.Int32
	sent     atomic.Int32
}

func (s *brokenStream) Context() context.Context { return s.ctx }

func (s *brokenStream) SendMsg(any) error {
	s.sent.Add(1)
	return status.Error(codes.Unavailable, "transport is closing")
}

func (s *brokenStream) RecvMsg(m any) error {
	if s.received.Add(1) == 1 {
		*m.(*event.Envelope) = s.join
		return nil
	}
	<-s.ctx.Done()
	return io.EOF
}

func TestChatServer_Send_Failure_Closes_Session(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	store := repositories.NewMessageRepository(db, log)
	t.Cleanup(func() {
		_ = store.Close()
		_ = db.Close()
	})
	registry := runtime.NewRegistry()
	broadcaster := runtime.NewBroadcaster(log, registry, nil, 100*time.Millisecond)
	gateway := services.NewSessionGateway(log, registry, broadcaster, store, nil, nil, 0)
	server := NewChatServer(log, gateway, 16, 0, 0)

	// Given a stream whose client is gone but whose receive side hangs
	join, err := event.WrapInbound(event.Join{Room: "lobby", Username: "alice"})
	req.NoError(err)
	ctx, cancel := context.WithCancel(context.Background())
	stream := &brokenStream{ctx: ctx, join: join}
	done := make(chan error, 1)
	go func() { done <- server.Connect(stream) }()

	// When the history frame cannot be pushed
	// Then the session leaves the registry without waiting for RecvMsg
	req.Eventually(func() bool {
		return stream.sent.Load() > 0 && registry.Len() == 0
	}, 2*time.Second, 10*time.Millisecond)
	req.Empty(registry.MembersOf("lobby"))

	cancel()
	select {
	case err = <-done:
		req.NoError(err)
	case <-time.After(2 * time.Second):
		req.FailNow("Connect did not return")
	}
}
