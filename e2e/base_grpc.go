package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	grpc2 "roomchat/grpc"

	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

type BaseGrpcSuite struct {
	suite.Suite
	Config Config
}

func (s *BaseGrpcSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.GrpcAddr == "" {
		s.T().Skip("E2E_GRPC_ADDR is not set")
	}
}

// GrpcConn opens a client connection that logs every frame of every stream.
func (s *BaseGrpcSuite) GrpcConn(t *testing.T, name string) *grpc.ClientConn {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)

	conn, err := grpc.NewClient(s.Config.GrpcAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStreamInterceptor(func(ctx context.Context, desc *grpc.StreamDesc, cc *grpc.ClientConn, method string, streamer grpc.Streamer, opts ...grpc.CallOption) (grpc.ClientStream, error) {
			stream, err := streamer(ctx, desc, cc, method, opts...)
			if err != nil {
				return nil, err
			}
			return &loggingStream{ClientStream: stream, t: t, debug: s.Config.DebugJSON}, nil
		}),
	)
	s.Require().NoError(err, "Failed to connect to gRPC server at "+s.Config.GrpcAddr)
	return conn
}

// WithChat opens a chat stream within a contextual test step.
func (s *BaseGrpcSuite) WithChat(name string, fn func(ctx context.Context, stream *grpc2.ChatStream)) {
	conn := s.GrpcConn(s.T(), name)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	stream, err := grpc2.OpenStream(ctx, conn, s.Config.Token)
	s.Require().NoError(err)
	defer func() { _ = stream.CloseSend() }()

	fn(ctx, stream)
}

type loggingStream struct {
	grpc.ClientStream
	t     *testing.T
	debug bool
}

func (l *loggingStream) SendMsg(m any) error {
	l.dump("SENT", m)
	return l.ClientStream.SendMsg(m)
}

func (l *loggingStream) RecvMsg(m any) error {
	err := l.ClientStream.RecvMsg(m)
	if err == nil {
		l.dump("RECEIVED", m)
	}
	return err
}

func (l *loggingStream) dump(direction string, m any) {
	if !l.debug {
		return
	}
	raw, _ := json.MarshalIndent(m, "", "  ")
	l.t.Logf("%s:\n%s", direction, raw)
}
