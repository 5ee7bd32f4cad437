// Command client is an interactive terminal chat client.
//
//	/join <room>   join or switch room
//	/leave         leave the current room
//	/image <path>  upload an image to the current room
//	/token <name>  print a token signed with ROOMCHAT_SECRET
//	/quit          exit
//
// Any other line is sent as a message.
package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"roomchat/auth"
	"roomchat/domain/event"
	grpc2 "roomchat/grpc"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/kelseyhightower/envconfig"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

type Config struct {
	Addr      string `envconfig:"ADDR" default:"ws://localhost:8080/ws"`
	Transport string `envconfig:"TRANSPORT" default:"ws"`
	Room      string `envconfig:"ROOM" default:"lobby"`
	Username  string `envconfig:"USERNAME"`
	Token     string `envconfig:"TOKEN"`
	Secret    string `envconfig:"SECRET"`
	Colours   bool   `envconfig:"COLOURS" default:"true"`
}

// conn hides the transport: both send inbound frames and yield outbound ones.
type conn interface {
	Send(in event.Inbound) error
	Recv() (event.Outbound, error)
	Close() error
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var config Config
	if err := envconfig.Process("roomchat", &config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if !config.Colours {
		color.Disable()
	}
	if config.Username == "" {
		config.Username = os.Getenv("USER")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := dial(ctx, config)
	if err != nil {
		return err
	}
	defer c.Close()

	go printFrames(c, stop)

	if err = c.Send(event.Join{Room: config.Room, Username: config.Username}); err != nil {
		return err
	}

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			quit, err := handleLine(c, config, line)
			if err != nil {
				color.Error.Println(err)
			}
			if quit {
				return nil
			}
		}
	}
}

func handleLine(c conn, config Config, line string) (bool, error) {
	line = strings.TrimSpace(line)
	command, arg, _ := strings.Cut(line, " ")
	switch command {
	case "":
		return false, nil
	case "/quit":
		_ = c.Send(event.Leave{})
		return true, nil
	case "/join":
		return false, c.Send(event.Join{Room: arg, Username: config.Username})
	case "/leave":
		return false, c.Send(event.Leave{})
	case "/image":
		data, err := os.ReadFile(arg)
		if err != nil {
			return false, err
		}
		return false, c.Send(event.UploadImage{Filename: filepath.Base(arg), File: data})
	case "/token":
		token, err := auth.NewTokenResolver(config.Secret, 24*time.Hour).GenerateToken(arg)
		if err != nil {
			return false, err
		}
		fmt.Println(token)
		return false, nil
	default:
		return false, c.Send(event.PostMessage{Message: line})
	}
}

func printFrames(c conn, stop context.CancelFunc) {
	defer stop()
	for {
		frame, err := c.Recv()
		if err != nil {
			color.Warn.Println("disconnected:", err)
			return
		}
		switch f := frame.(type) {
		case event.Status:
			color.Gray.Println("*", f.Msg)
		case event.Message:
			fmt.Printf("%s %s %s\n",
				color.Gray.Sprint(f.CreatedAt.Local().Format("15:04:05")),
				color.Cyan.Sprintf("<%s>", f.Sender),
				f.Message)
		case event.Image:
			color.Magenta.Printf("<%s> shared an image: %s\n", f.Username, f.URL)
		case event.History:
			color.Gray.Printf("-- %d messages in %s --\n", len(f.Messages), f.Room)
			for _, m := range f.Messages {
				fmt.Printf("%s %s %s\n", color.Gray.Sprint(m.CreatedAt.Local().Format("15:04:05")), color.Cyan.Sprintf("<%s>", m.Sender), m.Message)
			}
		case event.Error:
			color.Error.Printf("[%s] %s\n", f.Code, f.Message)
		}
	}
}

func dial(ctx context.Context, config Config) (conn, error) {
	switch config.Transport {
	case "grpc":
		cc, err := grpc.NewClient(config.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return nil, err
		}
		stream, err := grpc2.OpenStream(ctx, cc, config.Token)
		if err != nil {
			_ = cc.Close()
			return nil, err
		}
		return &grpcConn{ChatStream: stream, cc: cc}, nil
	default:
		header := http.Header{}
		if config.Token != "" {
			header.Set("Authorization", "Bearer "+config.Token)
		}
		ws, resp, err := websocket.DefaultDialer.DialContext(ctx, config.Addr, header)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", config.Addr, err)
		}
		_ = resp.Body.Close()
		return &wsConn{ws: ws}, nil
	}
}

type wsConn struct {
	ws *websocket.Conn
}

func (w *wsConn) Send(in event.Inbound) error {
	raw, err := event.EncodeInbound(in)
	if err != nil {
		return err
	}
	return w.ws.WriteMessage(websocket.TextMessage, raw)
}

func (w *wsConn) Recv() (event.Outbound, error) {
	_, raw, err := w.ws.ReadMessage()
	if err != nil {
		return nil, err
	}
	return event.DecodeOutbound(raw)
}

func (w *wsConn) Close() error {
	_ = w.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return w.ws.Close()
}

type grpcConn struct {
	*grpc2.ChatStream
	cc *grpc.ClientConn
}

func (g *grpcConn) Close() error {
	_ = g.CloseSend()
	return g.cc.Close()
}
