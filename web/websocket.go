package web

import (
	"context"
	"net/http"
	"time"

	"roomchat/auth"
	"roomchat/domain/event"
	"roomchat/errors"
	"roomchat/runtime"
	"roomchat/services"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// frame overhead on top of the base64 encoded image payload
	frameOverhead = 64 * 1024
)

// ServeWS upgrades the request and runs the connection until either side closes it.
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	name := ""
	if s.opts.AuthEnabled {
		resolved, err := s.resolver.Resolve(auth.TokenFromRequest(r))
		if err != nil {
			s.log.Debug("Websocket refused", "remote", r.RemoteAddr, "error", err)
			http.Error(w, errors.Code(err), http.StatusUnauthorized)
			return
		}
		name = resolved
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader already answered with an HTTP error
		s.log.Debug("Websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	// the request context ends with this handler, the connection outlives it
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	outbox := runtime.NewOutbox(s.opts.ConnectionBufferSize)
	session, err := s.gateway.Connect(ctx, name, outbox)
	if err != nil {
		s.log.Error("Failed to register connection", "error", err)
		cancel()
		_ = conn.Close()
		return
	}

	c := &client{
		server:  s,
		conn:    conn,
		session: session,
		outbox:  outbox,
		limiter: runtime.NewLimiter(s.opts.RateLimitPerSecond, s.opts.RateLimitBurst),
		cancel:  cancel,
	}
	go c.writePump(ctx)
	c.readPump(ctx)
}

type client struct {
	server  *Server
	conn    *websocket.Conn
	session *services.Session
	outbox  *runtime.Outbox
	limiter *rate.Limiter
	cancel  context.CancelFunc
}

// close runs from both pumps; Session.Close is idempotent and so is Conn.Close.
func (c *client) close(ctx context.Context) {
	c.session.Close(ctx)
	_ = c.conn.Close()
	c.cancel()
}

func (c *client) readPump(ctx context.Context) {
	defer c.close(ctx)

	c.conn.SetReadLimit(c.readLimit())
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.server.log.Warn("Websocket closed unexpectedly", "connection_id", c.session.ID(), "error", err)
			}
			return
		}
		if !c.limiter.Allow() {
			c.session.Reject(ctx, errors.ErrRateLimited)
			continue
		}
		in, err := event.Decode(raw)
		if err != nil {
			c.session.Reject(ctx, err)
			continue
		}
		if err = c.session.Handle(ctx, in); errors.Is(err, errors.ErrConnectionClosed) {
			return
		}
	}
}

func (c *client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close(ctx)
	}()

	for {
		select {
		case frame := <-c.outbox.Frames():
			raw, err := event.Encode(frame)
			if err != nil {
				c.server.log.Error("Failed to encode frame", "frame", frame.OutboundType(), "error", err)
				continue
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err = c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.outbox.Done():
			c.writeClose(websocket.CloseNormalClosure)
			return
		case <-c.server.closing:
			c.writeClose(websocket.CloseGoingAway)
			return
		case <-ctx.Done():
			return
		}
	}
}

func (c *client) writeClose(code int) {
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, ""),
		time.Now().Add(writeWait))
}

// readLimit fits one image frame: base64 inflates the payload by 4/3.
func (c *client) readLimit() int64 {
	return c.server.opts.MaxPayloadBytes*4/3 + frameOverhead
}
