package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"roomchat/contract"
	"roomchat/domain"
	"roomchat/domain/event"
	"roomchat/errors"
	"roomchat/media"
	"roomchat/observability"

	"github.com/google/uuid"
)

const DefaultMaxMessageLength = 4096

// SessionGateway turns client frames into registry, store, relay and
// broadcaster calls. One Session exists per connection; a Session is driven
// by a single reader, the connection's read loop.
type SessionGateway struct {
	log              *slog.Logger
	registry         contract.IRegistry
	broadcaster      contract.IBroadcaster
	store            contract.IMessageStore
	relay            contract.IMediaRelay
	metrics          *observability.Metrics
	moderator        contract.Moderator
	indexer          contract.Indexer
	health           *observability.Health
	maxMessageLength int
}

func NewSessionGateway(
	log *slog.Logger,
	registry contract.IRegistry,
	broadcaster contract.IBroadcaster,
	store contract.IMessageStore,
	relay contract.IMediaRelay,
	metrics *observability.Metrics,
	maxMessageLength int,
) *SessionGateway {
	if maxMessageLength <= 0 {
		maxMessageLength = DefaultMaxMessageLength
	}
	return &SessionGateway{
		log:              log,
		registry:         registry,
		broadcaster:      broadcaster,
		store:            store,
		relay:            relay,
		metrics:          metrics,
		maxMessageLength: maxMessageLength,
	}
}

func (g *SessionGateway) WithModerator(moderator contract.Moderator) *SessionGateway {
	g.moderator = moderator
	return g
}

func (g *SessionGateway) WithIndexer(indexer contract.Indexer) *SessionGateway {
	g.indexer = indexer
	return g
}

// WithHealth enables degraded mode: joins are refused while health is not ready.
func (g *SessionGateway) WithHealth(health *observability.Health) *SessionGateway {
	g.health = health
	return g
}

// Connect registers a new connection. A non-empty displayName comes from
// the auth collaborator and can't be changed by join frames.
func (g *SessionGateway) Connect(_ context.Context, displayName string, sink contract.Sink) (*Session, error) {
	id := uuid.NewString()
	if err := g.registry.Register(id, displayName, sink); err != nil {
		return nil, err
	}
	g.metrics.ConnectionOpened()
	g.log.Debug("Connection registered", "connection_id", id, "authenticated", displayName != "")
	return &Session{
		gateway:       g,
		id:            id,
		sink:          sink,
		displayName:   displayName,
		authenticated: displayName != "",
		state:         domain.StateConnected,
	}, nil
}

type Session struct {
	gateway       *SessionGateway
	id            string
	sink          contract.Sink
	authenticated bool

	mu          sync.Mutex
	state       domain.State
	room        string
	displayName string

	closeOnce sync.Once
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() domain.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Room() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room
}

func (s *Session) DisplayName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.displayName
}

// Handle dispatches a decoded frame. A failed operation is reported to this
// connection only, as an error frame, and returned to the caller.
func (s *Session) Handle(ctx context.Context, in event.Inbound) error {
	s.gateway.metrics.FrameIn(string(in.InboundType()))

	var err error
	switch frame := in.(type) {
	case event.Join:
		err = s.Join(ctx, frame.Room, frame.Username)
	case event.PostMessage:
		err = s.Message(ctx, frame.Message)
	case event.UploadImage:
		err = s.Image(ctx, frame.Filename, frame.File)
	case event.Leave:
		err = s.Leave(ctx)
	default:
		err = fmt.Errorf("%w: %T", errors.ErrUnknownFrame, in)
	}
	if err != nil {
		s.Reject(ctx, err)
	}
	return err
}

// Reject sends err privately to this connection as an error frame.
func (s *Session) Reject(ctx context.Context, err error) {
	s.gateway.sendError(ctx, s.id, err)
}

func (s *Session) Join(ctx context.Context, room, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == domain.StateClosed {
		return errors.ErrConnectionClosed
	}
	g := s.gateway

	room = domain.NormalizeRoom(room)
	if room == "" || utf8.RuneCountInString(room) > domain.MaxRoomLength {
		return fmt.Errorf("%w: room must be 1 to %d characters", errors.ErrInvalidMessage, domain.MaxRoomLength)
	}
	name := s.displayName
	if !s.authenticated {
		name = strings.TrimSpace(username)
	}
	if name == "" || utf8.RuneCountInString(name) > domain.MaxRoomLength {
		return fmt.Errorf("%w: username must be 1 to %d characters", errors.ErrInvalidMessage, domain.MaxRoomLength)
	}
	if g.health != nil && !g.health.Ready() {
		return fmt.Errorf("%w: joins are suspended", errors.ErrStoreUnavailable)
	}

	if s.state == domain.StateJoined && s.room == room {
		history, err := g.store.History(ctx, room)
		if err != nil {
			return err
		}
		g.sendPrivate(ctx, s.id, event.FromHistory(room, history))
		return nil
	}

	if s.state == domain.StateJoined {
		s.leaveLocked(ctx)
	}
	if name != s.displayName {
		if err := g.registry.Rename(s.id, name); err != nil {
			return err
		}
		s.displayName = name
	}
	if _, _, err := g.registry.Join(s.id, room); err != nil {
		return err
	}
	history, err := g.store.History(ctx, room)
	if err != nil {
		g.registry.Leave(s.id)
		g.log.Warn("Join rolled back, history unavailable", "connection_id", s.id, "room", room, "error", err)
		return err
	}
	s.state = domain.StateJoined
	s.room = room

	g.sendPrivate(ctx, s.id, event.FromHistory(room, history))
	g.broadcaster.Broadcast(ctx, room, event.Status{Msg: domain.JoinedAnnouncement(name)}, "")
	g.log.Info("Joined room", "connection_id", s.id, "room", room, "username", name, "history", len(history))
	return nil
}

// Message persists content in the joined room, then broadcasts it.
// Nothing is broadcast unless the append succeeded.
func (s *Session) Message(ctx context.Context, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, name, err := s.joinedLocked()
	if err != nil {
		return err
	}
	g := s.gateway

	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: empty message", errors.ErrInvalidMessage)
	}
	if utf8.RuneCountInString(content) > g.maxMessageLength {
		return fmt.Errorf("%w: message longer than %d characters", errors.ErrInvalidMessage, g.maxMessageLength)
	}
	if g.moderator != nil {
		censored, found := g.moderator.Censor(content)
		if len(found) > 0 {
			g.log.Info("Message censored", "connection_id", s.id, "room", room, "words", found)
		}
		content = censored
	}

	message, err := g.store.Append(ctx, room, name, domain.KindText, content)
	if err != nil {
		return err
	}
	if g.indexer != nil {
		g.indexer.Index(message)
	}
	g.broadcaster.Broadcast(ctx, room, event.FromMessage(message), "")
	return nil
}

// Image hands the payload to the relay and returns immediately. The room and
// sender are the ones at upload time, even if the session moves meanwhile.
func (s *Session) Image(_ context.Context, filename string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, name, err := s.joinedLocked()
	if err != nil {
		return err
	}
	if media.SanitizeFilename(filename) == "" {
		return fmt.Errorf("%w: %q", errors.ErrInvalidFilename, filename)
	}

	g := s.gateway
	id := s.id
	return g.relay.Submit(contract.MediaJob{
		Room:     room,
		Sender:   name,
		Filename: filename,
		Data:     data,
		Done: func(blob domain.MediaBlob, err error) {
			g.completeUpload(id, room, name, blob, err)
		},
	})
}

// Leave is a no-op when not joined, so the departure is announced once.
func (s *Session) Leave(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == domain.StateClosed {
		return errors.ErrConnectionClosed
	}
	if s.state == domain.StateJoined {
		s.leaveLocked(ctx)
	}
	return nil
}

// Close can be called from both the read and write paths; only the first call acts.
func (s *Session) Close(ctx context.Context) {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		g := s.gateway

		previous, ok := g.registry.Unregister(s.id)
		if ok && previous != "" {
			g.broadcaster.Broadcast(ctx, previous, event.Status{Msg: domain.LeftAnnouncement(s.displayName)}, "")
		}
		s.sink.Close()
		s.state = domain.StateClosed
		s.room = ""
		g.metrics.ConnectionClosed()
		g.log.Debug("Connection closed", "connection_id", s.id, "room", previous)
	})
}

func (s *Session) leaveLocked(ctx context.Context) {
	g := s.gateway
	previous, left := g.registry.Leave(s.id)
	s.state = domain.StateConnected
	s.room = ""
	if !left {
		return
	}
	g.broadcaster.Broadcast(ctx, previous, event.Status{Msg: domain.LeftAnnouncement(s.displayName)}, "")
	g.log.Info("Left room", "connection_id", s.id, "room", previous)
}

func (s *Session) joinedLocked() (string, string, error) {
	switch s.state {
	case domain.StateClosed:
		return "", "", errors.ErrConnectionClosed
	case domain.StateJoined:
		return s.room, s.displayName, nil
	default:
		return "", "", errors.ErrNotJoined
	}
}

// completeUpload runs on a media writer goroutine.
func (g *SessionGateway) completeUpload(connectionID, room, sender string, blob domain.MediaBlob, err error) {
	ctx := context.Background()
	if err != nil {
		g.log.Warn("Upload failed", "connection_id", connectionID, "room", room, "error", err)
		g.sendError(ctx, connectionID, err)
		return
	}
	if _, err = g.store.Append(ctx, room, sender, domain.KindImage, blob.URL()); err != nil {
		g.sendError(ctx, connectionID, err)
		return
	}
	g.broadcaster.Broadcast(ctx, room, event.Image{Username: sender, URL: blob.URL()}, "")
}

func (g *SessionGateway) sendError(ctx context.Context, connectionID string, err error) {
	g.sendPrivate(ctx, connectionID, event.Error{Code: errors.Code(err), Message: err.Error()})
}

func (g *SessionGateway) sendPrivate(ctx context.Context, connectionID string, frame event.Outbound) {
	if err := g.broadcaster.Send(ctx, connectionID, frame); err != nil {
		g.log.Debug("Private frame not delivered",
			"connection_id", connectionID,
			"frame", frame.OutboundType(),
			"error", err)
	}
}
