package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"roomchat/contract"
	"roomchat/domain"
	"roomchat/domain/event"
	"roomchat/errors"
	"roomchat/mocks"
	"roomchat/moderation"
	"roomchat/observability"
	"roomchat/repositories"
	"roomchat/runtime"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	gateway  *SessionGateway
	registry *runtime.Registry
	store    *repositories.MessageRepository
}

func newFixture(t *testing.T, relay contract.IMediaRelay) fixture {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	store := repositories.NewMessageRepository(db, log)
	t.Cleanup(func() {
		_ = store.Close()
		_ = db.Close()
	})
	registry := runtime.NewRegistry()
	broadcaster := runtime.NewBroadcaster(log, registry, nil, 50*time.Millisecond)
	return fixture{
		gateway:  NewSessionGateway(log, registry, broadcaster, store, relay, nil, 16),
		registry: registry,
		store:    store,
	}
}

func connect(t *testing.T, gateway *SessionGateway, displayName string) (*Session, *runtime.Outbox) {
	t.Helper()
	outbox := runtime.NewOutbox(32)
	session, err := gateway.Connect(context.Background(), displayName, outbox)
	require.NoError(t, err)
	return session, outbox
}

func next(t *testing.T, outbox *runtime.Outbox) event.Outbound {
	t.Helper()
	select {
	case frame := <-outbox.Frames():
		return frame
	case <-time.After(time.Second):
		require.FailNow(t, "no frame received")
		return nil
	}
}

func requireSilent(t *testing.T, outbox *runtime.Outbox) {
	t.Helper()
	require.Zero(t, outbox.Len(), "unexpected frame queued")
}

func TestSessionGateway_Lobby_Scenario(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t, nil)
	alice, aliceBox := connect(t, f.gateway, "")
	bob, bobBox := connect(t, f.gateway, "")

	// Given alice joins the lobby
	req.NoError(alice.Handle(ctx, event.Join{Room: "lobby", Username: "alice"}))
	req.Equal(event.History{Room: "lobby", Messages: []event.Message{}}, next(t, aliceBox))
	req.Equal(event.Status{Msg: "alice has joined the room."}, next(t, aliceBox))

	// And bob joins the lobby
	req.NoError(bob.Handle(ctx, event.Join{Room: "lobby", Username: "bob"}))
	req.IsType(event.History{}, next(t, bobBox))
	req.Equal(event.Status{Msg: "bob has joined the room."}, next(t, bobBox))
	req.Equal(event.Status{Msg: "bob has joined the room."}, next(t, aliceBox))

	// When alice says hi
	req.NoError(alice.Handle(ctx, event.PostMessage{Message: "hi"}))

	// Then both receive the persisted message
	for _, box := range []*runtime.Outbox{aliceBox, bobBox} {
		message, ok := next(t, box).(event.Message)
		req.True(ok)
		req.Equal("alice", message.Sender)
		req.Equal("hi", message.Message)
		req.Equal("lobby", message.Room)
		req.Equal(uint64(1), message.ID)
	}

	// And the lobby history holds it verbatim
	history, err := f.store.History(ctx, "lobby")
	req.NoError(err)
	req.Len(history, 1)
	req.Equal("hi", history[0].Content)
	req.Equal(domain.StateJoined, alice.State())
}

func TestSessionGateway_Message_Before_Join_Is_Rejected(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t, nil)
	bob, bobBox := connect(t, f.gateway, "")
	stranger, strangerBox := connect(t, f.gateway, "")
	req.NoError(bob.Join(ctx, "lobby", "bob"))
	next(t, bobBox)
	next(t, bobBox)

	// When a connection that never joined posts a message
	err := stranger.Handle(ctx, event.PostMessage{Room: "lobby", Message: "hello?"})

	// Then it alone gets a not_joined error
	req.ErrorIs(err, errors.ErrNotJoined)
	frame, ok := next(t, strangerBox).(event.Error)
	req.True(ok)
	req.Equal("not_joined", frame.Code)
	requireSilent(t, bobBox)

	// And the history is unchanged
	history, err := f.store.History(ctx, "lobby")
	req.NoError(err)
	req.Empty(history)
}

func TestSessionGateway_Leave_Is_Announced_Once(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t, nil)
	alice, aliceBox := connect(t, f.gateway, "")
	bob, bobBox := connect(t, f.gateway, "")
	req.NoError(alice.Join(ctx, "lobby", "alice"))
	req.NoError(bob.Join(ctx, "lobby", "bob"))
	next(t, bobBox)
	next(t, bobBox)

	// When alice leaves twice
	req.NoError(alice.Leave(ctx))
	req.NoError(alice.Leave(ctx))

	// Then bob hears about it once
	req.Equal(event.Status{Msg: "alice has left the room."}, next(t, bobBox))
	requireSilent(t, bobBox)
	req.Equal(domain.StateConnected, alice.State())
	req.Empty(alice.Room())
	req.Equal([]string{bob.ID()}, f.registry.MembersOf("lobby"))
	_ = aliceBox
}

func TestSessionGateway_Join_Other_Room_Leaves_Previous(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t, nil)
	alice, _ := connect(t, f.gateway, "")
	bob, bobBox := connect(t, f.gateway, "")
	carol, carolBox := connect(t, f.gateway, "")
	req.NoError(bob.Join(ctx, "a", "bob"))
	req.NoError(carol.Join(ctx, "b", "carol"))
	req.NoError(alice.Join(ctx, "a", "alice"))
	next(t, bobBox)
	next(t, bobBox)
	next(t, bobBox)
	next(t, carolBox)
	next(t, carolBox)

	// When alice moves to room b
	req.NoError(alice.Join(ctx, "b", "alice"))

	// Then room a sees her leave and room b sees her join
	req.Equal(event.Status{Msg: "alice has left the room."}, next(t, bobBox))
	req.Equal(event.Status{Msg: "alice has joined the room."}, next(t, carolBox))

	// And the registry holds the last joined room
	connection, ok := f.registry.Lookup(alice.ID())
	req.True(ok)
	req.Equal("b", connection.Room)
	req.NotContains(f.registry.MembersOf("a"), alice.ID())

	// And messages stay within their room
	req.NoError(alice.Message(ctx, "only b"))
	requireSilent(t, bobBox)
	req.IsType(event.Message{}, next(t, carolBox))
}

func TestSessionGateway_Rejoin_Same_Room_Resends_History(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t, nil)
	alice, aliceBox := connect(t, f.gateway, "")
	req.NoError(alice.Join(ctx, "lobby", "alice"))
	req.NoError(alice.Message(ctx, "first"))
	next(t, aliceBox)
	next(t, aliceBox)
	next(t, aliceBox)

	req.NoError(alice.Join(ctx, "lobby", "alice"))

	history, ok := next(t, aliceBox).(event.History)
	req.True(ok)
	req.Len(history.Messages, 1)
	requireSilent(t, aliceBox)
}

func TestSessionGateway_Invalid_Messages(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	alice, aliceBox := connect(t, f.gateway, "")
	require.NoError(t, alice.Join(ctx, "lobby", "alice"))
	next(t, aliceBox)
	next(t, aliceBox)

	cases := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"blank", "  \t "},
		{"too long", "this message is longer than sixteen runes"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := alice.Handle(ctx, event.PostMessage{Message: tc.content})
			require.ErrorIs(t, err, errors.ErrInvalidMessage)
			require.Equal(t, "invalid_message", next(t, aliceBox).(event.Error).Code)
		})
	}
	history, err := f.store.History(ctx, "lobby")
	require.NoError(t, err)
	require.Empty(t, history)
}

func TestSessionGateway_Join_Validation(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t, nil)
	alice, _ := connect(t, f.gateway, "")

	req.ErrorIs(alice.Join(ctx, "   ", "alice"), errors.ErrInvalidMessage)
	req.ErrorIs(alice.Join(ctx, "lobby", ""), errors.ErrInvalidMessage)
	req.Equal(domain.StateConnected, alice.State())
	req.Empty(f.registry.Rooms())
}

func TestSessionGateway_Authenticated_Name_Wins(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t, nil)
	alice, aliceBox := connect(t, f.gateway, "alice")

	req.NoError(alice.Join(ctx, "lobby", "mallory"))

	next(t, aliceBox)
	req.Equal(event.Status{Msg: "alice has joined the room."}, next(t, aliceBox))
	req.Equal("alice", alice.DisplayName())
}

func TestSessionGateway_Store_Failure_Is_Private(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	store := mocks.NewMockIMessageStore(ctrl)
	registry := runtime.NewRegistry()
	broadcaster := runtime.NewBroadcaster(log, registry, nil, 0)
	gateway := NewSessionGateway(log, registry, broadcaster, store, nil, nil, 0)

	store.EXPECT().History(gomock.Any(), "lobby").Return([]domain.Message{}, nil).Times(2)
	store.EXPECT().
		Append(gomock.Any(), "lobby", "alice", domain.KindText, "hi").
		Return(domain.Message{}, errors.ErrStoreUnavailable)

	alice, aliceBox := connect(t, gateway, "")
	bob, bobBox := connect(t, gateway, "")
	req.NoError(alice.Join(ctx, "lobby", "alice"))
	req.NoError(bob.Join(ctx, "lobby", "bob"))
	next(t, bobBox)
	next(t, bobBox)
	next(t, aliceBox)
	next(t, aliceBox)
	next(t, aliceBox)

	// When the append fails
	err := alice.Handle(ctx, event.PostMessage{Message: "hi"})

	// Then only alice is told and nothing is broadcast
	req.ErrorIs(err, errors.ErrStoreUnavailable)
	req.Equal("store_unavailable", next(t, aliceBox).(event.Error).Code)
	requireSilent(t, bobBox)
}

func TestSessionGateway_Join_Rolled_Back_When_History_Fails(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	store := mocks.NewMockIMessageStore(ctrl)
	registry := runtime.NewRegistry()
	gateway := NewSessionGateway(log, registry, runtime.NewBroadcaster(log, registry, nil, 0), store, nil, nil, 0)

	store.EXPECT().History(gomock.Any(), "lobby").Return(nil, errors.ErrStoreUnavailable)

	alice, aliceBox := connect(t, gateway, "")
	err := alice.Handle(ctx, event.Join{Room: "lobby", Username: "alice"})

	req.ErrorIs(err, errors.ErrStoreUnavailable)
	req.Equal("store_unavailable", next(t, aliceBox).(event.Error).Code)
	req.Equal(domain.StateConnected, alice.State())
	req.Empty(registry.MembersOf("lobby"))
}

func TestSessionGateway_Degraded_Rejects_Joins(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t, nil)
	health := observability.NewHealth()
	f.gateway.WithHealth(health)
	alice, _ := connect(t, f.gateway, "")

	health.SetStoreError(errors.ErrStoreUnavailable)
	req.ErrorIs(alice.Join(ctx, "lobby", "alice"), errors.ErrStoreUnavailable)

	health.SetStoreError(nil)
	req.NoError(alice.Join(ctx, "lobby", "alice"))
}

func TestSessionGateway_Moderation(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t, nil)
	moderator, err := moderation.NewModerator([]string{"spam"}, '*', slog.Default())
	req.NoError(err)
	f.gateway.WithModerator(moderator)
	alice, aliceBox := connect(t, f.gateway, "")
	req.NoError(alice.Join(ctx, "lobby", "alice"))
	next(t, aliceBox)
	next(t, aliceBox)

	req.NoError(alice.Message(ctx, "no spam"))

	req.Equal("no ****", next(t, aliceBox).(event.Message).Message)
}

func TestSessionGateway_Image_Is_Broadcast_On_Completion(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	relay := mocks.NewMockIMediaRelay(ctrl)
	f := newFixture(t, relay)
	alice, aliceBox := connect(t, f.gateway, "")
	bob, bobBox := connect(t, f.gateway, "")
	req.NoError(alice.Join(ctx, "lobby", "alice"))
	req.NoError(bob.Join(ctx, "lobby", "bob"))
	next(t, aliceBox)
	next(t, aliceBox)
	next(t, aliceBox)
	next(t, bobBox)
	next(t, bobBox)

	var job contract.MediaJob
	relay.EXPECT().Submit(gomock.Any()).DoAndReturn(func(j contract.MediaJob) error {
		job = j
		return nil
	})

	// When alice uploads an image
	req.NoError(alice.Handle(ctx, event.UploadImage{Filename: "cat.png", File: []byte("png")}))

	// Then nothing happens until the relay completes
	req.Equal("lobby", job.Room)
	req.Equal("alice", job.Sender)
	requireSilent(t, bobBox)

	job.Done(domain.MediaBlob{ID: "42-cat.png"}, nil)

	req.Equal(event.Image{Username: "alice", URL: "/uploads/42-cat.png"}, next(t, bobBox))
	req.Equal(event.Image{Username: "alice", URL: "/uploads/42-cat.png"}, next(t, aliceBox))
	history, err := f.store.History(ctx, "lobby")
	req.NoError(err)
	req.Len(history, 1)
	req.Equal(domain.KindImage, history[0].Kind)
	req.Equal("/uploads/42-cat.png", history[0].Content)
}

func TestSessionGateway_Image_Failure_Is_Private(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	relay := mocks.NewMockIMediaRelay(ctrl)
	f := newFixture(t, relay)
	alice, aliceBox := connect(t, f.gateway, "")
	bob, bobBox := connect(t, f.gateway, "")
	req.NoError(alice.Join(ctx, "lobby", "alice"))
	req.NoError(bob.Join(ctx, "lobby", "bob"))
	next(t, aliceBox)
	next(t, aliceBox)
	next(t, aliceBox)
	next(t, bobBox)
	next(t, bobBox)

	relay.EXPECT().Submit(gomock.Any()).DoAndReturn(func(j contract.MediaJob) error {
		j.Done(domain.MediaBlob{}, errors.ErrInvalidPayload)
		return nil
	})

	req.NoError(alice.Image(ctx, "cat.png", []byte("not an image")))

	req.Equal("invalid_payload", next(t, aliceBox).(event.Error).Code)
	requireSilent(t, bobBox)
}

func TestSessionGateway_Image_Requires_Join_And_Filename(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	relay := mocks.NewMockIMediaRelay(ctrl)
	f := newFixture(t, relay)
	alice, _ := connect(t, f.gateway, "")

	relay.EXPECT().Submit(gomock.Any()).Times(0)

	req.ErrorIs(alice.Image(ctx, "cat.png", []byte("x")), errors.ErrNotJoined)
	req.NoError(alice.Join(ctx, "lobby", "alice"))
	req.ErrorIs(alice.Image(ctx, "../..", []byte("x")), errors.ErrInvalidFilename)
}

func TestSessionGateway_Close_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t, nil)
	alice, aliceBox := connect(t, f.gateway, "")
	bob, bobBox := connect(t, f.gateway, "")
	req.NoError(alice.Join(ctx, "lobby", "alice"))
	req.NoError(bob.Join(ctx, "lobby", "bob"))
	next(t, bobBox)
	next(t, bobBox)

	// When both paths close the connection at once
	done := make(chan struct{})
	go func() {
		alice.Close(ctx)
		close(done)
	}()
	alice.Close(ctx)
	<-done

	// Then the departure is announced once and the sink is closed
	req.Equal(event.Status{Msg: "alice has left the room."}, next(t, bobBox))
	requireSilent(t, bobBox)
	req.Equal(domain.StateClosed, alice.State())
	req.ErrorIs(aliceBox.Deliver(ctx, event.Status{}), errors.ErrConnectionClosed)
	_, found := f.registry.Lookup(alice.ID())
	req.False(found)

	// And later operations fail
	req.ErrorIs(alice.Message(ctx, "ghost"), errors.ErrConnectionClosed)
	req.ErrorIs(alice.Join(ctx, "lobby", "alice"), errors.ErrConnectionClosed)
}
