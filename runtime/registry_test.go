package runtime

import (
	"testing"

	"roomchat/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Join_One_Room_One_Connection(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connectionID := uuid.NewString()
	sink := NewOutbox(1)

	// Given no connection is registered
	req.Empty(registry.Rooms())

	// When a connection registers and joins a room
	req.NoError(registry.Register(connectionID, "alice", sink))
	previous, changed, err := registry.Join(connectionID, "lobby")

	// Then
	req.NoError(err)
	req.True(changed)
	req.Empty(previous)
	req.Equal(1, registry.Len())
	req.Equal(map[string]int{"lobby": 1}, registry.Rooms())
	req.ElementsMatch([]string{connectionID}, registry.MembersOf("lobby"))
	req.Len(registry.SinksOf("lobby"), 1)

	connection, ok := registry.Lookup(connectionID)
	req.True(ok)
	req.Equal("alice", connection.DisplayName)
	req.Equal("lobby", connection.Room)
}

func TestRegistry_Join_Moves_Connection_Between_Rooms(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connectionID := uuid.NewString()

	// Given a connection in room "a"
	req.NoError(registry.Register(connectionID, "alice", NewOutbox(1)))
	_, _, err := registry.Join(connectionID, "a")
	req.NoError(err)

	// When it joins room "b"
	previous, changed, err := registry.Join(connectionID, "b")

	// Then it is a member of "b" only
	// And the empty room "a" doesn't exist anymore
	req.NoError(err)
	req.True(changed)
	req.Equal("a", previous)
	req.Empty(registry.MembersOf("a"))
	req.Equal([]string{connectionID}, registry.MembersOf("b"))
	req.NotContains(registry.Rooms(), "a")
}

func TestRegistry_Join_Same_Room_Is_Not_A_Change(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connectionID := uuid.NewString()
	req.NoError(registry.Register(connectionID, "alice", NewOutbox(1)))
	_, _, err := registry.Join(connectionID, "lobby")
	req.NoError(err)

	previous, changed, err := registry.Join(connectionID, "lobby")

	req.NoError(err)
	req.False(changed)
	req.Equal("lobby", previous)
	req.Len(registry.MembersOf("lobby"), 1)
}

func TestRegistry_Join_Unknown_Connection(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	_, _, err := registry.Join("ghost", "lobby")

	req.ErrorIs(err, errors.ErrUnknownConnection)
	req.Empty(registry.Rooms())
}

func TestRegistry_Register_Empty_ID(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	err := registry.Register("", "alice", NewOutbox(1))

	req.ErrorIs(err, errors.ErrUnknownConnection)
}

func TestRegistry_Register_Twice_Keeps_Room(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connectionID := uuid.NewString()
	req.NoError(registry.Register(connectionID, "alice", NewOutbox(1)))
	_, _, err := registry.Join(connectionID, "lobby")
	req.NoError(err)

	// When the same id registers again with a new sink
	replacement := NewOutbox(1)
	req.NoError(registry.Register(connectionID, "alicia", replacement))

	// Then the room is kept and the new sink is used
	connection, ok := registry.Lookup(connectionID)
	req.True(ok)
	req.Equal("lobby", connection.Room)
	req.Equal("alicia", connection.DisplayName)
	sink, ok := registry.SinkOf(connectionID)
	req.True(ok)
	req.Same(replacement, sink)
}

func TestRegistry_Leave(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connectionID := uuid.NewString()
	req.NoError(registry.Register(connectionID, "alice", NewOutbox(1)))

	// Given a connection that never joined, leaving is a no-op
	_, left := registry.Leave(connectionID)
	req.False(left)

	// When it joins then leaves
	_, _, err := registry.Join(connectionID, "lobby")
	req.NoError(err)
	previous, left := registry.Leave(connectionID)

	// Then it stays registered without a room
	req.True(left)
	req.Equal("lobby", previous)
	req.Empty(registry.MembersOf("lobby"))
	connection, ok := registry.Lookup(connectionID)
	req.True(ok)
	req.False(connection.Joined())

	// And a second leave reports nothing
	_, left = registry.Leave(connectionID)
	req.False(left)
}

func TestRegistry_Unregister(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	alice := uuid.NewString()
	bob := uuid.NewString()
	req.NoError(registry.Register(alice, "alice", NewOutbox(1)))
	req.NoError(registry.Register(bob, "bob", NewOutbox(1)))
	_, _, err := registry.Join(alice, "lobby")
	req.NoError(err)
	_, _, err = registry.Join(bob, "lobby")
	req.NoError(err)

	// When alice disconnects
	previous, ok := registry.Unregister(alice)

	// Then only bob remains in the room
	req.True(ok)
	req.Equal("lobby", previous)
	req.Equal([]string{bob}, registry.MembersOf("lobby"))
	_, found := registry.Lookup(alice)
	req.False(found)
	_, found = registry.SinkOf(alice)
	req.False(found)

	// And unregistering again is harmless
	_, ok = registry.Unregister(alice)
	req.False(ok)
}

func TestRegistry_Rename(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connectionID := uuid.NewString()
	req.NoError(registry.Register(connectionID, "", NewOutbox(1)))

	req.NoError(registry.Rename(connectionID, "alice"))
	req.ErrorIs(registry.Rename("ghost", "bob"), errors.ErrUnknownConnection)

	connection, _ := registry.Lookup(connectionID)
	req.Equal("alice", connection.DisplayName)
}

func TestRegistry_SinksOf_Unknown_Room(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	req.Nil(registry.SinksOf("nowhere"))
	req.Empty(registry.MembersOf("nowhere"))
}
