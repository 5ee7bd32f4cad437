package runtime

import (
	"fmt"
	"sync"

	"roomchat/contract"
	"roomchat/domain"
	"roomchat/errors"
)

type Set map[string]struct{}

type entry struct {
	displayName string
	room        string
	sink        contract.Sink
}

// Registry tracks live connections and the room each one joined.
// A single lock guards both maps so a reader never observes a connection
// present in a room set while its entry says otherwise.
type Registry struct {
	mu          sync.RWMutex
	connections map[string]*entry // map connection -> entry
	roomMembers map[string]Set    // map room to connections
}

func NewRegistry() *Registry {
	return &Registry{
		connections: make(map[string]*entry),
		roomMembers: make(map[string]Set),
	}
}

// Register creates a connection with no room.
// Registering an id twice replaces its sink and display name but keeps its room.
func (r *Registry) Register(connectionID, displayName string, sink contract.Sink) error {
	if connectionID == "" {
		return fmt.Errorf("%w: empty id", errors.ErrUnknownConnection)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.connections[connectionID]; ok {
		e.displayName = displayName
		e.sink = sink
		return nil
	}
	r.connections[connectionID] = &entry{displayName: displayName, sink: sink}
	return nil
}

// Join moves the connection into room, leaving any previous room.
// changed is false when the connection already was in room.
func (r *Registry) Join(connectionID, room string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.connections[connectionID]
	if !ok {
		return "", false, fmt.Errorf("%w: %s", errors.ErrUnknownConnection, connectionID)
	}
	previous := e.room
	if previous == room {
		return previous, false, nil
	}
	r.removeMember(previous, connectionID)
	e.room = room
	if _, ok := r.roomMembers[room]; !ok {
		r.roomMembers[room] = make(Set)
	}
	r.roomMembers[room][connectionID] = struct{}{}
	return previous, true, nil
}

// Leave clears the room of the connection. left is false if it had none.
func (r *Registry) Leave(connectionID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.connections[connectionID]
	if !ok || e.room == "" {
		return "", false
	}
	previous := e.room
	r.removeMember(previous, connectionID)
	e.room = ""
	return previous, true
}

// Unregister removes the connection entirely and returns the room it was in.
func (r *Registry) Unregister(connectionID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.connections[connectionID]
	if !ok {
		return "", false
	}
	delete(r.connections, connectionID)
	r.removeMember(e.room, connectionID)
	return e.room, true
}

func (r *Registry) Rename(connectionID, displayName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.connections[connectionID]
	if !ok {
		return fmt.Errorf("%w: %s", errors.ErrUnknownConnection, connectionID)
	}
	e.displayName = displayName
	return nil
}

func (r *Registry) Lookup(connectionID string) (domain.Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.connections[connectionID]
	if !ok {
		return domain.Connection{}, false
	}
	return domain.Connection{ID: connectionID, DisplayName: e.displayName, Room: e.room}, true
}

func (r *Registry) SinkOf(connectionID string) (contract.Sink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.connections[connectionID]
	if !ok || e.sink == nil {
		return nil, false
	}
	return e.sink, true
}

// MembersOf returns a snapshot of the connection ids currently in room.
func (r *Registry) MembersOf(room string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.roomMembers[room]
	res := make([]string, 0, len(members))
	for id := range members {
		res = append(res, id)
	}
	return res
}

// SinksOf resolves the members of room into their sinks, in one snapshot.
// Returns nil if the room has no members.
func (r *Registry) SinksOf(room string) map[string]contract.Sink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.roomMembers[room]
	if !ok {
		return nil
	}
	sinks := make(map[string]contract.Sink, len(members))
	for id := range members {
		if e, exists := r.connections[id]; exists && e.sink != nil {
			sinks[id] = e.sink
		}
	}
	return sinks
}

// Rooms reports the occupancy of every non-empty room.
func (r *Registry) Rooms() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res := make(map[string]int, len(r.roomMembers))
	for room, members := range r.roomMembers {
		res[room] = len(members)
	}
	return res
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.connections)
}

// removeMember must be called with the write lock held.
// Empty rooms are dropped so the map doesn't grow with abandoned keys.
func (r *Registry) removeMember(room, connectionID string) {
	if room == "" {
		return
	}
	if members, ok := r.roomMembers[room]; ok {
		delete(members, connectionID)
		if len(members) == 0 {
			delete(r.roomMembers, room)
		}
	}
}
