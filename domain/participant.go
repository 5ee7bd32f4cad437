// Package domain contains core concepts of the chat system.
// This file defines Connection state as seen by the registry and the gateway.
// No runtime, network, or UI logic should be added here.
package domain

type State int

const (
	StateConnected State = iota
	StateJoined
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateJoined:
		return "joined"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Connection is a snapshot of a registry entry. Room is empty while unjoined.
type Connection struct {
	ID          string
	DisplayName string
	Room        string
}

func (c Connection) Joined() bool {
	return c.Room != ""
}
