// Package domain contains core concepts of the chat system.
// This file defines Message and its kinds.
// Messages are immutable once the store assigned their ID.
package domain

import (
	"time"
)

type Kind uint8

const (
	KindText Kind = iota + 1
	KindImage
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindImage:
		return "image"
	default:
		return "unknown"
	}
}

// ParseKind is the inverse of Kind.String, used by the SQL backends.
func ParseKind(s string) Kind {
	switch s {
	case "text":
		return KindText
	case "image":
		return KindImage
	default:
		return 0
	}
}

// Message represents a persisted chat event.
// ID is monotonic within Room.
type Message struct {
	ID        uint64
	Room      string
	Sender    string
	Kind      Kind
	Content   string
	CreatedAt time.Time
}
