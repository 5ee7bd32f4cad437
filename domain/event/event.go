// Package event defines the frames exchanged with clients.
// Every frame is a tagged variant: the envelope carries a Type and the
// matching payload. Inbound frames are validated before the gateway acts on them.
package event

import (
	"time"

	"roomchat/domain"

	"github.com/samber/lo"
)

type Type string

const (
	TypeJoin    Type = "join"
	TypeMessage Type = "message"
	TypeImage   Type = "image"
	TypeLeave   Type = "leave"
	TypeStatus  Type = "status"
	TypeHistory Type = "history"
	TypeError   Type = "error"
)

// Inbound is implemented by frames a client may send.
type Inbound interface {
	InboundType() Type
}

// Outbound is implemented by frames the broker pushes to a client.
type Outbound interface {
	OutboundType() Type
}

type Join struct {
	Room     string `json:"room" validate:"required,max=64"`
	// Username may be empty on an authenticated connection, whose name comes from its token.
	Username string `json:"username,omitempty" validate:"omitempty,max=64"`
}

func (Join) InboundType() Type { return TypeJoin }

// PostMessage carries a text message. Room and Sender are informational:
// the session posts to the room it joined, under its own display name.
type PostMessage struct {
	Room    string `json:"room,omitempty" validate:"max=64"`
	Sender  string `json:"sender,omitempty" validate:"max=64"`
	Message string `json:"message"`
}

func (PostMessage) InboundType() Type { return TypeMessage }

// UploadImage carries a binary payload; File is base64 in JSON.
type UploadImage struct {
	Room     string `json:"room,omitempty" validate:"max=64"`
	Username string `json:"username,omitempty" validate:"max=64"`
	Filename string `json:"filename" validate:"max=255"`
	File     []byte `json:"file"`
}

func (UploadImage) InboundType() Type { return TypeImage }

type Leave struct{}

func (Leave) InboundType() Type { return TypeLeave }

type Status struct {
	Msg string `json:"msg"`
}

func (Status) OutboundType() Type { return TypeStatus }

type Message struct {
	ID        uint64    `json:"id"`
	Room      string    `json:"room"`
	Sender    string    `json:"sender"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

func (Message) OutboundType() Type { return TypeMessage }

type Image struct {
	Username string `json:"username"`
	URL      string `json:"url"`
}

func (Image) OutboundType() Type { return TypeImage }

// History is sent privately to a joining connection, before the join announcement.
type History struct {
	Room     string    `json:"room"`
	Messages []Message `json:"messages"`
}

func (History) OutboundType() Type { return TypeHistory }

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (Error) OutboundType() Type { return TypeError }

func FromMessage(m domain.Message) Message {
	return Message{
		ID:        m.ID,
		Room:      m.Room,
		Sender:    m.Sender,
		Kind:      m.Kind.String(),
		Message:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}

func FromHistory(room string, messages []domain.Message) History {
	return History{
		Room: room,
		Messages: lo.Map(messages, func(m domain.Message, _ int) Message {
			return FromMessage(m)
		}),
	}
}
