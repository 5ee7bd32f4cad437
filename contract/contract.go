//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"io"
	"reflect"

	"roomchat/domain"
	"roomchat/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Sink is the outbound side of one connection.
// Deliver must not block longer than ctx allows.
type Sink interface {
	Deliver(ctx context.Context, frame event.Outbound) error
	Close()
}

type IMessageStore interface {
	Append(ctx context.Context, room, sender string, kind domain.Kind, content string) (domain.Message, error)
	History(ctx context.Context, room string) ([]domain.Message, error)
	Since(ctx context.Context, room string, afterID uint64, limit int) ([]domain.Message, error)
	Ping(ctx context.Context) error
}

type IRegistry interface {
	Register(connectionID, displayName string, sink Sink) error
	Join(connectionID, room string) (previous string, changed bool, err error)
	Leave(connectionID string) (previous string, left bool)
	Unregister(connectionID string) (previous string, ok bool)
	Rename(connectionID, displayName string) error
	Lookup(connectionID string) (domain.Connection, bool)
	MembersOf(room string) []string
	SinkOf(connectionID string) (Sink, bool)
	SinksOf(room string) map[string]Sink
	Rooms() map[string]int
}

type IBroadcaster interface {
	Broadcast(ctx context.Context, room string, frame event.Outbound, exclude string) int
	Send(ctx context.Context, connectionID string, frame event.Outbound) error
}

// MediaJob is one asynchronous upload. Done is invoked from a relay worker.
type MediaJob struct {
	Room     string
	Sender   string
	Filename string
	Data     []byte
	Done     func(blob domain.MediaBlob, err error)
}

type IMediaRelay interface {
	Store(ctx context.Context, room, sender, filename string, data []byte) (domain.MediaBlob, error)
	Submit(job MediaJob) error
	Fetch(ctx context.Context, id string) (domain.MediaBlob, io.ReadCloser, error)
}

type IMediaRepository interface {
	Save(blob domain.MediaBlob) error
	Get(id string) (domain.MediaBlob, error)
}

// BlobStorage holds media bytes.
type BlobStorage interface {
	Write(name string, data []byte) error
	Open(name string) (io.ReadCloser, error)
	Remove(name string) error
}

// Indexer receives every persisted message; used by full-text search.
type Indexer interface {
	Index(message domain.Message)
}

// Moderator rewrites message content before it is persisted.
type Moderator interface {
	Censor(content string) (string, []string)
}

// IdentityResolver is the auth collaborator: token in, display name out.
type IdentityResolver interface {
	Resolve(token string) (string, error)
}
