package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"roomchat/domain"
	"roomchat/errors"

	"github.com/dgraph-io/badger/v4"
)

const (
	messagePrefix     = "msg:"
	sequencePrefix    = "seq:"
	probeKey          = "sys:probe"
	sequenceBandwidth = 100
)

type MessageRepository struct {
	mu        sync.Mutex
	db        *badger.DB
	log       *slog.Logger
	sequences map[string]*badger.Sequence
	now       func() time.Time
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) *MessageRepository {
	return &MessageRepository{
		db:        db,
		log:       log,
		sequences: make(map[string]*badger.Sequence),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// RoomPrefix is "msg:{len(room)}:{room}:". The length makes prefixes of
// different rooms disjoint even when a room name contains ':'.
func RoomPrefix(room string) string {
	return fmt.Sprintf("%s%d:%s:", messagePrefix, len(room), room)
}

// MessageKey pads the id to 20 digits so lexicographical order is id order.
func MessageKey(room string, id uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", RoomPrefix(room), id))
}

// Append allocates the next id of room and persists the message.
// Allocation and write happen under the same lock, so concurrent appends to a
// room land in id order.
func (m *MessageRepository) Append(_ context.Context, room, sender string, kind domain.Kind, content string) (domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seq, err := m.sequence(room)
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	next, err := seq.Next()
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}

	message := domain.Message{
		ID:        next + 1,
		Room:      room,
		Sender:    sender,
		Kind:      kind,
		Content:   content,
		CreatedAt: m.now(),
	}
	value, err := marshalMessage(message)
	if err != nil {
		return domain.Message{}, err
	}
	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set(MessageKey(room, message.ID), value)
	})
	if err != nil {
		m.log.Error("Failed to persist message", "room", room, "error", err)
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	return message, nil
}

// History returns every message of room in id order; empty, never nil error, for an unknown room.
func (m *MessageRepository) History(ctx context.Context, room string) ([]domain.Message, error) {
	return m.Since(ctx, room, 0, 0)
}

// Since returns up to limit messages with an id greater than afterID.
// A limit <= 0 means no limit.
func (m *MessageRepository) Since(_ context.Context, room string, afterID uint64, limit int) ([]domain.Message, error) {
	messages := make([]domain.Message, 0)
	if afterID == math.MaxUint64 {
		return messages, nil
	}
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(RoomPrefix(room))
		options := badger.DefaultIteratorOptions
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(MessageKey(room, afterID+1)); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(messages) == limit {
				m.log.Debug(fmt.Sprintf("Maximum of %d message reached", limit))
				break
			}
			err := it.Item().Value(func(value []byte) error {
				message, err := unmarshalMessage(value)
				if err != nil {
					return err
				}
				messages = append(messages, message)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	return messages, nil
}

// Ping checks the database still accepts writes.
func (m *MessageRepository) Ping(_ context.Context) error {
	if m.db.IsClosed() {
		return fmt.Errorf("%w: database closed", errors.ErrStoreUnavailable)
	}
	err := m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(probeKey), []byte(m.now().Format(time.RFC3339Nano)))
	})
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	return nil
}

// Close releases the leased sequence ranges. The database itself is owned by the caller.
func (m *MessageRepository) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	for room, seq := range m.sequences {
		if err := seq.Release(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("release sequence of %s: %w", room, err)
		}
		delete(m.sequences, room)
	}
	return firstErr
}

// sequence must be called with mu held.
func (m *MessageRepository) sequence(room string) (*badger.Sequence, error) {
	if seq, ok := m.sequences[room]; ok {
		return seq, nil
	}
	seq, err := m.db.GetSequence([]byte(sequencePrefix+RoomPrefix(room)), sequenceBandwidth)
	if err != nil {
		return nil, err
	}
	m.sequences[room] = seq
	return seq, nil
}
