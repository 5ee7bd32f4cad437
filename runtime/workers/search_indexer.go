package workers

import (
	"context"
	"log/slog"

	"roomchat/domain"
)

type MessageWriter interface {
	Write(message domain.Message) error
}

// SearchIndexerWorker feeds persisted messages to the full-text index.
// Index never blocks: when the buffer is full the message is only missing from search.
type SearchIndexerWorker struct {
	log      *slog.Logger
	index    MessageWriter
	messages chan domain.Message
}

func NewSearchIndexerWorker(log *slog.Logger, index MessageWriter, bufferSize int) *SearchIndexerWorker {
	return &SearchIndexerWorker{log: log, index: index, messages: make(chan domain.Message, bufferSize)}
}

func (w *SearchIndexerWorker) Index(message domain.Message) {
	select {
	case w.messages <- message:
	default:
		w.log.Warn("Search buffer full, message not indexed", "room", message.Room, "id", message.ID)
	}
}

func (w *SearchIndexerWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping search indexer")
			return nil
		case message := <-w.messages:
			if err := w.index.Write(message); err != nil {
				w.log.Error("Failed to index message", "room", message.Room, "id", message.ID, "error", err)
			}
		}
	}
}
