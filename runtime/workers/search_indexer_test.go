package workers

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"roomchat/domain"

	"github.com/stretchr/testify/require"
)

type memoryIndex struct {
	mu       sync.Mutex
	messages []domain.Message
}

func (m *memoryIndex) Write(message domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, message)
	return nil
}

func (m *memoryIndex) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

func TestSearchIndexerWorker_Writes_Messages(t *testing.T) {
	req := require.New(t)
	index := &memoryIndex{}
	worker := NewSearchIndexerWorker(slog.Default(), index, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = worker.Run(ctx) }()

	worker.Index(domain.Message{ID: 1, Room: "lobby", Content: "hello"})
	worker.Index(domain.Message{ID: 2, Room: "lobby", Content: "world"})

	req.Eventually(func() bool { return index.len() == 2 }, time.Second, 5*time.Millisecond)
}

func TestSearchIndexerWorker_Index_Never_Blocks(t *testing.T) {
	index := &memoryIndex{}
	worker := NewSearchIndexerWorker(slog.Default(), index, 1)

	// Without a running worker the buffer fills up and extra messages are dropped
	worker.Index(domain.Message{ID: 1})
	worker.Index(domain.Message{ID: 2})

	require.Len(t, worker.messages, 1)
}
