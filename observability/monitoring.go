package observability

import (
	"sync"
	"sync/atomic"
	"time"
)

// ProcessStats is the last sample of the broker process taken by the health worker.
type ProcessStats struct {
	PID        int32     `json:"pid"`
	Status     string    `json:"status"`
	CPUPercent float64   `json:"cpu_percent"`
	RSSBytes   uint64    `json:"rss_bytes"`
	Goroutines int       `json:"goroutines"`
	SampledAt  time.Time `json:"sampled_at"`
}

// HealthReport is served on /healthz.
type HealthReport struct {
	Ready       bool           `json:"ready"`
	StoreError  string         `json:"store_error,omitempty"`
	Connections int            `json:"connections"`
	Rooms       map[string]int `json:"rooms"`
	Process     ProcessStats   `json:"process"`
}

// Health holds the degraded-mode flag of the message store and process stats.
// It starts ready; the health worker flips it after each probe.
type Health struct {
	ready     atomic.Bool
	mu        sync.RWMutex
	lastError string
	stats     ProcessStats
}

func NewHealth() *Health {
	h := &Health{}
	h.ready.Store(true)
	return h
}

func (h *Health) Ready() bool {
	return h.ready.Load()
}

// SetStoreError marks the store degraded when err is non-nil, ready otherwise.
// Returns true when the state changed.
func (h *Health) SetStoreError(err error) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err != nil {
		h.lastError = err.Error()
	} else {
		h.lastError = ""
	}
	return h.ready.Swap(err == nil) != (err == nil)
}

func (h *Health) SetProcessStats(stats ProcessStats) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stats = stats
}

func (h *Health) Report(connections int, rooms map[string]int) HealthReport {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return HealthReport{
		Ready:       h.ready.Load(),
		StoreError:  h.lastError,
		Connections: connections,
		Rooms:       rooms,
		Process:     h.stats,
	}
}
