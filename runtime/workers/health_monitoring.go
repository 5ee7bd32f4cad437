package workers

import (
	"context"
	"log/slog"
	"os"
	goruntime "runtime"
	"time"

	"roomchat/contract"
	"roomchat/observability"

	"github.com/shirou/gopsutil/process"
)

// HealthMonitoringWorker probes the message store and samples the broker
// process every interval. A failing probe puts the broker in degraded mode.
type HealthMonitoringWorker struct {
	log      *slog.Logger
	store    contract.IMessageStore
	health   *observability.Health
	interval time.Duration
}

func NewHealthMonitoringWorker(
	log *slog.Logger,
	store contract.IMessageStore,
	health *observability.Health,
	interval time.Duration,
) *HealthMonitoringWorker {
	return &HealthMonitoringWorker{log: log, store: store, health: health, interval: interval}
}

func (w *HealthMonitoringWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	w.Probe(ctx, p)
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping health monitoring")
			return nil
		case <-ticker.C:
			w.Probe(ctx, p)
		}
	}
}

// Probe runs one store check and one process sample. p may be nil.
func (w *HealthMonitoringWorker) Probe(ctx context.Context, p *process.Process) {
	probeCtx, cancel := context.WithTimeout(ctx, w.interval)
	err := w.store.Ping(probeCtx)
	cancel()
	if changed := w.health.SetStoreError(err); changed {
		if err != nil {
			w.log.Error("Message store unavailable, entering degraded mode", "error", err)
		} else {
			w.log.Info("Message store recovered")
		}
	}

	if p == nil {
		return
	}
	stats, err := selfStats(p)
	if err != nil {
		w.log.Debug("Failed to collect self stats", "error", err)
		return
	}
	w.health.SetProcessStats(stats)
}

func selfStats(p *process.Process) (observability.ProcessStats, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return observability.ProcessStats{}, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return observability.ProcessStats{}, err
	}
	status, err := p.Status()
	if err != nil {
		return observability.ProcessStats{}, err
	}
	return observability.ProcessStats{
		PID:        p.Pid,
		Status:     status,
		CPUPercent: cpuPercent,
		RSSBytes:   memInfo.RSS,
		Goroutines: goruntime.NumGoroutine(),
		SampledAt:  time.Now().UTC(),
	}, nil
}
