package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

// StatsProvider supplies hub counters for the periodic report.
type StatsProvider func() map[string]any

// ReporterWorker periodically logs process health (CPU, RSS, OS status)
// together with the hub's connection counters.
type ReporterWorker struct {
	log      *slog.Logger
	interval time.Duration
	stats    StatsProvider
}

func NewReporterWorker(log *slog.Logger, interval time.Duration, stats StatsProvider) *ReporterWorker {
	return &ReporterWorker{log: log, interval: interval, stats: stats}
}

func (w *ReporterWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			rss, cpu, status, err := selfStats(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "err", err)
				continue
			}

			attrs := []any{
				"pid", os.Getpid(),
				"pid_status", status,
				"cpu_percent", cpu,
				"ram_bytes", rss,
			}
			if w.stats != nil {
				for key, value := range w.stats() {
					attrs = append(attrs, key, value)
				}
			}
			w.log.Info("Relay heartbeat", attrs...)
		}
	}
}

// selfStats retrieves memory, CPU, and OS status for the given process.
func selfStats(p *process.Process) (uint64, float64, string, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, "", err
	}

	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, "", err
	}

	status, err := p.Status()
	if err != nil {
		return 0, 0, "", err
	}
	return memInfo.RSS, cpuPercent, status, nil
}
