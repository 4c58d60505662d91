package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"

	"linkgraph/observability"
)

// StatsWorker periodically reports the server's own resource usage
// (RSS, CPU) to the log and the process-memory gauge.
type StatsWorker struct {
	log      *slog.Logger
	interval time.Duration
}

func NewStatsWorker(log *slog.Logger, interval time.Duration) *StatsWorker {
	return &StatsWorker{log: log, interval: interval}
}

func (w *StatsWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			memInfo, err := p.MemoryInfo()
			if err != nil {
				w.log.Warn("Failed to collect memory stats", "error", err)
				continue
			}
			cpuPercent, err := p.CPUPercent()
			if err != nil {
				w.log.Warn("Failed to collect cpu stats", "error", err)
				continue
			}
			observability.ProcessResidentMemory.Set(float64(memInfo.RSS))
			w.log.Debug("Process stats",
				"rss_bytes", memInfo.RSS,
				"cpu_percent", cpuPercent)
		}
	}
}
