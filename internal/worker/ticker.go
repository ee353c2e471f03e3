package worker

import (
	"context"
	"log/slog"
	"time"
)

// Every runs job now and then on each tick until ctx is done.
func Every(ctx context.Context, interval time.Duration, name string, log *slog.Logger, job func(ctx context.Context) (int64, error)) {
	run := func() {
		n, err := job(ctx)
		if err != nil {
			log.Error("periodic_job_failed", "job", name, "error", err)
			return
		}
		if n > 0 {
			log.Info("periodic_job_done", "job", name, "affected", n)
		}
	}

	run()
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			run()
		}
	}
}
