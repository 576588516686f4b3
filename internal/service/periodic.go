package service

import (
	"context"
	"time"

	"heater_controller/internal/logger"
	"heater_controller/internal/metrics"
)

// RunPeriodic calls fn once per period until ctx is cancelled. Each wake time
// is the previous wake time plus period, so a slow iteration does not shift
// the ones after it. When an iteration finishes past the next wake time the
// overrun is logged and counted; more than a full period behind, the schedule
// restarts from now instead of firing the missed iterations back to back.
func RunPeriodic(ctx context.Context, name string, period time.Duration, fn func(ctx context.Context), log *logger.Logger, m *metrics.Metrics) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	next := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		if ctx.Err() != nil {
			return
		}

		start := time.Now()
		fn(ctx)
		m.LoopIteration(name, time.Since(start))

		next = next.Add(period)
		now := time.Now()
		if behind := now.Sub(next); behind > 0 {
			log.Warnw("loop_overrun", "loop", name, "period", period, "behind", behind)
			m.LoopOverrun(name)
			if behind > period {
				next = now
			}
		}
		timer.Reset(next.Sub(now))
	}
}
