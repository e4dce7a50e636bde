package engine

import (
	"context"
	"time"

	"marketmaker-go/internal/market"
)

// CycleReport describes one completed cycle for status output.
type CycleReport struct {
	Cycle     int
	Remaining int
	Attempts  []market.TradeAttempt
	Snapshot  market.Snapshot
	Available bool
	Elapsed   time.Duration
}

// Run waits for the warmup, then ticks every CycleInterval until the configured cycles are
// used up. It returns nil on completion and ctx.Err() when stopped early.
func (e *Engine) Run(ctx context.Context, report func(CycleReport)) error {
	if e.cfg.Warmup > 0 {
		e.log.Info().Dur("warmup", e.cfg.Warmup).Msg("waiting for initial prices")
		timer := time.NewTimer(e.cfg.Warmup)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	interval := e.cfg.CycleInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	start := e.now()
	cycle := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		remaining, ok := e.consume()
		if !ok {
			e.log.Info().Int("cycles", cycle).Msg("run complete")
			return nil
		}
		cycle++
		attempts := e.Tick(ctx)

		if report != nil {
			snap, err := e.prices.Snapshot()
			report(CycleReport{
				Cycle:     cycle,
				Remaining: remaining,
				Attempts:  attempts,
				Snapshot:  snap,
				Available: err == nil && snap.Valid(),
				Elapsed:   e.now().Sub(start),
			})
		}
		if remaining == 0 {
			e.log.Info().Int("cycles", cycle).Msg("run complete")
			return nil
		}

		select {
		case <-ctx.Done():
			e.log.Info().Int("cycles", cycle).Int("remaining", remaining).Msg("run stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
