package alerting

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Checker runs periodic alert sweeps in the background.
type Checker struct {
	engine   *Engine
	interval time.Duration
}

// NewChecker creates a background checker. A non-positive interval defaults
// to five minutes.
func NewChecker(engine *Engine, interval time.Duration) *Checker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Checker{engine: engine, interval: interval}
}

// Run starts the sweep loop. It blocks until ctx is cancelled.
func (c *Checker) Run(ctx context.Context) {
	log := zap.L().With(zap.String("component", "alerting.checker"))
	log.Info("starting alert checker", zap.Duration("interval", c.interval))

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("alert checker stopped")
			return
		case <-ticker.C:
			if _, err := c.engine.RunSweep(ctx); err != nil {
				log.Error("alerting: sweep failed", zap.Error(err))
			}
		}
	}
}
