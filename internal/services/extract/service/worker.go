package service

import (
	"context"
	"time"

	perr "signalgate/internal/platform/errors"
	"signalgate/internal/platform/logger"
)

// Run polls every interval until ctx is done; interval <= 0 uses the configured one
func (p *Pipeline) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = p.cfg.Interval
	}
	log := logger.Named("extract-worker")
	log.Info().Dur("interval", interval).Int("batch", p.cfg.Batch).Str("owner", p.cfg.Owner).Msg("extract worker started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		// drain a backlog without waiting a full tick between full batches
		for {
			rep, err := p.RunBatch(ctx, p.cfg.Batch)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if perr.Retryable(err) {
					log.Warn().Err(err).Msg("extract claim contended, retrying next tick")
				} else {
					log.Error().Err(err).Msg("extract batch failed")
				}
				break
			}
			if rep.Selected < p.cfg.Batch || ctx.Err() != nil {
				break
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
