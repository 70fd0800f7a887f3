package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"stockmarket-service/internal/application"
)

var _ application.Worker = (*PullScheduler)(nil)

// PullScheduler runs the batch pull for the configured symbol set on a fixed
// period. A failed run is logged and the next tick tries again.
type PullScheduler struct {
	Batch   *application.BatchProcessor
	Symbols []string
	Every   time.Duration
	Log     *zap.Logger
}

func (s *PullScheduler) Start(ctx context.Context) {
	log := s.Log
	if log == nil {
		log = zap.NewNop()
	}
	if s.Every <= 0 || len(s.Symbols) == 0 {
		log.Info("pull_scheduler_disabled")
		return
	}

	t := time.NewTicker(s.Every)
	defer t.Stop()

	log.Info("pull_scheduler_started", zap.Duration("every", s.Every), zap.Strings("symbols", s.Symbols))
	for {
		select {
		case <-ctx.Done():
			log.Info("pull_scheduler_stopped")
			return
		case <-t.C:
			if err := s.Batch.Run(ctx, s.Symbols); err != nil {
				log.Warn("pull_run_failed", zap.Error(err))
			}
		}
	}
}
