package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"stockmarket-service/internal/application"
)

var _ application.Worker = (*DbWorker)(nil)

// DbWorker drains the durable CSV ingest queue. A failing job is requeued with
// a fixed backoff until its retries are exhausted, then marked failed.
type DbWorker struct {
	Jobs      application.IngestJobRepo
	Processor *application.UploadProcessor

	PollEvery  time.Duration
	BatchLimit int
	MaxRetries int
	RetryDelay time.Duration
	Log        *zap.Logger

	now func() time.Time
}

func (w *DbWorker) Start(ctx context.Context) {
	log := w.Log
	if log == nil {
		log = zap.NewNop()
	}
	if w.PollEvery <= 0 {
		w.PollEvery = 250 * time.Millisecond
	}
	if w.BatchLimit <= 0 {
		w.BatchLimit = 10
	}
	if w.MaxRetries <= 0 {
		w.MaxRetries = 3
	}
	if w.RetryDelay <= 0 {
		w.RetryDelay = 60 * time.Second
	}
	if w.now == nil {
		w.now = time.Now
	}

	t := time.NewTicker(w.PollEvery)
	defer t.Stop()

	log.Info("ingest_worker_started", zap.Duration("poll_every", w.PollEvery))
	for {
		select {
		case <-ctx.Done():
			log.Info("ingest_worker_stopped")
			return
		case <-t.C:
			w.tick(ctx, log)
		}
	}
}

func (w *DbWorker) tick(ctx context.Context, log *zap.Logger) {
	jobs, err := w.Jobs.ClaimDue(ctx, w.BatchLimit)
	if err != nil {
		log.Warn("claim_failed", zap.Error(err))
		return
	}
	for _, j := range jobs {
		w.processOne(ctx, log, j.ID, j.Payload, j.Attempts)
	}
}

func (w *DbWorker) processOne(ctx context.Context, log *zap.Logger, id, payload string, attempts int) {
	err := w.Processor.Process(ctx, payload)
	if err == nil {
		_ = w.Jobs.MarkDone(ctx, id)
		log.Info("ingest_done", zap.String("id", id))
		return
	}

	msg := err.Error()
	if attempts >= w.MaxRetries {
		_ = w.Jobs.MarkFailed(ctx, id, msg)
		log.Warn("ingest_failed_permanently",
			zap.String("id", id),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		return
	}
	_ = w.Jobs.Requeue(ctx, id, msg, w.now().Add(w.RetryDelay))
	log.Warn("ingest_retry_scheduled",
		zap.String("id", id),
		zap.Int("attempts", attempts),
		zap.Duration("backoff", w.RetryDelay),
		zap.Error(err),
	)
}
