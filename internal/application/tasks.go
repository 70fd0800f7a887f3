package application

import (
	"context"

	"go.uber.org/zap"
)

// TaskRunner schedules fire-and-forget work. The API uses it to detach batch
// ingestion from the request that triggered it; tests can substitute a
// synchronous runner.
type TaskRunner interface {
	Go(name string, fn func(ctx context.Context))
}

// GoRunner runs tasks on plain goroutines with panic recovery.
type GoRunner struct {
	Log *zap.Logger
}

func (r GoRunner) Go(name string, fn func(ctx context.Context)) {
	log := r.Log
	if log == nil {
		log = zap.NewNop()
	}
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error("task.panic", zap.String("task", name), zap.Any("r", rec))
			}
		}()
		fn(context.Background())
	}()
}

// SyncRunner executes the task inline. Test use only.
type SyncRunner struct{}

func (SyncRunner) Go(_ string, fn func(ctx context.Context)) { fn(context.Background()) }
