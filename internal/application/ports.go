package application

import (
	"context"
	"time"

	"github.com/google/uuid"

	"stockmarket-service/internal/domain"
)

type PriceRepo interface {
	List(ctx context.Context, skip, limit int) ([]domain.PriceRecord, error)
	SearchByRange(ctx context.Context, start, end *time.Time) ([]domain.PriceRecord, error)
	ListByTicker(ctx context.Context, ticker string) ([]domain.PriceRecord, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.PriceRecord, error)
	Create(ctx context.Context, rec domain.PriceRecord) (domain.PriceRecord, error)
	Update(ctx context.Context, id uuid.UUID, upd domain.PriceUpdate) (domain.PriceRecord, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// UpsertIgnore inserts records keeping existing rows on (ticker, timestamp)
	// conflict. Used by the pull path: first write wins.
	UpsertIgnore(ctx context.Context, recs []domain.PriceRecord) error
	// UpsertReplace inserts records overwriting OHLCV fields on conflict, all in
	// one statement and transaction. Used by the CSV upload path: last write wins.
	UpsertReplace(ctx context.Context, recs []domain.PriceRecord) error
}

type IngestJobRepo interface {
	CreateQueued(ctx context.Context, payload string) (string, error)
	GetByID(ctx context.Context, id string) (domain.IngestJob, error)
	// ClaimDue atomically moves up to limit due queued jobs to processing and
	// returns them. Safe to call from concurrent workers.
	ClaimDue(ctx context.Context, limit int) ([]domain.IngestJob, error)
	MarkDone(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, errMsg string) error
	// Requeue schedules another attempt after the backoff and bumps the counter.
	Requeue(ctx context.Context, id string, errMsg string, nextAttempt time.Time) error
}

// MarketDataProvider fetches the historical bar series for one symbol.
type MarketDataProvider interface {
	Fetch(ctx context.Context, symbol, interval, startDate string) ([]domain.PriceRecord, error)
}
