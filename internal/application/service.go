package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"stockmarket-service/internal/domain"
)

type StockPriceService struct {
	prices PriceRepo
	jobs   IngestJobRepo
	idem   IdempotencyStore
	now    func() time.Time
}

type Option func(*StockPriceService)

func WithNow(now func() time.Time) Option {
	return func(s *StockPriceService) { s.now = now }
}

func NewStockPriceService(prices PriceRepo, jobs IngestJobRepo, idem IdempotencyStore, opts ...Option) *StockPriceService {
	s := &StockPriceService{prices: prices, jobs: jobs, idem: idem}
	for _, opt := range opts {
		opt(s)
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.idem == nil {
		s.idem = NoopIdempotency{}
	}
	return s
}

// ListPrices returns a page of records; an empty page is a not-found condition.
func (s *StockPriceService) ListPrices(ctx context.Context, skip, limit int) ([]domain.PriceRecord, error) {
	recs, err := s.prices.List(ctx, skip, limit)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, ErrNotFound
	}
	return recs, nil
}

// SearchPrices filters by inclusive timestamp range. Unlike ListPrices an empty
// result is returned as-is.
func (s *StockPriceService) SearchPrices(ctx context.Context, start, end *time.Time) ([]domain.PriceRecord, error) {
	return s.prices.SearchByRange(ctx, start, end)
}

func (s *StockPriceService) GetPrice(ctx context.Context, id uuid.UUID) (domain.PriceRecord, error) {
	return s.prices.GetByID(ctx, id)
}

func (s *StockPriceService) PricesByTicker(ctx context.Context, ticker string) ([]domain.PriceRecord, error) {
	recs, err := s.prices.ListByTicker(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, ErrNotFound
	}
	return recs, nil
}

func (s *StockPriceService) CreatePrice(ctx context.Context, rec domain.PriceRecord) (domain.PriceRecord, error) {
	if rec.Ticker == "" {
		return domain.PriceRecord{}, domain.ErrEmptyTicker
	}
	return s.prices.Create(ctx, rec)
}

func (s *StockPriceService) UpdatePrice(ctx context.Context, id uuid.UUID, upd domain.PriceUpdate) (domain.PriceRecord, error) {
	if upd.Empty() {
		return domain.PriceRecord{}, domain.ErrNoUpdateField
	}
	if upd.Timestamp != nil && upd.Timestamp.After(s.now()) {
		return domain.PriceRecord{}, domain.ErrFutureBar
	}
	return s.prices.Update(ctx, id, upd)
}

// DeletePrice hard-deletes a record. An absent target is reported as an invalid
// argument, not a not-found condition; callers depend on the 400 status.
func (s *StockPriceService) DeletePrice(ctx context.Context, id uuid.UUID) error {
	err := s.prices.Delete(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return ErrInvalidArgument
	}
	return err
}

// EnqueueUpload persists a durable CSV load job and returns its id. When idemKey
// is non-empty and was seen before, no job is created and duplicate is true.
func (s *StockPriceService) EnqueueUpload(ctx context.Context, csvText, idemKey string) (id string, duplicate bool, err error) {
	if idemKey != "" {
		fresh, err := s.idem.TryReserve(ctx, "stocks-data:"+idemKey)
		if err != nil {
			return "", false, err
		}
		if !fresh {
			return "", true, nil
		}
	}
	id, err = s.jobs.CreateQueued(ctx, csvText)
	return id, false, err
}

func (s *StockPriceService) GetIngestJob(ctx context.Context, id string) (domain.IngestJob, error) {
	return s.jobs.GetByID(ctx, id)
}
