package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"stockmarket-service/internal/domain"
)

var ErrRepo = errors.New("repo error")

type fakePriceRepo struct {
	mu       sync.Mutex
	recs     []domain.PriceRecord
	err      error
	ignored  [][]domain.PriceRecord
	replaced [][]domain.PriceRecord
}

func (f *fakePriceRepo) List(_ context.Context, skip, limit int) ([]domain.PriceRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	if skip >= len(f.recs) {
		return nil, nil
	}
	end := skip + limit
	if end > len(f.recs) {
		end = len(f.recs)
	}
	return f.recs[skip:end], nil
}

func (f *fakePriceRepo) SearchByRange(_ context.Context, start, end *time.Time) ([]domain.PriceRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.PriceRecord
	for _, rec := range f.recs {
		if start != nil && rec.Timestamp.Before(*start) {
			continue
		}
		if end != nil && rec.Timestamp.After(*end) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (f *fakePriceRepo) ListByTicker(_ context.Context, ticker string) ([]domain.PriceRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.PriceRecord
	for _, rec := range f.recs {
		if rec.Ticker == ticker {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakePriceRepo) GetByID(_ context.Context, id uuid.UUID) (domain.PriceRecord, error) {
	if f.err != nil {
		return domain.PriceRecord{}, f.err
	}
	for _, rec := range f.recs {
		if rec.ID == id {
			return rec, nil
		}
	}
	return domain.PriceRecord{}, ErrNotFound
}

func (f *fakePriceRepo) Create(_ context.Context, rec domain.PriceRecord) (domain.PriceRecord, error) {
	if f.err != nil {
		return domain.PriceRecord{}, f.err
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	f.recs = append(f.recs, rec)
	return rec, nil
}

func (f *fakePriceRepo) Update(_ context.Context, id uuid.UUID, upd domain.PriceUpdate) (domain.PriceRecord, error) {
	if f.err != nil {
		return domain.PriceRecord{}, f.err
	}
	for i, rec := range f.recs {
		if rec.ID != id {
			continue
		}
		if upd.Ticker != nil {
			rec.Ticker = *upd.Ticker
		}
		if upd.Close != nil {
			rec.Close = *upd.Close
		}
		f.recs[i] = rec
		return rec, nil
	}
	return domain.PriceRecord{}, ErrNotFound
}

func (f *fakePriceRepo) Delete(_ context.Context, id uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	for i, rec := range f.recs {
		if rec.ID == id {
			f.recs = append(f.recs[:i], f.recs[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (f *fakePriceRepo) UpsertIgnore(_ context.Context, recs []domain.PriceRecord) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ignored = append(f.ignored, recs)
	return nil
}

func (f *fakePriceRepo) UpsertReplace(_ context.Context, recs []domain.PriceRecord) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replaced = append(f.replaced, recs)
	return nil
}

type fakeJobRepo struct {
	jobs map[string]domain.IngestJob
	seq  int
	err  error
}

func (f *fakeJobRepo) CreateQueued(_ context.Context, payload string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.jobs == nil {
		f.jobs = map[string]domain.IngestJob{}
	}
	f.seq++
	id := "job-1"
	f.jobs[id] = domain.IngestJob{ID: id, Payload: payload, Status: domain.IngestJobStatusQueued}
	return id, nil
}

func (f *fakeJobRepo) GetByID(_ context.Context, id string) (domain.IngestJob, error) {
	if f.err != nil {
		return domain.IngestJob{}, f.err
	}
	j, ok := f.jobs[id]
	if !ok {
		return domain.IngestJob{}, ErrNotFound
	}
	return j, nil
}

func (f *fakeJobRepo) ClaimDue(context.Context, int) ([]domain.IngestJob, error) { return nil, nil }
func (f *fakeJobRepo) MarkDone(context.Context, string) error                    { return nil }
func (f *fakeJobRepo) MarkFailed(context.Context, string, string) error          { return nil }
func (f *fakeJobRepo) Requeue(context.Context, string, string, time.Time) error  { return nil }

type fakeProvider struct {
	mu      sync.Mutex
	fetched []string
	err     error
	bars    map[string][]domain.PriceRecord
}

func (f *fakeProvider) Fetch(_ context.Context, symbol, _, _ string) ([]domain.PriceRecord, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, symbol)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if bars, ok := f.bars[symbol]; ok {
		return bars, nil
	}
	return []domain.PriceRecord{{
		Ticker:    symbol,
		Timestamp: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Open:      1, High: 2, Low: 0.5, Close: 1.5, Volume: 10,
	}}, nil
}

func (f *fakeProvider) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fetched)
}

type fakeIdem struct {
	seen map[string]bool
	err  error
}

func (f *fakeIdem) TryReserve(_ context.Context, key string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	return true, nil
}
