package httpserver

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"stockmarket-service/internal/application"
	"stockmarket-service/internal/domain"
)

var _ application.PriceRepo = (*fakePriceRepo)(nil)
var _ application.IngestJobRepo = (*fakeIngestJobRepo)(nil)
var _ application.MarketDataProvider = (*fakeProvider)(nil)

// fakePriceRepo keeps records in insertion order, mirroring the paging the SQL
// repo produces.
type fakePriceRepo struct {
	mu   sync.Mutex
	recs []domain.PriceRecord
}

func (f *fakePriceRepo) List(_ context.Context, skip, limit int) ([]domain.PriceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if skip >= len(f.recs) {
		return nil, nil
	}
	end := skip + limit
	if end > len(f.recs) {
		end = len(f.recs)
	}
	return append([]domain.PriceRecord(nil), f.recs[skip:end]...), nil
}

func (f *fakePriceRepo) SearchByRange(_ context.Context, start, end *time.Time) ([]domain.PriceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
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
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (f *fakePriceRepo) ListByTicker(_ context.Context, ticker string) ([]domain.PriceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.PriceRecord
	for _, rec := range f.recs {
		if rec.Ticker == ticker {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakePriceRepo) GetByID(_ context.Context, id uuid.UUID) (domain.PriceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range f.recs {
		if rec.ID == id {
			return rec, nil
		}
	}
	return domain.PriceRecord{}, application.ErrNotFound
}

func (f *fakePriceRepo) Create(_ context.Context, rec domain.PriceRecord) (domain.PriceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	rec.Created = time.Now()
	f.recs = append(f.recs, rec)
	return rec, nil
}

func (f *fakePriceRepo) Update(_ context.Context, id uuid.UUID, upd domain.PriceUpdate) (domain.PriceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, rec := range f.recs {
		if rec.ID != id {
			continue
		}
		if upd.Ticker != nil {
			rec.Ticker = *upd.Ticker
		}
		if upd.Timestamp != nil {
			rec.Timestamp = *upd.Timestamp
		}
		if upd.Open != nil {
			rec.Open = *upd.Open
		}
		if upd.High != nil {
			rec.High = *upd.High
		}
		if upd.Low != nil {
			rec.Low = *upd.Low
		}
		if upd.Close != nil {
			rec.Close = *upd.Close
		}
		if upd.Volume != nil {
			rec.Volume = *upd.Volume
		}
		now := time.Now()
		rec.Updated = &now
		f.recs[i] = rec
		return rec, nil
	}
	return domain.PriceRecord{}, application.ErrNotFound
}

func (f *fakePriceRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, rec := range f.recs {
		if rec.ID == id {
			f.recs = append(f.recs[:i], f.recs[i+1:]...)
			return nil
		}
	}
	return application.ErrNotFound
}

func (f *fakePriceRepo) UpsertIgnore(_ context.Context, recs []domain.PriceRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range recs {
		if f.find(rec.Ticker, rec.Timestamp) >= 0 {
			continue
		}
		rec.ID = uuid.New()
		rec.Created = time.Now()
		f.recs = append(f.recs, rec)
	}
	return nil
}

func (f *fakePriceRepo) UpsertReplace(_ context.Context, recs []domain.PriceRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range recs {
		if i := f.find(rec.Ticker, rec.Timestamp); i >= 0 {
			existing := f.recs[i]
			existing.Open, existing.High, existing.Low, existing.Close, existing.Volume =
				rec.Open, rec.High, rec.Low, rec.Close, rec.Volume
			now := time.Now()
			existing.Updated = &now
			f.recs[i] = existing
			continue
		}
		rec.ID = uuid.New()
		rec.Created = time.Now()
		f.recs = append(f.recs, rec)
	}
	return nil
}

func (f *fakePriceRepo) find(ticker string, ts time.Time) int {
	for i, rec := range f.recs {
		if rec.Ticker == ticker && rec.Timestamp.Equal(ts) {
			return i
		}
	}
	return -1
}

type fakeIngestJobRepo struct {
	mu   sync.Mutex
	seq  int
	jobs map[string]domain.IngestJob
}

func (f *fakeIngestJobRepo) CreateQueued(_ context.Context, payload string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.jobs == nil {
		f.jobs = map[string]domain.IngestJob{}
	}
	f.seq++
	id := uuid.NewString()
	f.jobs[id] = domain.IngestJob{
		ID: id, Payload: payload, Status: domain.IngestJobStatusQueued, SubmittedAt: time.Now(),
	}
	return id, nil
}

func (f *fakeIngestJobRepo) GetByID(_ context.Context, id string) (domain.IngestJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[id]
	if !ok {
		return domain.IngestJob{}, application.ErrNotFound
	}
	return j, nil
}

func (f *fakeIngestJobRepo) ClaimDue(_ context.Context, limit int) ([]domain.IngestJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.IngestJob
	for id, j := range f.jobs {
		if j.Status != domain.IngestJobStatusQueued {
			continue
		}
		j.Status = domain.IngestJobStatusProcessing
		f.jobs[id] = j
		out = append(out, j)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *fakeIngestJobRepo) MarkDone(_ context.Context, id string) error {
	return f.setStatus(id, domain.IngestJobStatusDone, nil)
}

func (f *fakeIngestJobRepo) MarkFailed(_ context.Context, id string, errMsg string) error {
	return f.setStatus(id, domain.IngestJobStatusFailed, &errMsg)
}

func (f *fakeIngestJobRepo) Requeue(_ context.Context, id string, errMsg string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[id]
	if !ok {
		return application.ErrNotFound
	}
	j.Status = domain.IngestJobStatusQueued
	j.Attempts++
	j.Error = &errMsg
	f.jobs[id] = j
	return nil
}

func (f *fakeIngestJobRepo) setStatus(id string, st domain.IngestJobStatus, errMsg *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[id]
	if !ok {
		return application.ErrNotFound
	}
	j.Status = st
	j.Error = errMsg
	f.jobs[id] = j
	return nil
}

type fakeProvider struct {
	mu      sync.Mutex
	fetched []string
}

func (f *fakeProvider) Fetch(_ context.Context, symbol, _, _ string) ([]domain.PriceRecord, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, symbol)
	f.mu.Unlock()
	return []domain.PriceRecord{{
		Ticker:    symbol,
		Timestamp: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Open:      1, High: 1, Low: 1, Close: 1, Volume: 100,
	}}, nil
}

func (f *fakeProvider) fetchedSymbols() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.fetched...)
}

// NewInMemoryHandler builds a fully wired handler on in-memory collaborators.
func NewInMemoryHandler(token string, symbols []string) (http.Handler, *fakePriceRepo, *fakeIngestJobRepo, *fakeProvider) {
	pr := &fakePriceRepo{}
	jr := &fakeIngestJobRepo{}
	fp := &fakeProvider{}
	svc := application.NewStockPriceService(pr, jr, application.NoopIdempotency{})
	batch := &application.BatchProcessor{Provider: fp, Prices: pr, Interval: "1day"}
	srv := NewServer(svc, batch, application.SyncRunner{}, symbols, token)
	return NewRouter(srv), pr, jr, fp
}
