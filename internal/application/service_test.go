package application

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"stockmarket-service/internal/domain"
)

func newTestService(pr *fakePriceRepo, jr *fakeJobRepo, opts ...Option) *StockPriceService {
	return NewStockPriceService(pr, jr, NoopIdempotency{}, opts...)
}

func TestListPricesEmptyIsNotFound(t *testing.T) {
	svc := newTestService(&fakePriceRepo{}, &fakeJobRepo{})

	_, err := svc.ListPrices(context.Background(), 0, 10)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListPricesPaging(t *testing.T) {
	pr := &fakePriceRepo{recs: []domain.PriceRecord{
		{ID: uuid.New(), Ticker: "AAPL"},
		{ID: uuid.New(), Ticker: "TSLA"},
		{ID: uuid.New(), Ticker: "MSFT"},
	}}
	svc := newTestService(pr, &fakeJobRepo{})

	recs, err := svc.ListPrices(context.Background(), 1, 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, "TSLA", recs[0].Ticker)
}

func TestSearchPricesEmptyIsNotAnError(t *testing.T) {
	svc := newTestService(&fakePriceRepo{}, &fakeJobRepo{})

	recs, err := svc.SearchPrices(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Empty(t, recs)
}

func TestPricesByTickerEmptyIsNotFound(t *testing.T) {
	pr := &fakePriceRepo{recs: []domain.PriceRecord{{ID: uuid.New(), Ticker: "AAPL"}}}
	svc := newTestService(pr, &fakeJobRepo{})

	_, err := svc.PricesByTicker(context.Background(), "TSLA")
	require.ErrorIs(t, err, ErrNotFound)

	recs, err := svc.PricesByTicker(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Len(t, recs, 1)
}

func TestCreatePriceRejectsEmptyTicker(t *testing.T) {
	svc := newTestService(&fakePriceRepo{}, &fakeJobRepo{})

	_, err := svc.CreatePrice(context.Background(), domain.PriceRecord{})
	require.ErrorIs(t, err, domain.ErrEmptyTicker)
}

func TestUpdatePriceValidation(t *testing.T) {
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	pr := &fakePriceRepo{recs: []domain.PriceRecord{{ID: uuid.New(), Ticker: "AAPL"}}}
	svc := newTestService(pr, &fakeJobRepo{}, WithNow(func() time.Time { return now }))

	_, err := svc.UpdatePrice(context.Background(), pr.recs[0].ID, domain.PriceUpdate{})
	require.ErrorIs(t, err, domain.ErrNoUpdateField)

	future := now.Add(time.Hour)
	_, err = svc.UpdatePrice(context.Background(), pr.recs[0].ID, domain.PriceUpdate{Timestamp: &future})
	require.ErrorIs(t, err, domain.ErrFutureBar)

	closeP := 123.45
	rec, err := svc.UpdatePrice(context.Background(), pr.recs[0].ID, domain.PriceUpdate{Close: &closeP})
	require.NoError(t, err)
	require.Equal(t, 123.45, rec.Close)
}

func TestUpdatePriceMissingRecord(t *testing.T) {
	closeP := 1.0
	svc := newTestService(&fakePriceRepo{}, &fakeJobRepo{})

	_, err := svc.UpdatePrice(context.Background(), uuid.New(), domain.PriceUpdate{Close: &closeP})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeletePriceMissingIsInvalidArgument(t *testing.T) {
	svc := newTestService(&fakePriceRepo{}, &fakeJobRepo{})

	err := svc.DeletePrice(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestDeletePricePassesThroughRepoErrors(t *testing.T) {
	svc := newTestService(&fakePriceRepo{err: ErrRepo}, &fakeJobRepo{})

	err := svc.DeletePrice(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrRepo)
}

func TestEnqueueUpload(t *testing.T) {
	jr := &fakeJobRepo{}
	svc := newTestService(&fakePriceRepo{}, jr)

	id, dup, err := svc.EnqueueUpload(context.Background(), "ticker,timestamp,close\n", "")
	require.NoError(t, err)
	require.False(t, dup)
	require.NotEmpty(t, id)
	require.Equal(t, domain.IngestJobStatusQueued, jr.jobs[id].Status)
}

func TestEnqueueUploadIdempotencyKey(t *testing.T) {
	jr := &fakeJobRepo{}
	svc := NewStockPriceService(&fakePriceRepo{}, jr, &fakeIdem{})

	id, dup, err := svc.EnqueueUpload(context.Background(), "payload", "k1")
	require.NoError(t, err)
	require.False(t, dup)
	require.NotEmpty(t, id)

	id, dup, err = svc.EnqueueUpload(context.Background(), "payload", "k1")
	require.NoError(t, err)
	require.True(t, dup)
	require.Empty(t, id)
	require.Equal(t, 1, jr.seq)
}
