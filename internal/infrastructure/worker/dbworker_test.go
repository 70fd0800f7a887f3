package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stockmarket-service/internal/application"
	"stockmarket-service/internal/domain"
)

// stubPrices only implements the upsert the upload path uses.
type stubPrices struct {
	application.PriceRepo
	mu    sync.Mutex
	calls int
	err   error
}

func (s *stubPrices) UpsertReplace(context.Context, []domain.PriceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.err
}

type stubJobRepo struct {
	mu       sync.Mutex
	due      []domain.IngestJob
	done     []string
	failed   map[string]string
	requeued []time.Time
}

func (s *stubJobRepo) CreateQueued(context.Context, string) (string, error) { return "", nil }
func (s *stubJobRepo) GetByID(context.Context, string) (domain.IngestJob, error) {
	return domain.IngestJob{}, application.ErrNotFound
}

func (s *stubJobRepo) ClaimDue(_ context.Context, limit int) ([]domain.IngestJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.due) == 0 {
		return nil, nil
	}
	n := len(s.due)
	if limit > 0 && n > limit {
		n = limit
	}
	out := s.due[:n]
	s.due = s.due[n:]
	return out, nil
}

func (s *stubJobRepo) MarkDone(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = append(s.done, id)
	return nil
}

func (s *stubJobRepo) MarkFailed(_ context.Context, id, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failed == nil {
		s.failed = map[string]string{}
	}
	s.failed[id] = msg
	return nil
}

func (s *stubJobRepo) Requeue(_ context.Context, id, _ string, next time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requeued = append(s.requeued, next)
	return nil
}

func (s *stubJobRepo) doneIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.done...)
}

const goodCSV = "ticker,timestamp,close\nAAPL,2025-06-02,203.13\n"

func newWorker(jobs *stubJobRepo, prices *stubPrices) *DbWorker {
	return &DbWorker{
		Jobs:       jobs,
		Processor:  &application.UploadProcessor{Prices: prices},
		MaxRetries: 3,
		RetryDelay: 60 * time.Second,
		Log:        zap.NewNop(),
		now:        func() time.Time { return time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC) },
	}
}

func TestProcessOneSuccess(t *testing.T) {
	jobs := &stubJobRepo{}
	prices := &stubPrices{}
	w := newWorker(jobs, prices)

	w.processOne(context.Background(), zap.NewNop(), "j1", goodCSV, 0)

	require.Equal(t, []string{"j1"}, jobs.doneIDs())
	require.Equal(t, 1, prices.calls)
	require.Empty(t, jobs.requeued)
}

func TestProcessOneRequeuesWithFixedBackoff(t *testing.T) {
	jobs := &stubJobRepo{}
	w := newWorker(jobs, &stubPrices{err: application.ErrConflict})

	w.processOne(context.Background(), zap.NewNop(), "j1", goodCSV, 0)

	require.Empty(t, jobs.doneIDs())
	require.Empty(t, jobs.failed)
	require.Len(t, jobs.requeued, 1)
	require.Equal(t, w.now().Add(60*time.Second), jobs.requeued[0])
}

func TestProcessOneFailsAfterRetriesExhausted(t *testing.T) {
	jobs := &stubJobRepo{}
	w := newWorker(jobs, &stubPrices{err: application.ErrConflict})

	// attempts counts prior failures; the fourth run is the last
	w.processOne(context.Background(), zap.NewNop(), "j1", goodCSV, 2)
	require.Len(t, jobs.requeued, 1)
	require.Empty(t, jobs.failed)

	w.processOne(context.Background(), zap.NewNop(), "j1", goodCSV, 3)
	require.Len(t, jobs.requeued, 1)
	require.Contains(t, jobs.failed, "j1")
}

func TestProcessOneBadPayloadStillRetries(t *testing.T) {
	jobs := &stubJobRepo{}
	w := newWorker(jobs, &stubPrices{})

	w.processOne(context.Background(), zap.NewNop(), "j1", "a,b\n\"unterminated", 0)
	require.Len(t, jobs.requeued, 1)
}

func TestStartDrainsQueue(t *testing.T) {
	jobs := &stubJobRepo{due: []domain.IngestJob{
		{ID: "j1", Payload: goodCSV},
		{ID: "j2", Payload: goodCSV},
	}}
	prices := &stubPrices{}
	w := newWorker(jobs, prices)
	w.PollEvery = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	require.Eventually(t, func() bool {
		return len(jobs.doneIDs()) == 2
	}, time.Second, 5*time.Millisecond)
	cancel()
}

func TestPullSchedulerDisabledWithoutSymbols(t *testing.T) {
	s := &PullScheduler{Every: time.Millisecond, Log: zap.NewNop()}

	done := make(chan struct{})
	go func() {
		s.Start(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not exit when disabled")
	}
}
