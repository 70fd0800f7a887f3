package application

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BatchProcessor pulls bar series for a set of symbols from the market-data
// provider and loads them with first-write-wins semantics.
type BatchProcessor struct {
	Provider  MarketDataProvider
	Prices    PriceRepo
	Interval  string
	StartDate string
	Log       *zap.Logger
}

// Run fetches every distinct symbol concurrently, one goroutine per symbol,
// and upserts each symbol's records in its own transaction as soon as its
// fetch completes. If any symbol fails the whole call fails; upserts committed
// before the failure stay committed.
func (b *BatchProcessor) Run(ctx context.Context, symbols []string) error {
	log := b.Log
	if log == nil {
		log = zap.NewNop()
	}

	distinct := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		distinct[s] = struct{}{}
	}

	g, ctx := errgroup.WithContext(ctx)
	for sym := range distinct {
		sym := sym
		g.Go(func() error {
			log.Info("batch.fetch_start", zap.String("symbol", sym))
			recs, err := b.Provider.Fetch(ctx, sym, b.Interval, b.StartDate)
			if err != nil {
				log.Warn("batch.fetch_failed", zap.String("symbol", sym), zap.Error(err))
				return err
			}
			if err := b.Prices.UpsertIgnore(ctx, recs); err != nil {
				log.Warn("batch.upsert_failed", zap.String("symbol", sym), zap.Error(err))
				return err
			}
			log.Info("batch.upserted", zap.String("symbol", sym), zap.Int("rows", len(recs)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("batch.done", zap.Int("symbols", len(distinct)))
	return nil
}
