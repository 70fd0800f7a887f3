package provider

import (
	"context"
	"time"

	"stockmarket-service/internal/application"
	"stockmarket-service/internal/domain"
)

// Fake returns one deterministic bar per symbol; used when no API key is set.
type Fake struct {
	Close float64
}

var _ application.MarketDataProvider = (*Fake)(nil)

func NewFake(closePrice float64) *Fake { return &Fake{Close: closePrice} }

func (f *Fake) Fetch(_ context.Context, symbol, _, _ string) ([]domain.PriceRecord, error) {
	day := time.Now().UTC().Truncate(24 * time.Hour)
	return []domain.PriceRecord{{
		Ticker:    symbol,
		Timestamp: day,
		Open:      f.Close,
		High:      f.Close,
		Low:       f.Close,
		Close:     f.Close,
		Volume:    0,
	}}, nil
}
