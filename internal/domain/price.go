package domain

import (
	"time"

	"github.com/google/uuid"
)

// PriceRecord is one OHLCV bar for a ticker at a point in time.
// The pair (Ticker, Timestamp) is the natural key and is unique in storage.
type PriceRecord struct {
	ID        uuid.UUID
	Ticker    string
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Created   time.Time
	Updated   *time.Time
	Deleted   *time.Time
}

// PriceUpdate carries a partial update; nil fields are left untouched.
type PriceUpdate struct {
	Ticker    *string
	Timestamp *time.Time
	Open      *float64
	High      *float64
	Low       *float64
	Close     *float64
	Volume    *float64
}

func (u PriceUpdate) Empty() bool {
	return u.Ticker == nil && u.Timestamp == nil && u.Open == nil &&
		u.High == nil && u.Low == nil && u.Close == nil && u.Volume == nil
}
