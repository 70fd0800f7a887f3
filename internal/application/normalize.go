package application

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"stockmarket-service/internal/domain"
)

// providerDateLayout is the only format the market-data provider emits for
// daily bars.
const providerDateLayout = "2006-01-02"

// csvTimeLayouts are the recognized timestamp formats on the upload path,
// tried in order.
var csvTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	providerDateLayout,
}

// ProviderRow is one element of the provider's "values" array. All fields come
// over the wire as strings.
type ProviderRow struct {
	Datetime string `json:"datetime"`
	Open     string `json:"open"`
	High     string `json:"high"`
	Low      string `json:"low"`
	Close    string `json:"close"`
	Volume   string `json:"volume"`
}

// NormalizeProviderRow converts one provider row for symbol into a PriceRecord.
// Provider values are not rounded; volume is kept as an integer-valued float.
func NormalizeProviderRow(symbol string, row ProviderRow) (domain.PriceRecord, error) {
	ts, err := time.ParseInLocation(providerDateLayout, row.Datetime, time.UTC)
	if err != nil {
		return domain.PriceRecord{}, fmt.Errorf("parse datetime %q: %w", row.Datetime, err)
	}
	open, err := strconv.ParseFloat(row.Open, 64)
	if err != nil {
		return domain.PriceRecord{}, fmt.Errorf("parse open %q: %w", row.Open, err)
	}
	high, err := strconv.ParseFloat(row.High, 64)
	if err != nil {
		return domain.PriceRecord{}, fmt.Errorf("parse high %q: %w", row.High, err)
	}
	low, err := strconv.ParseFloat(row.Low, 64)
	if err != nil {
		return domain.PriceRecord{}, fmt.Errorf("parse low %q: %w", row.Low, err)
	}
	closeP, err := strconv.ParseFloat(row.Close, 64)
	if err != nil {
		return domain.PriceRecord{}, fmt.Errorf("parse close %q: %w", row.Close, err)
	}
	vol, err := strconv.ParseFloat(row.Volume, 64)
	if err != nil {
		return domain.PriceRecord{}, fmt.Errorf("parse volume %q: %w", row.Volume, err)
	}
	return domain.PriceRecord{
		Ticker:    symbol,
		Timestamp: ts,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closeP,
		Volume:    math.Trunc(vol),
	}, nil
}

// csvColumns maps upload header names to canonical fields. The upload format
// uses "symbol" and "datetime"; the canonical names are also accepted.
var csvColumns = map[string]string{
	"symbol":    "ticker",
	"ticker":    "ticker",
	"datetime":  "timestamp",
	"timestamp": "timestamp",
	"open":      "open",
	"high":      "high",
	"low":       "low",
	"close":     "close",
	"volume":    "volume",
}

// NormalizeCSVRow converts one upload row into a PriceRecord. cols maps the
// canonical column name to its index in record. Rows whose ticker, timestamp
// or close is missing or unparsable are dropped (ok=false) rather than failing
// the batch; the remaining numeric fields default to zero when unparsable.
// Monetary fields are rounded to two decimals on this path.
func NormalizeCSVRow(cols map[string]int, record []string) (domain.PriceRecord, bool) {
	field := func(name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return record[idx]
	}

	ticker := field("ticker")
	if ticker == "" {
		return domain.PriceRecord{}, false
	}
	ts, ok := parseCSVTime(field("timestamp"))
	if !ok {
		return domain.PriceRecord{}, false
	}
	closeP, err := strconv.ParseFloat(field("close"), 64)
	if err != nil {
		return domain.PriceRecord{}, false
	}

	floatField := func(name string) float64 {
		v, err := strconv.ParseFloat(field(name), 64)
		if err != nil {
			return 0
		}
		return v
	}

	return domain.PriceRecord{
		Ticker:    ticker,
		Timestamp: ts,
		Open:      round2(floatField("open")),
		High:      round2(floatField("high")),
		Low:       round2(floatField("low")),
		Close:     round2(closeP),
		Volume:    floatField("volume"),
	}, true
}

func parseCSVTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range csvTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
