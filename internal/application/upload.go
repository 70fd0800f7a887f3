package application

import (
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"stockmarket-service/internal/domain"
)

// UploadProcessor loads an uploaded CSV payload into storage. Malformed rows
// are skipped; recognized rows are written in a single replace-upsert so a
// re-upload overwrites OHLCV values for repeated (ticker, timestamp) pairs.
type UploadProcessor struct {
	Prices PriceRepo
	UoW    UnitOfWork
	Log    *zap.Logger
}

func (p *UploadProcessor) Process(ctx context.Context, csvText string) error {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}

	r := csv.NewReader(strings.NewReader(csvText))
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return fmt.Errorf("parse csv: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("empty csv payload")
	}

	cols := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		key := strings.ToLower(strings.TrimSpace(name))
		if canonical, ok := csvColumns[key]; ok {
			cols[canonical] = i
		}
	}

	var recs []domain.PriceRecord
	dropped := 0
	for _, row := range rows[1:] {
		rec, ok := NormalizeCSVRow(cols, row)
		if !ok {
			dropped++
			continue
		}
		recs = append(recs, rec)
	}
	log.Info("upload.normalized", zap.Int("rows", len(recs)), zap.Int("dropped", dropped))

	if len(recs) == 0 {
		return nil
	}
	uow := p.UoW
	if uow == nil {
		uow = NoopUoW{}
	}
	err = uow.Do(ctx, func(ctx context.Context) error {
		return p.Prices.UpsertReplace(ctx, recs)
	})
	if err != nil {
		return fmt.Errorf("upsert upload: %w", err)
	}
	return nil
}
