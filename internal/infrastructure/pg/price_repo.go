package pg

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"stockmarket-service/internal/application"
	"stockmarket-service/internal/domain"
	"stockmarket-service/internal/infrastructure/logx"
)

const priceColumns = `id, ticker, timestamp, open, high, low, close, volume, created, updated, deleted`

type PriceRepo struct{ db *DB }

func NewPriceRepo(db *DB) *PriceRepo { return &PriceRepo{db: db} }

func (r *PriceRepo) List(ctx context.Context, skip, limit int) ([]domain.PriceRecord, error) {
	const q = `SELECT ` + priceColumns + ` FROM stock_prices ORDER BY created OFFSET $1 LIMIT $2`
	rows, err := r.db.Pool.Query(ctx, q, skip, limit)
	if err != nil {
		logx.L().Error("sql.query_failed", zap.String("repo", "price"), zap.String("operation", "List"), zap.Error(err))
		return nil, err
	}
	defer rows.Close()
	return scanPrices(rows)
}

func (r *PriceRepo) SearchByRange(ctx context.Context, start, end *time.Time) ([]domain.PriceRecord, error) {
	// Nil bounds leave that side of the range open.
	const q = `
        SELECT ` + priceColumns + `
        FROM stock_prices
        WHERE ($1::timestamptz IS NULL OR timestamp >= $1)
          AND ($2::timestamptz IS NULL OR timestamp <= $2)
        ORDER BY timestamp`
	rows, err := r.db.Pool.Query(ctx, q, start, end)
	if err != nil {
		logx.L().Error("sql.query_failed", zap.String("repo", "price"), zap.String("operation", "SearchByRange"), zap.Error(err))
		return nil, err
	}
	defer rows.Close()
	return scanPrices(rows)
}

func (r *PriceRepo) ListByTicker(ctx context.Context, ticker string) ([]domain.PriceRecord, error) {
	const q = `SELECT ` + priceColumns + ` FROM stock_prices WHERE ticker=$1 ORDER BY timestamp`
	rows, err := r.db.Pool.Query(ctx, q, ticker)
	if err != nil {
		logx.L().Error("sql.query_failed", zap.String("repo", "price"), zap.String("operation", "ListByTicker"), zap.Error(err))
		return nil, err
	}
	defer rows.Close()
	return scanPrices(rows)
}

func (r *PriceRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.PriceRecord, error) {
	const q = `SELECT ` + priceColumns + ` FROM stock_prices WHERE id=$1`
	rec, err := scanPrice(r.db.Pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.PriceRecord{}, application.ErrNotFound
	}
	if err != nil {
		logx.L().Error("sql.query_failed", zap.String("repo", "price"), zap.String("operation", "GetByID"), zap.Error(err))
		return domain.PriceRecord{}, err
	}
	return rec, nil
}

func (r *PriceRepo) Create(ctx context.Context, rec domain.PriceRecord) (domain.PriceRecord, error) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	const ins = `
        INSERT INTO stock_prices(id, ticker, timestamp, open, high, low, close, volume)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING created`
	log := logx.L().With(
		zap.String("repo", "price"),
		zap.String("operation", "Create"),
		zap.String("id", rec.ID.String()),
		zap.String("ticker", rec.Ticker),
	)
	err := r.db.Pool.QueryRow(ctx, ins,
		rec.ID, rec.Ticker, rec.Timestamp, rec.Open, rec.High, rec.Low, rec.Close, rec.Volume,
	).Scan(&rec.Created)
	if err != nil {
		log.Error("sql.exec_failed", zap.Error(err))
		return domain.PriceRecord{}, err
	}
	log.Info("sql.exec_success")
	return rec, nil
}

func (r *PriceRepo) Update(ctx context.Context, id uuid.UUID, upd domain.PriceUpdate) (domain.PriceRecord, error) {
	// Nil fields fall through COALESCE and keep the stored value.
	const up = `
        UPDATE stock_prices
        SET ticker    = COALESCE($2, ticker),
            timestamp = COALESCE($3, timestamp),
            open      = COALESCE($4, open),
            high      = COALESCE($5, high),
            low       = COALESCE($6, low),
            close     = COALESCE($7, close),
            volume    = COALESCE($8, volume),
            updated   = NOW()
        WHERE id=$1
        RETURNING ` + priceColumns
	rec, err := scanPrice(r.db.Pool.QueryRow(ctx, up, id,
		upd.Ticker, upd.Timestamp, upd.Open, upd.High, upd.Low, upd.Close, upd.Volume))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.PriceRecord{}, application.ErrNotFound
	}
	if err != nil {
		logx.L().Error("sql.exec_failed", zap.String("repo", "price"), zap.String("operation", "Update"), zap.Error(err))
		return domain.PriceRecord{}, err
	}
	return rec, nil
}

func (r *PriceRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const del = `DELETE FROM stock_prices WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, del, id)
	if err != nil {
		logx.L().Error("sql.exec_failed", zap.String("repo", "price"), zap.String("operation", "Delete"), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return application.ErrNotFound
	}
	return nil
}

// UpsertIgnore loads pulled records, keeping existing rows on natural-key
// conflict. One statement per batch; ids are generated here.
func (r *PriceRepo) UpsertIgnore(ctx context.Context, recs []domain.PriceRecord) error {
	if len(recs) == 0 {
		return nil
	}
	const ins = `
        INSERT INTO stock_prices(id, ticker, timestamp, open, high, low, close, volume)
        SELECT * FROM unnest($1::uuid[], $2::text[], $3::timestamptz[], $4::float8[], $5::float8[], $6::float8[], $7::float8[], $8::float8[])
        ON CONFLICT (ticker, timestamp) DO NOTHING`
	ids, tickers, stamps, opens, highs, lows, closes, volumes := priceArrays(recs)
	tag, err := r.exec(ctx, ins, ids, tickers, stamps, opens, highs, lows, closes, volumes)
	if err != nil {
		logx.L().Error("sql.exec_failed", zap.String("repo", "price"), zap.String("operation", "UpsertIgnore"), zap.Error(err))
		return err
	}
	logx.L().Info("sql.exec_success",
		zap.String("repo", "price"),
		zap.String("operation", "UpsertIgnore"),
		zap.Int("rows", len(recs)),
		zap.Int64("inserted", tag.RowsAffected()),
	)
	return nil
}

// UpsertReplace loads uploaded records, overwriting OHLCV fields on conflict.
// A single statement keeps the whole payload atomic.
func (r *PriceRepo) UpsertReplace(ctx context.Context, recs []domain.PriceRecord) error {
	if len(recs) == 0 {
		return nil
	}
	const ins = `
        INSERT INTO stock_prices(id, ticker, timestamp, open, high, low, close, volume)
        SELECT * FROM unnest($1::uuid[], $2::text[], $3::timestamptz[], $4::float8[], $5::float8[], $6::float8[], $7::float8[], $8::float8[])
        ON CONFLICT (ticker, timestamp) DO UPDATE
          SET open=EXCLUDED.open,
              high=EXCLUDED.high,
              low=EXCLUDED.low,
              close=EXCLUDED.close,
              volume=EXCLUDED.volume,
              updated=NOW()`
	ids, tickers, stamps, opens, highs, lows, closes, volumes := priceArrays(recs)
	tag, err := r.exec(ctx, ins, ids, tickers, stamps, opens, highs, lows, closes, volumes)
	if err != nil {
		logx.L().Error("sql.exec_failed", zap.String("repo", "price"), zap.String("operation", "UpsertReplace"), zap.Error(err))
		return err
	}
	logx.L().Info("sql.exec_success",
		zap.String("repo", "price"),
		zap.String("operation", "UpsertReplace"),
		zap.Int("rows", len(recs)),
		zap.Int64("affected", tag.RowsAffected()),
	)
	return nil
}

// exec routes through an open transaction when the unit of work put one on the
// context, otherwise straight to the pool.
func (r *PriceRepo) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromCtx(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.db.Pool.Exec(ctx, sql, args...)
}

func priceArrays(recs []domain.PriceRecord) (ids []uuid.UUID, tickers []string, stamps []time.Time, opens, highs, lows, closes, volumes []float64) {
	for _, rec := range recs {
		id := rec.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		ids = append(ids, id)
		tickers = append(tickers, rec.Ticker)
		stamps = append(stamps, rec.Timestamp)
		opens = append(opens, rec.Open)
		highs = append(highs, rec.High)
		lows = append(lows, rec.Low)
		closes = append(closes, rec.Close)
		volumes = append(volumes, rec.Volume)
	}
	return
}

func scanPrice(row pgx.Row) (domain.PriceRecord, error) {
	var rec domain.PriceRecord
	err := row.Scan(&rec.ID, &rec.Ticker, &rec.Timestamp,
		&rec.Open, &rec.High, &rec.Low, &rec.Close, &rec.Volume,
		&rec.Created, &rec.Updated, &rec.Deleted)
	return rec, err
}

func scanPrices(rows pgx.Rows) ([]domain.PriceRecord, error) {
	var out []domain.PriceRecord
	for rows.Next() {
		rec, err := scanPrice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
