package pg

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"stockmarket-service/internal/application"
	"stockmarket-service/internal/domain"
	"stockmarket-service/internal/infrastructure/logx"
)

type IngestJobRepo struct{ db *DB }

func NewIngestJobRepo(db *DB) *IngestJobRepo { return &IngestJobRepo{db: db} }

func (r *IngestJobRepo) CreateQueued(ctx context.Context, payload string) (string, error) {
	id := uuid.NewString()
	const ins = `
        INSERT INTO ingest_jobs(id, payload, status)
        VALUES ($1, $2, 'queued')`
	log := logx.L().With(
		zap.String("repo", "ingest_job"),
		zap.String("operation", "CreateQueued"),
		zap.String("id", id),
		zap.Int("payload_bytes", len(payload)),
	)
	if _, err := r.db.Pool.Exec(ctx, ins, id, payload); err != nil {
		log.Error("sql.exec_failed", zap.Error(err))
		return "", err
	}
	log.Info("sql.exec_success")
	return id, nil
}

func (r *IngestJobRepo) GetByID(ctx context.Context, id string) (domain.IngestJob, error) {
	const q = `
        SELECT id::text, payload, status, attempts, error, submitted_at, COALESCE(completed_at, next_attempt_at)
        FROM ingest_jobs WHERE id=$1`
	var out domain.IngestJob
	var status string
	err := r.db.Pool.QueryRow(ctx, q, id).Scan(
		&out.ID, &out.Payload, &status, &out.Attempts, &out.Error, &out.SubmittedAt, &out.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.IngestJob{}, application.ErrNotFound
	}
	if err != nil {
		logx.L().Error("sql.query_failed", zap.String("repo", "ingest_job"), zap.String("operation", "GetByID"), zap.Error(err))
		return domain.IngestJob{}, err
	}
	out.Status = jobStatus(status)
	return out, nil
}

// ClaimDue grabs due queued jobs with SKIP LOCKED so concurrent workers never
// double-claim.
func (r *IngestJobRepo) ClaimDue(ctx context.Context, limit int) ([]domain.IngestJob, error) {
	const q = `
      WITH cte AS (
        SELECT id
        FROM ingest_jobs
        WHERE status = 'queued' AND next_attempt_at <= NOW()
        ORDER BY submitted_at
        LIMIT $1
        FOR UPDATE SKIP LOCKED
      )
      UPDATE ingest_jobs j
      SET status = 'processing'
      FROM cte
      WHERE j.id = cte.id
      RETURNING j.id::text, j.payload, j.attempts;
    `
	rows, err := r.db.Pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.IngestJob
	for rows.Next() {
		j := domain.IngestJob{Status: domain.IngestJobStatusProcessing}
		if err := rows.Scan(&j.ID, &j.Payload, &j.Attempts); err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (r *IngestJobRepo) MarkDone(ctx context.Context, id string) error {
	const up = `
        UPDATE ingest_jobs
        SET status='done', error=NULL, completed_at=NOW()
        WHERE id=$1`
	return r.exec(ctx, "MarkDone", up, id)
}

func (r *IngestJobRepo) MarkFailed(ctx context.Context, id string, errMsg string) error {
	const up = `
        UPDATE ingest_jobs
        SET status='failed', error=$2, completed_at=NOW()
        WHERE id=$1`
	return r.exec(ctx, "MarkFailed", up, id, errMsg)
}

func (r *IngestJobRepo) Requeue(ctx context.Context, id string, errMsg string, nextAttempt time.Time) error {
	const up = `
        UPDATE ingest_jobs
        SET status='queued', error=$2, attempts=attempts+1, next_attempt_at=$3
        WHERE id=$1`
	return r.exec(ctx, "Requeue", up, id, errMsg, nextAttempt)
}

func (r *IngestJobRepo) exec(ctx context.Context, op, sql string, args ...any) error {
	log := logx.L().With(
		zap.String("repo", "ingest_job"),
		zap.String("operation", op),
	)
	tag, err := r.db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		log.Error("sql.exec_failed", zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		log.Warn("sql.exec_no_rows")
		return application.ErrNotFound
	}
	return nil
}

func jobStatus(s string) domain.IngestJobStatus {
	switch s {
	case "queued":
		return domain.IngestJobStatusQueued
	case "processing":
		return domain.IngestJobStatusProcessing
	case "done":
		return domain.IngestJobStatusDone
	default:
		return domain.IngestJobStatusFailed
	}
}
