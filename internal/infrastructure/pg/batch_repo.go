package pg

import (
	"context"
	"errors"

	"stockquote-service/internal/application"
	"stockquote-service/internal/domain"
	"stockquote-service/internal/infrastructure/logx"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

var _ application.BatchRepo = (*BatchRepo)(nil)

type BatchRepo struct{ db *DB }

func NewBatchRepo(db *DB) *BatchRepo { return &BatchRepo{db: db} }

func (r *BatchRepo) SaveBatch(ctx context.Context, b domain.Batch) error {
	const up = `
        INSERT INTO refresh_batches(id, total, completed, failed, canceled, status, started_at, finished_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (id) DO UPDATE
          SET completed=EXCLUDED.completed, failed=EXCLUDED.failed, canceled=EXCLUDED.canceled,
              status=EXCLUDED.status, finished_at=EXCLUDED.finished_at`
	log := logx.L().With(
		zap.String("repo", "batch"),
		zap.String("operation", "SaveBatch"),
		zap.String("id", b.ID),
		zap.String("status", string(b.Status)),
	)
	log.Debug("sql.exec_start")
	tag, err := r.db.q(ctx).Exec(ctx, up,
		b.ID, b.Total, b.Completed, b.Failed, b.Canceled, string(b.Status), b.StartedAt, b.FinishedAt,
	)
	if err != nil {
		log.Error("sql.exec_failed", zap.Error(err))
		return err
	}
	log.Debug("sql.exec_success", zap.Int64("rows_affected", tag.RowsAffected()))
	return nil
}

func (r *BatchRepo) GetBatch(ctx context.Context, id string) (domain.Batch, error) {
	const q = `
        SELECT id, total, completed, failed, canceled, status, started_at, finished_at
        FROM refresh_batches WHERE id=$1`
	log := logx.L().With(
		zap.String("repo", "batch"),
		zap.String("operation", "GetBatch"),
		zap.String("id", id),
	)
	var out domain.Batch
	var status string
	err := r.db.q(ctx).QueryRow(ctx, q, id).Scan(
		&out.ID, &out.Total, &out.Completed, &out.Failed, &out.Canceled, &status, &out.StartedAt, &out.FinishedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		log.Debug("sql.query_no_rows")
		return domain.Batch{}, application.ErrNotFound
	}
	if err != nil {
		log.Error("sql.query_failed", zap.Error(err))
		return domain.Batch{}, err
	}
	out.Status = domain.BatchStatus(status)
	out.StartedAt = out.StartedAt.UTC()
	if out.FinishedAt != nil {
		t := out.FinishedAt.UTC()
		out.FinishedAt = &t
	}
	return out, nil
}
