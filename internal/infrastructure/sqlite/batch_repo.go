package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"stockquote-service/internal/application"
	"stockquote-service/internal/domain"
)

var _ application.BatchRepo = (*BatchRepo)(nil)

type BatchRepo struct{ db *DB }

func NewBatchRepo(db *DB) *BatchRepo { return &BatchRepo{db: db} }

func (r *BatchRepo) SaveBatch(ctx context.Context, b domain.Batch) error {
	var finished sql.NullInt64
	if b.FinishedAt != nil {
		finished = sql.NullInt64{Int64: toMillis(*b.FinishedAt), Valid: true}
	}
	_, err := r.db.SQL.ExecContext(ctx, `
		INSERT INTO refresh_batches(id, total, completed, failed, canceled, status, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			completed=excluded.completed, failed=excluded.failed, canceled=excluded.canceled,
			status=excluded.status, finished_at=excluded.finished_at`,
		b.ID, b.Total, b.Completed, b.Failed, b.Canceled, string(b.Status), toMillis(b.StartedAt), finished,
	)
	return err
}

func (r *BatchRepo) GetBatch(ctx context.Context, id string) (domain.Batch, error) {
	var out domain.Batch
	var status string
	var started int64
	var finished sql.NullInt64
	err := r.db.SQL.QueryRowContext(ctx, `
		SELECT id, total, completed, failed, canceled, status, started_at, finished_at
		FROM refresh_batches WHERE id = ?`, id).Scan(
		&out.ID, &out.Total, &out.Completed, &out.Failed, &out.Canceled, &status, &started, &finished,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Batch{}, application.ErrNotFound
	}
	if err != nil {
		return domain.Batch{}, err
	}
	out.Status = domain.BatchStatus(status)
	out.StartedAt = fromMillis(started)
	if finished.Valid {
		t := fromMillis(finished.Int64)
		out.FinishedAt = &t
	}
	return out, nil
}
