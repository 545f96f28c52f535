package pg

import (
	"context"

	"stockquote-service/internal/application"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ application.UnitOfWork = (*UnitOfWork)(nil)

type txKey struct{}

func txFromCtx(ctx context.Context) pgx.Tx {
	if v := ctx.Value(txKey{}); v != nil {
		if tx, ok := v.(pgx.Tx); ok {
			return tx
		}
	}
	return nil
}

// UnitOfWork runs fn inside one transaction. Repositories called with the
// derived context join it.
type UnitOfWork struct {
	Pool *pgxpool.Pool
}

func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromCtx(ctx) != nil {
		return fn(ctx)
	}
	tx, err := u.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	txCtx := context.WithValue(ctx, txKey{}, tx)
	if err := fn(txCtx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}
