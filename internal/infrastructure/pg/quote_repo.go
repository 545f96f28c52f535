package pg

import (
	"context"
	"errors"

	"stockquote-service/internal/application"
	"stockquote-service/internal/domain"

	"github.com/jackc/pgx/v5"
)

var _ application.QuoteRepo = (*QuoteRepo)(nil)

type QuoteRepo struct{ db *DB }

func NewQuoteRepo(db *DB) *QuoteRepo { return &QuoteRepo{db: db} }

func (r *QuoteRepo) GetLast(ctx context.Context, code string) (domain.Quote, error) {
	const q = `
        SELECT code, name, price, change, change_pct, open, high, low, pre_close,
               volume, amount, market_cap, circulation_cap, amplitude, source, fetched_at
        FROM quotes WHERE code=$1`
	var out domain.Quote
	err := r.db.q(ctx).QueryRow(ctx, q, code).Scan(
		&out.Code, &out.Name, &out.Price, &out.Change, &out.ChangePct,
		&out.Open, &out.High, &out.Low, &out.PreClose,
		&out.Volume, &out.Amount, &out.MarketCap, &out.CirculationCap, &out.Amplitude,
		&out.Source, &out.FetchedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quote{}, application.ErrNotFound
	}
	if err != nil {
		return domain.Quote{}, err
	}
	out.FetchedAt = out.FetchedAt.UTC()
	return out, nil
}

func (r *QuoteRepo) Upsert(ctx context.Context, q domain.Quote) error {
	const up = `
        INSERT INTO quotes(code, name, price, change, change_pct, open, high, low, pre_close,
                           volume, amount, market_cap, circulation_cap, amplitude, source, fetched_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
        ON CONFLICT (code) DO UPDATE
          SET name=EXCLUDED.name, price=EXCLUDED.price, change=EXCLUDED.change,
              change_pct=EXCLUDED.change_pct, open=EXCLUDED.open, high=EXCLUDED.high,
              low=EXCLUDED.low, pre_close=EXCLUDED.pre_close, volume=EXCLUDED.volume,
              amount=EXCLUDED.amount, market_cap=EXCLUDED.market_cap,
              circulation_cap=EXCLUDED.circulation_cap, amplitude=EXCLUDED.amplitude,
              source=EXCLUDED.source, fetched_at=EXCLUDED.fetched_at
          WHERE quotes.fetched_at <= EXCLUDED.fetched_at`
	_, err := r.db.q(ctx).Exec(ctx, up,
		q.Code, q.Name, q.Price, q.Change, q.ChangePct, q.Open, q.High, q.Low, q.PreClose,
		q.Volume, q.Amount, q.MarketCap, q.CirculationCap, q.Amplitude, q.Source, q.FetchedAt,
	)
	return err
}

func (r *QuoteRepo) AppendHistory(ctx context.Context, h domain.QuoteHistory) error {
	_, err := r.db.q(ctx).Exec(ctx, `
        INSERT INTO quotes_history(code, price, change_pct, volume, amount, source, quoted_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (code, quoted_at, source) DO NOTHING
    `, h.Code, h.Price, h.ChangePct, h.Volume, h.Amount, h.Source, h.QuotedAt)
	return err
}

// History returns up to limit ticks for code, newest first.
func (r *QuoteRepo) History(ctx context.Context, code string, limit int) ([]domain.QuoteHistory, error) {
	rows, err := r.db.Pool.Query(ctx, `
        SELECT id, code, price, change_pct, volume, amount, source, quoted_at, inserted_at
        FROM quotes_history WHERE code=$1
        ORDER BY quoted_at DESC LIMIT $2
    `, code, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.QuoteHistory
	for rows.Next() {
		var h domain.QuoteHistory
		if err := rows.Scan(&h.ID, &h.Code, &h.Price, &h.ChangePct, &h.Volume, &h.Amount, &h.Source, &h.QuotedAt, &h.InsertedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
