package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"stockquote-service/internal/application"
	"stockquote-service/internal/domain"
)

var _ application.QuoteRepo = (*QuoteRepo)(nil)

type QuoteRepo struct {
	db  *DB
	now func() time.Time
}

func NewQuoteRepo(db *DB) *QuoteRepo {
	return &QuoteRepo{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *QuoteRepo) GetLast(ctx context.Context, code string) (domain.Quote, error) {
	var out domain.Quote
	var fetched int64
	err := r.db.SQL.QueryRowContext(ctx, `
		SELECT code, name, price, change, change_pct, open, high, low, pre_close,
		       volume, amount, market_cap, circulation_cap, amplitude, source, fetched_at
		FROM quotes WHERE code = ?`, code).Scan(
		&out.Code, &out.Name, &out.Price, &out.Change, &out.ChangePct,
		&out.Open, &out.High, &out.Low, &out.PreClose,
		&out.Volume, &out.Amount, &out.MarketCap, &out.CirculationCap, &out.Amplitude,
		&out.Source, &fetched,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Quote{}, application.ErrNotFound
	}
	if err != nil {
		return domain.Quote{}, err
	}
	out.FetchedAt = fromMillis(fetched)
	return out, nil
}

func (r *QuoteRepo) Upsert(ctx context.Context, q domain.Quote) error {
	_, err := r.db.SQL.ExecContext(ctx, `
		INSERT INTO quotes(code, name, price, change, change_pct, open, high, low, pre_close,
		                   volume, amount, market_cap, circulation_cap, amplitude, source, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET
			name=excluded.name, price=excluded.price, change=excluded.change,
			change_pct=excluded.change_pct, open=excluded.open, high=excluded.high,
			low=excluded.low, pre_close=excluded.pre_close, volume=excluded.volume,
			amount=excluded.amount, market_cap=excluded.market_cap,
			circulation_cap=excluded.circulation_cap, amplitude=excluded.amplitude,
			source=excluded.source, fetched_at=excluded.fetched_at
		WHERE quotes.fetched_at <= excluded.fetched_at`,
		q.Code, q.Name, q.Price, q.Change, q.ChangePct, q.Open, q.High, q.Low, q.PreClose,
		q.Volume, q.Amount, q.MarketCap, q.CirculationCap, q.Amplitude, q.Source, toMillis(q.FetchedAt),
	)
	return err
}

func (r *QuoteRepo) AppendHistory(ctx context.Context, h domain.QuoteHistory) error {
	_, err := r.db.SQL.ExecContext(ctx, `
		INSERT INTO quotes_history(code, price, change_pct, volume, amount, source, quoted_at, inserted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(code, quoted_at, source) DO NOTHING`,
		h.Code, h.Price, h.ChangePct, h.Volume, h.Amount, h.Source, toMillis(h.QuotedAt), toMillis(r.now()),
	)
	return err
}

// History returns up to limit ticks for code, newest first.
func (r *QuoteRepo) History(ctx context.Context, code string, limit int) ([]domain.QuoteHistory, error) {
	rows, err := r.db.SQL.QueryContext(ctx, `
		SELECT id, code, price, change_pct, volume, amount, source, quoted_at, inserted_at
		FROM quotes_history WHERE code = ?
		ORDER BY quoted_at DESC LIMIT ?`, code, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.QuoteHistory
	for rows.Next() {
		var h domain.QuoteHistory
		var quoted, inserted int64
		if err := rows.Scan(&h.ID, &h.Code, &h.Price, &h.ChangePct, &h.Volume, &h.Amount, &h.Source, &quoted, &inserted); err != nil {
			return nil, err
		}
		h.QuotedAt, h.InsertedAt = fromMillis(quoted), fromMillis(inserted)
		out = append(out, h)
	}
	return out, rows.Err()
}
