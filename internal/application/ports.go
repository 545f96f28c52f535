package application

import (
	"context"
	"errors"

	"stockquote-service/internal/domain"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrBadRequest = errors.New("bad request")
)

//go:generate mockgen -package=application -destination=mock_ports_test.go stockquote-service/internal/application Provider,CapProvider

// Provider is one upstream quote source in the failover chain.
type Provider interface {
	Name() string
	Get(ctx context.Context, symbol string) (domain.Quote, error)
}

// CapProvider resolves market capitalisation in units of 100M CNY.
type CapProvider interface {
	MarketCap(ctx context.Context, symbol string) (total, circulating float64, err error)
}

// QuoteSource never fails: a total outage is reported as an error quote.
type QuoteSource interface {
	Fetch(ctx context.Context, symbol string) domain.Quote
}

// Scheduler fans out quote fetches over a bounded pool.
type Scheduler interface {
	FetchBatch(symbols, priority []string) string
	Progress() (completed, total int)
	Batch(id string) (domain.Batch, bool)
	ActiveWorkerCount() int
	MaxWorkerCount() int
	SetMaxWorkerCount(n int)
	Pending() int
	// Forget drops cached state of symbols and discards results of their
	// fetches that are still queued or running.
	Forget(symbols []string)
}

type QuoteRepo interface {
	GetLast(ctx context.Context, code string) (domain.Quote, error)
	Upsert(ctx context.Context, q domain.Quote) error
	AppendHistory(ctx context.Context, h domain.QuoteHistory) error
}

type BatchRepo interface {
	SaveBatch(ctx context.Context, b domain.Batch) error
	GetBatch(ctx context.Context, id string) (domain.Batch, error)
}

// SnapshotStore mirrors the latest quotes outside the process.
type SnapshotStore interface {
	Save(ctx context.Context, q domain.Quote) error
	LoadAll(ctx context.Context) ([]domain.Quote, error)
}

// EventPublisher ships bus events to other processes.
type EventPublisher interface {
	PublishEvent(ctx context.Context, ev Event) error
}

// Worker is a long-running engine component started by the bootstrap run group.
// Start returns once ctx is canceled.
type Worker interface {
	Start(ctx context.Context)
}

// RefreshGuard deduplicates manual refresh requests by client key.
type RefreshGuard interface {
	// TryReserve reports whether key was free; a repeated key within the
	// store TTL yields false.
	TryReserve(ctx context.Context, key string) (bool, error)
}

// NoopIdempotency accepts every key. Used when no Redis address is configured.
type NoopIdempotency struct{}

func (NoopIdempotency) TryReserve(context.Context, string) (bool, error) { return true, nil }

// UnitOfWork groups the recorder's latest-quote upsert, tick append and batch
// write. Repositories called with the ctx passed to fn join the transaction.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// NoopUoW runs fn directly; the in-memory and disabled storage modes use it.
type NoopUoW struct{}

func (NoopUoW) Do(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }
