package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"stockquote-service/internal/domain"
)

var (
	ErrRepo = errors.New("repo error")
)

type fakeClock struct{ t time.Time }

func (f fakeClock) Now() time.Time { return f.t }

// stepClock is a mutable clock for dedupe windows.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// fakeProvider answers from a fixed quote or error.
type fakeProvider struct {
	name  string
	quote domain.Quote
	err   error
	delay time.Duration

	mu    sync.Mutex
	calls []string
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Get(ctx context.Context, symbol string) (domain.Quote, error) {
	f.mu.Lock()
	f.calls = append(f.calls, symbol)
	f.mu.Unlock()
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return domain.Quote{}, domain.TransportError(f.name, ctx.Err())
		}
	}
	if f.err != nil {
		return domain.Quote{}, f.err
	}
	q := f.quote
	q.Code = symbol
	return q, nil
}

func (f *fakeProvider) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeQuoteRepo struct {
	mu      sync.Mutex
	store   map[string]domain.Quote
	history []domain.QuoteHistory
	err     error
}

func (f *fakeQuoteRepo) GetLast(_ context.Context, code string) (domain.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return domain.Quote{}, f.err
	}
	q, ok := f.store[code]
	if !ok {
		return domain.Quote{}, domain.ErrNotFound
	}
	return q, nil
}

func (f *fakeQuoteRepo) Upsert(_ context.Context, q domain.Quote) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.store == nil {
		f.store = map[string]domain.Quote{}
	}
	f.store[q.Code] = q
	return nil
}

func (f *fakeQuoteRepo) AppendHistory(_ context.Context, h domain.QuoteHistory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.history = append(f.history, h)
	return nil
}

func (f *fakeQuoteRepo) HistoryLen() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.history)
}

type fakeBatchRepo struct {
	mu      sync.Mutex
	batches map[string]domain.Batch
}

func (f *fakeBatchRepo) SaveBatch(_ context.Context, b domain.Batch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.batches == nil {
		f.batches = map[string]domain.Batch{}
	}
	f.batches[b.ID] = b
	return nil
}

func (f *fakeBatchRepo) GetBatch(_ context.Context, id string) (domain.Batch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.batches[id]
	if !ok {
		return domain.Batch{}, domain.ErrNotFound
	}
	return b, nil
}

type fakeIdem struct{ seen map[string]bool }

func (f *fakeIdem) TryReserve(_ context.Context, k string) (bool, error) {
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	if f.seen[k] {
		return false, nil
	}
	f.seen[k] = true
	return true, nil
}

// fakeScheduler records FetchBatch calls instead of running them.
type fakeScheduler struct {
	mu        sync.Mutex
	calls     [][2][]string
	max       int
	batches   map[string]domain.Batch
	forgotten []string
}

func (f *fakeScheduler) FetchBatch(symbols, priority []string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, [2][]string{symbols, priority})
	return fmt.Sprintf("batch-%d", len(f.calls))
}

func (f *fakeScheduler) Progress() (int, int) { return 0, 0 }

func (f *fakeScheduler) Batch(id string) (domain.Batch, bool) {
	b, ok := f.batches[id]
	return b, ok
}

func (f *fakeScheduler) ActiveWorkerCount() int { return 0 }
func (f *fakeScheduler) MaxWorkerCount() int    { return f.max }
func (f *fakeScheduler) SetMaxWorkerCount(n int) {
	f.max = n
}
func (f *fakeScheduler) Pending() int { return 0 }

func (f *fakeScheduler) Forget(symbols []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forgotten = append(f.forgotten, symbols...)
}

type fakeSnapshotStore struct {
	mu    sync.Mutex
	saved map[string]domain.Quote
}

func (f *fakeSnapshotStore) Save(_ context.Context, q domain.Quote) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saved == nil {
		f.saved = map[string]domain.Quote{}
	}
	f.saved[q.Code] = q
	return nil
}

func (f *fakeSnapshotStore) LoadAll(context.Context) ([]domain.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Quote, 0, len(f.saved))
	for _, q := range f.saved {
		out = append(out, q)
	}
	return out, nil
}

func (f *fakeSnapshotStore) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

// collector subscribes to a topic and keeps every event.
type collector struct {
	mu     sync.Mutex
	events []Event
}

func (c *collector) HandleEvent(e Event) {
	c.mu.Lock()
	c.events = append(c.events, e)
	c.mu.Unlock()
}

func (c *collector) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

func strPtr(s string) *string { return &s }

func validQuote(price float64) domain.Quote {
	q := domain.Quote{Name: "test", Price: price, Open: price, High: price, Low: price, PreClose: price, Volume: 100}
	q.Derive()
	return q
}
