package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"stockquote-service/internal/application"
	"stockquote-service/internal/domain"
)

func quoteAt(price float64) domain.Quote {
	q := domain.Quote{Name: "test", Price: price, Open: price, High: price, Low: price, PreClose: price, Volume: 100}
	q.Derive()
	return q
}

// stubProvider answers every symbol with the same quote after delay.
type stubProvider struct {
	name  string
	price float64
	err   error
	delay time.Duration
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Get(ctx context.Context, symbol string) (domain.Quote, error) {
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return domain.Quote{}, domain.TransportError(p.name, ctx.Err())
		}
	}
	if p.err != nil {
		return domain.Quote{}, p.err
	}
	return quoteAt(p.price), nil
}

// gatedSource records fetch order and blocks each fetch until gate is closed.
type gatedSource struct {
	gate  chan struct{}
	panic string

	mu    sync.Mutex
	order []string
}

func newGatedSource(open bool) *gatedSource {
	s := &gatedSource{gate: make(chan struct{})}
	if open {
		close(s.gate)
	}
	return s
}

func (s *gatedSource) Fetch(ctx context.Context, symbol string) domain.Quote {
	s.mu.Lock()
	s.order = append(s.order, symbol)
	s.mu.Unlock()
	<-s.gate
	if s.panic != "" && symbol == s.panic {
		panic("boom")
	}
	q := quoteAt(10)
	q.Code = symbol
	q.Source = "gated"
	return q
}

func (s *gatedSource) Order() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

type recorder struct {
	mu     sync.Mutex
	events []application.Event
}

func (r *recorder) HandleEvent(e application.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func (r *recorder) Events() []application.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]application.Event(nil), r.events...)
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("batch-%d", g.n)
}

// stubScheduler records FetchBatch calls.
type stubScheduler struct {
	mu      sync.Mutex
	pending int
	calls   [][]string
	prio    [][]string
}

var _ application.Scheduler = (*stubScheduler)(nil)

func (s *stubScheduler) FetchBatch(symbols, priority []string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, symbols)
	s.prio = append(s.prio, priority)
	return "b"
}

func (s *stubScheduler) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *stubScheduler) Progress() (int, int)              { return 0, 0 }
func (s *stubScheduler) Batch(string) (domain.Batch, bool) { return domain.Batch{}, false }
func (s *stubScheduler) ActiveWorkerCount() int            { return 0 }
func (s *stubScheduler) MaxWorkerCount() int               { return 1 }
func (s *stubScheduler) SetMaxWorkerCount(int)             {}
func (s *stubScheduler) Forget([]string)                   {}
func (s *stubScheduler) Pending() int                      { s.mu.Lock(); defer s.mu.Unlock(); return s.pending }
