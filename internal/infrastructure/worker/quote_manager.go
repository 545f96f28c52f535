package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"stockquote-service/internal/application"
	"stockquote-service/internal/domain"

	"go.uber.org/zap"
)

const (
	DefaultMaxWorkers = 30
	maxRecentBatches  = 64
)

type batchState struct {
	mu  sync.Mutex
	b   domain.Batch
	gen uint64
}

func (s *batchState) snapshot() domain.Batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.b
	if b.FinishedAt != nil {
		t := *b.FinishedAt
		b.FinishedAt = &t
	}
	return b
}

// QuoteManager fans quote fetches out over a bounded Pool, writes results into
// the DataCenter and reports per-batch progress on the EventBus.
//
// Every FetchBatch call owns its counters, so overlapping batches never
// interfere with each other's completion accounting.
type QuoteManager struct {
	source application.QuoteSource
	center *application.DataCenter
	bus    *application.EventBus
	pool   *Pool
	clock  application.Clock
	ids    application.IDGen
	log    *zap.Logger
	ctx    context.Context

	mu      sync.Mutex
	current *batchState
	recent  map[string]*batchState
	order   []string

	// writeMu orders cache writes against Forget. forgotten maps a symbol to
	// the generation in which it was last forgotten.
	writeMu   sync.RWMutex
	gen       uint64
	forgotten map[string]uint64
}

var _ application.Scheduler = (*QuoteManager)(nil)

type ManagerOption func(*QuoteManager)

func WithManagerClock(c application.Clock) ManagerOption {
	return func(m *QuoteManager) { m.clock = c }
}

func WithIDGen(g application.IDGen) ManagerOption {
	return func(m *QuoteManager) { m.ids = g }
}

func WithManagerLogger(l *zap.Logger) ManagerOption {
	return func(m *QuoteManager) { m.log = l }
}

// WithBaseContext sets the parent context of every fetch.
func WithBaseContext(ctx context.Context) ManagerOption {
	return func(m *QuoteManager) { m.ctx = ctx }
}

func NewQuoteManager(source application.QuoteSource, center *application.DataCenter, bus *application.EventBus, maxWorkers int, opts ...ManagerOption) *QuoteManager {
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	}
	m := &QuoteManager{
		source:    source,
		center:    center,
		bus:       bus,
		recent:    map[string]*batchState{},
		forgotten: map[string]uint64{},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.clock == nil {
		m.clock = application.SystemClock
	}
	if m.ids == nil {
		m.ids = application.UUIDGen
	}
	if m.log == nil {
		m.log = zap.NewNop()
	}
	if m.ctx == nil {
		m.ctx = context.Background()
	}
	m.pool = NewPool(maxWorkers, m.log)
	return m
}

// PriorityOrder returns the symbols listed in priority first, then the
// rest. Input order is kept within each group.
func PriorityOrder(symbols, priority []string) []string {
	prio := make(map[string]bool, len(priority))
	for _, p := range priority {
		prio[p] = true
	}
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if prio[s] {
			out = append(out, s)
		}
	}
	for _, s := range symbols {
		if !prio[s] {
			out = append(out, s)
		}
	}
	return out
}

func (m *QuoteManager) Configure(maxWorkers int) { m.SetMaxWorkerCount(maxWorkers) }

func (m *QuoteManager) SetMaxWorkerCount(n int) {
	m.pool.SetMax(n)
	m.log.Info("quote_manager.max_workers", zap.Int("max", m.pool.Max()))
}

func (m *QuoteManager) MaxWorkerCount() int    { return m.pool.Max() }
func (m *QuoteManager) ActiveWorkerCount() int { return m.pool.Active() }
func (m *QuoteManager) Pending() int           { return m.pool.Pending() }

// FetchBatch enqueues one fetch per symbol and returns the batch id without
// waiting. An empty symbol list schedules nothing and returns "".
func (m *QuoteManager) FetchBatch(symbols, priority []string) string {
	if len(symbols) == 0 {
		return ""
	}
	st := &batchState{b: domain.Batch{
		ID:        m.ids.NewID(),
		Total:     len(symbols),
		Status:    domain.BatchStatusRunning,
		StartedAt: m.clock.Now(),
	}}
	m.writeMu.RLock()
	st.gen = m.gen
	m.writeMu.RUnlock()
	m.remember(st)

	ordered := PriorityOrder(symbols, priority)
	m.log.Debug("quote_manager.batch_started",
		zap.String("batch_id", st.b.ID),
		zap.Int("total", len(ordered)),
		zap.Int("priority", len(priority)),
	)
	for _, sym := range ordered {
		sym := sym
		m.pool.Submit(
			func() { m.runTask(st, sym) },
			func() { m.finish(st, false, true) },
		)
	}
	return st.b.ID
}

func (m *QuoteManager) remember(st *batchState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = st
	m.recent[st.b.ID] = st
	m.order = append(m.order, st.b.ID)
	for len(m.order) > maxRecentBatches {
		delete(m.recent, m.order[0])
		m.order = m.order[1:]
	}
}

func (m *QuoteManager) runTask(st *batchState, sym string) {
	q := m.fetch(sym)
	m.store(st, sym, q)
	m.finish(st, q.IsError(), false)
}

// store writes q unless sym was forgotten after the batch was scheduled.
func (m *QuoteManager) store(st *batchState, sym string, q domain.Quote) {
	m.writeMu.RLock()
	defer m.writeMu.RUnlock()
	if m.forgotten[sym] > st.gen {
		m.log.Debug("quote_manager.result_discarded", zap.String("batch_id", st.b.ID), zap.String("symbol", sym))
		return
	}
	m.center.UpdateQuote(sym, q)
	if q.MarketCap > 0 || q.CirculationCap > 0 {
		m.center.UpdateFundamental(sym, domain.Fundamental{
			Code:           sym,
			MarketCap:      q.MarketCap,
			CirculationCap: q.CirculationCap,
			UpdatedAt:      q.FetchedAt,
		})
	}
}

// Forget clears symbols from the DataCenter. Fetches already scheduled for
// them still count towards their batch but no longer write to the cache.
func (m *QuoteManager) Forget(symbols []string) {
	if len(symbols) == 0 {
		return
	}
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	m.gen++
	for _, sym := range symbols {
		m.forgotten[sym] = m.gen
		m.center.ClearSymbol(sym)
	}
}

func (m *QuoteManager) fetch(sym string) (q domain.Quote) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("quote_manager.fetch_panic", zap.String("symbol", sym), zap.Any("r", r))
			q = domain.NewErrorQuote(sym, domain.KindAllSourcesFailed, fmt.Sprintf("panic: %v", r), m.clock.Now())
		}
	}()
	return m.source.Fetch(m.ctx, sym)
}

func (m *QuoteManager) finish(st *batchState, failed, canceled bool) {
	st.mu.Lock()
	if canceled {
		st.b.Canceled++
	} else {
		st.b.Completed++
		if failed {
			st.b.Failed++
		}
	}
	done := st.b.Status == domain.BatchStatusRunning && st.b.Done()
	if done {
		now := m.clock.Now()
		st.b.Status = domain.BatchStatusCompleted
		st.b.FinishedAt = &now
	}
	progress := application.BatchProgress{BatchID: st.b.ID, Completed: st.b.Completed, Total: st.b.Total}
	st.mu.Unlock()

	if !canceled {
		m.bus.Publish(application.TopicBatchProgress, progress)
	}
	if done {
		b := st.snapshot()
		m.log.Info("quote_manager.batch_completed",
			zap.String("batch_id", b.ID),
			zap.Int("total", b.Total),
			zap.Int("failed", b.Failed),
			zap.Int("canceled", b.Canceled),
			zap.Duration("took", b.FinishedAt.Sub(b.StartedAt)),
		)
		m.bus.Publish(application.TopicBatchCompleted, application.BatchCompleted{Batch: b})
	}
}

// Progress reports the counters of the most recent batch.
func (m *QuoteManager) Progress() (completed, total int) {
	m.mu.Lock()
	st := m.current
	m.mu.Unlock()
	if st == nil {
		return 0, 0
	}
	b := st.snapshot()
	return b.Completed, b.Total
}

func (m *QuoteManager) Batch(id string) (domain.Batch, bool) {
	m.mu.Lock()
	st, ok := m.recent[id]
	m.mu.Unlock()
	if !ok {
		return domain.Batch{}, false
	}
	return st.snapshot(), true
}

// Drain blocks until the pool is idle or timeout elapses.
func (m *QuoteManager) Drain(timeout time.Duration) bool { return m.pool.Drain(timeout) }

// CancelPending drops tasks that have not started. Their batches count them
// as canceled and still complete once the running tasks finish.
func (m *QuoteManager) CancelPending() int {
	n := m.pool.CancelPending()
	if n > 0 {
		m.log.Info("quote_manager.canceled_pending", zap.Int("dropped", n))
	}
	return n
}
