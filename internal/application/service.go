package application

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"stockquote-service/internal/domain"
)

// QuoteService is the facade used by the HTTP layer.
type QuoteService struct {
	center    *DataCenter
	scheduler Scheduler
	watchlist *Watchlist
	quotes    QuoteRepo
	batches   BatchRepo
	idem      RefreshGuard
	clock     Clock
}

type Option func(*QuoteService)

func WithClock(c Clock) Option              { return func(s *QuoteService) { s.clock = c } }
func WithQuoteRepo(r QuoteRepo) Option      { return func(s *QuoteService) { s.quotes = r } }
func WithBatchRepo(r BatchRepo) Option      { return func(s *QuoteService) { s.batches = r } }
func WithIdempotency(i RefreshGuard) Option { return func(s *QuoteService) { s.idem = i } }

func NewQuoteService(center *DataCenter, scheduler Scheduler, watchlist *Watchlist, opts ...Option) *QuoteService {
	s := &QuoteService{
		center:    center,
		scheduler: scheduler,
		watchlist: watchlist,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.clock == nil {
		s.clock = realClock{}
	}
	if s.idem == nil {
		s.idem = NoopIdempotency{}
	}
	if s.watchlist == nil {
		s.watchlist = NewWatchlist(0)
	}
	return s
}

func parseSymbol(s string) (string, error) {
	code := domain.NormalizeSymbol(s)
	if err := domain.ValidateSymbol(code); err != nil {
		return "", fmt.Errorf("%w: symbol %q", ErrBadRequest, s)
	}
	return code, nil
}

// RequestRefresh schedules a batch and returns its id. Without explicit
// symbols the watchlist is refreshed.
func (s *QuoteService) RequestRefresh(ctx context.Context, symbols, priority []string, idem *string) (string, error) {
	if len(symbols) == 0 {
		symbols, priority = s.watchlist.Snapshot()
	}
	syms, err := normalizeSymbols(symbols)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if len(syms) == 0 {
		return "", fmt.Errorf("%w: no symbols to refresh", ErrBadRequest)
	}
	prio, err := normalizeSymbols(priority)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	// The key is reserved only for requests that will be scheduled.
	if idem != nil && *idem != "" {
		ok, err := s.idem.TryReserve(ctx, "refresh:"+*idem)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", ErrConflict
		}
	}
	return s.scheduler.FetchBatch(syms, prio), nil
}

// GetQuote reads the cache first and falls back to the last persisted quote.
func (s *QuoteService) GetQuote(ctx context.Context, symbol string) (domain.Quote, error) {
	code, err := parseSymbol(symbol)
	if err != nil {
		return domain.Quote{}, err
	}
	if q, ok := s.center.GetQuote(code); ok {
		return q, nil
	}
	if s.quotes == nil {
		return domain.Quote{}, ErrNotFound
	}
	q, err := s.quotes.GetLast(ctx, code)
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, ErrNotFound) {
		return domain.Quote{}, ErrNotFound
	}
	return q, err
}

func (s *QuoteService) ListQuotes() []domain.Quote {
	all := s.center.GetAllQuotes()
	out := make([]domain.Quote, 0, len(all))
	for _, q := range all {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func (s *QuoteService) GetBatch(ctx context.Context, id string) (domain.Batch, error) {
	if b, ok := s.scheduler.Batch(id); ok {
		return b, nil
	}
	if s.batches == nil {
		return domain.Batch{}, ErrNotFound
	}
	b, err := s.batches.GetBatch(ctx, id)
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, ErrNotFound) {
		return domain.Batch{}, ErrNotFound
	}
	return b, err
}

func (s *QuoteService) Progress() (completed, total int) { return s.scheduler.Progress() }

// SetWatchlist replaces the monitored symbols and clears cached state of the
// ones that were removed.
func (s *QuoteService) SetWatchlist(symbols, priority []string) ([]string, error) {
	removed, err := s.watchlist.Set(symbols, priority)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	s.scheduler.Forget(removed)
	for _, sym := range removed {
		s.center.ClearSymbol(sym)
	}
	return removed, nil
}

func (s *QuoteService) Watchlist() (symbols, priority []string) { return s.watchlist.Snapshot() }

func (s *QuoteService) GetKline(symbol string, period domain.Period) ([]domain.Bar, error) {
	code, err := parseSymbol(symbol)
	if err != nil {
		return nil, err
	}
	bars, ok := s.center.GetKline(code, period)
	if !ok {
		return nil, ErrNotFound
	}
	return bars, nil
}

// PutKline stores bars pushed by an external K-line collector, oldest first.
func (s *QuoteService) PutKline(symbol string, period domain.Period, bars []domain.Bar) error {
	code, err := parseSymbol(symbol)
	if err != nil {
		return err
	}
	if len(bars) == 0 {
		return fmt.Errorf("%w: no bars", ErrBadRequest)
	}
	sorted := append([]domain.Bar(nil), bars...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })
	s.center.UpdateKline(code, period, sorted)
	return nil
}

func (s *QuoteService) GetIndicators(symbol string) (map[string]domain.Indicator, error) {
	code, err := parseSymbol(symbol)
	if err != nil {
		return nil, err
	}
	inds := s.center.GetIndicators(code)
	if len(inds) == 0 {
		return nil, ErrNotFound
	}
	return inds, nil
}

type PoolStats struct {
	Active  int `json:"active"`
	Max     int `json:"max"`
	Pending int `json:"pending"`
}

func (s *QuoteService) PoolStats() PoolStats {
	return PoolStats{
		Active:  s.scheduler.ActiveWorkerCount(),
		Max:     s.scheduler.MaxWorkerCount(),
		Pending: s.scheduler.Pending(),
	}
}

func (s *QuoteService) SetMaxWorkers(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: max workers must be positive", ErrBadRequest)
	}
	s.scheduler.SetMaxWorkerCount(n)
	return nil
}

func (s *QuoteService) MarketStatus() domain.SessionStatus { return domain.Session(s.clock.Now()) }
