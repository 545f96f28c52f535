package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stockquote-service/internal/domain"

	"go.uber.org/zap"
)

const (
	DefaultProviderTimeout = 5 * time.Second
	DefaultCapTimeout      = 3 * time.Second
)

// FailoverSource asks providers in order and returns the first valid quote.
// Responses are never merged across providers.
type FailoverSource struct {
	providers       []Provider
	caps            CapProvider
	providerTimeout time.Duration
	capTimeout      time.Duration
	clock           Clock
	log             *zap.Logger
}

var _ QuoteSource = (*FailoverSource)(nil)

type FailoverOption func(*FailoverSource)

func WithCapProvider(c CapProvider) FailoverOption {
	return func(s *FailoverSource) { s.caps = c }
}

func WithProviderTimeout(d time.Duration) FailoverOption {
	return func(s *FailoverSource) { s.providerTimeout = d }
}

func WithCapTimeout(d time.Duration) FailoverOption {
	return func(s *FailoverSource) { s.capTimeout = d }
}

func WithFailoverClock(c Clock) FailoverOption {
	return func(s *FailoverSource) { s.clock = c }
}

func WithFailoverLogger(l *zap.Logger) FailoverOption {
	return func(s *FailoverSource) { s.log = l }
}

func NewFailoverSource(providers []Provider, opts ...FailoverOption) *FailoverSource {
	s := &FailoverSource{
		providers:       append([]Provider(nil), providers...),
		providerTimeout: DefaultProviderTimeout,
		capTimeout:      DefaultCapTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.clock == nil {
		s.clock = realClock{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// Providers returns the provider names in query order.
func (s *FailoverSource) Providers() []string {
	names := make([]string, len(s.providers))
	for i, p := range s.providers {
		names[i] = p.Name()
	}
	return names
}

func (s *FailoverSource) Fetch(ctx context.Context, symbol string) domain.Quote {
	if err := domain.ValidateSymbol(symbol); err != nil {
		return domain.NewErrorQuote(symbol, domain.KindValidation, err.Error(), s.clock.Now())
	}

	var errs []error
	for _, p := range s.providers {
		q, err := s.try(ctx, p, symbol)
		if err != nil {
			s.log.Debug("failover.provider_failed",
				zap.String("provider", p.Name()),
				zap.String("symbol", symbol),
				zap.String("kind", string(domain.KindOf(err))),
				zap.Error(err),
			)
			errs = append(errs, err)
			continue
		}
		s.enrich(ctx, &q)
		return q
	}

	detail := "no providers configured"
	if len(errs) > 0 {
		detail = errors.Join(errs...).Error()
	}
	s.log.Warn("failover.all_sources_failed",
		zap.String("symbol", symbol),
		zap.Int("providers", len(s.providers)),
	)
	return domain.NewErrorQuote(symbol, domain.KindAllSourcesFailed, detail, s.clock.Now())
}

func (s *FailoverSource) try(ctx context.Context, p Provider, symbol string) (q domain.Quote, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = domain.ParseError(p.Name(), fmt.Errorf("panic: %v", r))
		}
	}()

	cctx, cancel := context.WithTimeout(ctx, s.providerTimeout)
	defer cancel()

	q, err = p.Get(cctx, symbol)
	if err != nil {
		return domain.Quote{}, err
	}
	if err := q.Validate(); err != nil {
		return domain.Quote{}, domain.ValidationError(p.Name(), err)
	}
	q.Code = symbol
	q.Source = p.Name()
	q.ErrorKind = ""
	q.ErrorDetail = ""
	if q.FetchedAt.IsZero() {
		q.FetchedAt = s.clock.Now()
	}
	return q, nil
}

// enrich fills market capitalisation; failures and panics leave the fields at zero.
func (s *FailoverSource) enrich(ctx context.Context, q *domain.Quote) {
	if s.caps == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			q.MarketCap, q.CirculationCap = 0, 0
			s.log.Debug("failover.market_cap_failed", zap.String("symbol", q.Code), zap.Any("panic", r))
		}
	}()
	cctx, cancel := context.WithTimeout(ctx, s.capTimeout)
	defer cancel()

	total, circ, err := s.caps.MarketCap(cctx, q.Code)
	if err != nil {
		s.log.Debug("failover.market_cap_failed", zap.String("symbol", q.Code), zap.Error(err))
		return
	}
	if total > 0 {
		q.MarketCap = total
	}
	if circ > 0 {
		q.CirculationCap = circ
	}
}
