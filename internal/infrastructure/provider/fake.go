package provider

import (
	"context"
	"hash/fnv"

	"stockquote-service/internal/application"
	"stockquote-service/internal/domain"
)

const FakeName = "fake"

// Ensure Fake implements application.Provider.
var _ application.Provider = (*Fake)(nil)

// Fake returns deterministic quotes derived from the symbol, for local runs
// without network access.
type Fake struct {
	base float64
}

func NewFake(base float64) *Fake { return &Fake{base: base} }

func (f *Fake) Name() string { return FakeName }

func (f *Fake) Get(_ context.Context, symbol string) (domain.Quote, error) {
	h := fnv.New32a()
	_, _ = h.Write([]byte(symbol))
	offset := float64(h.Sum32()%1000) / 100
	price := f.base + offset
	q := domain.Quote{
		Code:     symbol,
		Name:     "FAKE" + symbol,
		Price:    price,
		Open:     price * 0.99,
		High:     price * 1.01,
		Low:      price * 0.98,
		PreClose: price * 0.995,
		Volume:   int64(h.Sum32() % 1_000_000),
		Amount:   price * float64(h.Sum32()%1_000_000),
	}
	q.Derive()
	return q, nil
}
