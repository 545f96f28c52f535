package application

import (
	"sort"
	"sync"

	"stockquote-service/internal/domain"
)

type klineKey struct {
	symbol string
	period domain.Period
}

// DataCenter is the in-memory store of the latest market state.
//
// Each map has its own lock so a slow K-line write never blocks a quote read.
// Values are copied on the way in and out; events are published only after
// the write lock is released.
type DataCenter struct {
	bus *EventBus

	quotesMu sync.RWMutex
	quotes   map[string]domain.Quote

	klinesMu sync.RWMutex
	klines   map[klineKey][]domain.Bar

	indicatorsMu sync.RWMutex
	indicators   map[string]map[string]domain.Indicator

	fundamentalsMu sync.RWMutex
	fundamentals   map[string]domain.Fundamental
}

func NewDataCenter(bus *EventBus) *DataCenter {
	return &DataCenter{
		bus:          bus,
		quotes:       map[string]domain.Quote{},
		klines:       map[klineKey][]domain.Bar{},
		indicators:   map[string]map[string]domain.Indicator{},
		fundamentals: map[string]domain.Fundamental{},
	}
}

func (d *DataCenter) publish(topic Topic, payload any) {
	if d.bus != nil {
		d.bus.Publish(topic, payload)
	}
}

func (d *DataCenter) GetQuote(symbol string) (domain.Quote, bool) {
	d.quotesMu.RLock()
	defer d.quotesMu.RUnlock()
	q, ok := d.quotes[symbol]
	return q, ok
}

func (d *DataCenter) UpdateQuote(symbol string, q domain.Quote) {
	d.quotesMu.Lock()
	d.quotes[symbol] = q
	d.quotesMu.Unlock()

	d.publish(TopicQuoteUpdated, QuoteUpdated{Symbol: symbol, Quote: q})
}

// RestoreQuotes seeds the cache without publishing. A cached quote that is
// at least as fresh as the restored one is kept. It returns the number stored.
func (d *DataCenter) RestoreQuotes(qs []domain.Quote) int {
	d.quotesMu.Lock()
	defer d.quotesMu.Unlock()
	n := 0
	for _, q := range qs {
		if cur, ok := d.quotes[q.Code]; ok && !cur.FetchedAt.Before(q.FetchedAt) {
			continue
		}
		d.quotes[q.Code] = q
		n++
	}
	return n
}

func (d *DataCenter) GetAllQuotes() map[string]domain.Quote {
	d.quotesMu.RLock()
	defer d.quotesMu.RUnlock()
	out := make(map[string]domain.Quote, len(d.quotes))
	for k, v := range d.quotes {
		out[k] = v
	}
	return out
}

// Symbols returns the sorted codes that currently have a quote.
func (d *DataCenter) Symbols() []string {
	d.quotesMu.RLock()
	out := make([]string, 0, len(d.quotes))
	for k := range d.quotes {
		out = append(out, k)
	}
	d.quotesMu.RUnlock()
	sort.Strings(out)
	return out
}

func (d *DataCenter) GetKline(symbol string, period domain.Period) ([]domain.Bar, bool) {
	d.klinesMu.RLock()
	defer d.klinesMu.RUnlock()
	bars, ok := d.klines[klineKey{symbol, period}]
	if !ok {
		return nil, false
	}
	return append([]domain.Bar(nil), bars...), true
}

func (d *DataCenter) UpdateKline(symbol string, period domain.Period, bars []domain.Bar) {
	stored := append([]domain.Bar(nil), bars...)
	d.klinesMu.Lock()
	d.klines[klineKey{symbol, period}] = stored
	d.klinesMu.Unlock()

	d.publish(TopicKlineUpdated, KlineUpdated{
		Symbol: symbol,
		Period: period,
		Bars:   append([]domain.Bar(nil), stored...),
	})
}

func copyIndicator(ind domain.Indicator) domain.Indicator {
	ind.Values = append([]float64(nil), ind.Values...)
	return ind
}

func (d *DataCenter) GetIndicator(symbol, name string) (domain.Indicator, bool) {
	d.indicatorsMu.RLock()
	defer d.indicatorsMu.RUnlock()
	ind, ok := d.indicators[symbol][name]
	if !ok {
		return domain.Indicator{}, false
	}
	return copyIndicator(ind), true
}

// GetIndicators returns every indicator stored for symbol keyed by name.
func (d *DataCenter) GetIndicators(symbol string) map[string]domain.Indicator {
	d.indicatorsMu.RLock()
	defer d.indicatorsMu.RUnlock()
	out := make(map[string]domain.Indicator, len(d.indicators[symbol]))
	for name, ind := range d.indicators[symbol] {
		out[name] = copyIndicator(ind)
	}
	return out
}

func (d *DataCenter) UpdateIndicator(symbol string, ind domain.Indicator) {
	stored := copyIndicator(ind)
	d.indicatorsMu.Lock()
	m, ok := d.indicators[symbol]
	if !ok {
		m = map[string]domain.Indicator{}
		d.indicators[symbol] = m
	}
	m[ind.Name] = stored
	d.indicatorsMu.Unlock()

	d.publish(TopicIndicatorUpdated, IndicatorUpdated{Symbol: symbol, Indicator: copyIndicator(stored)})
}

func (d *DataCenter) GetFundamental(symbol string) (domain.Fundamental, bool) {
	d.fundamentalsMu.RLock()
	defer d.fundamentalsMu.RUnlock()
	f, ok := d.fundamentals[symbol]
	return f, ok
}

func (d *DataCenter) UpdateFundamental(symbol string, f domain.Fundamental) {
	d.fundamentalsMu.Lock()
	d.fundamentals[symbol] = f
	d.fundamentalsMu.Unlock()
}

// ClearSymbol forgets everything stored for symbol.
func (d *DataCenter) ClearSymbol(symbol string) {
	d.quotesMu.Lock()
	delete(d.quotes, symbol)
	d.quotesMu.Unlock()

	d.klinesMu.Lock()
	for k := range d.klines {
		if k.symbol == symbol {
			delete(d.klines, k)
		}
	}
	d.klinesMu.Unlock()

	d.indicatorsMu.Lock()
	delete(d.indicators, symbol)
	d.indicatorsMu.Unlock()

	d.fundamentalsMu.Lock()
	delete(d.fundamentals, symbol)
	d.fundamentalsMu.Unlock()
}

func (d *DataCenter) ClearAll() {
	d.quotesMu.Lock()
	d.quotes = map[string]domain.Quote{}
	d.quotesMu.Unlock()

	d.klinesMu.Lock()
	d.klines = map[klineKey][]domain.Bar{}
	d.klinesMu.Unlock()

	d.indicatorsMu.Lock()
	d.indicators = map[string]map[string]domain.Indicator{}
	d.indicatorsMu.Unlock()

	d.fundamentalsMu.Lock()
	d.fundamentals = map[string]domain.Fundamental{}
	d.fundamentalsMu.Unlock()
}

// ClearErrors drops error sentinel quotes, keeping valid ones.
func (d *DataCenter) ClearErrors() int {
	d.quotesMu.Lock()
	defer d.quotesMu.Unlock()
	n := 0
	for k, q := range d.quotes {
		if q.IsError() {
			delete(d.quotes, k)
			n++
		}
	}
	return n
}
