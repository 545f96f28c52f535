package application

import (
	"fmt"
	"sync"

	"stockquote-service/internal/domain"
)

const DefaultMaxMonitorStocks = 200

// Watchlist is the set of monitored symbols and the visible subset that is
// refreshed first.
type Watchlist struct {
	mu       sync.RWMutex
	max      int
	symbols  []string
	priority []string
}

func NewWatchlist(max int) *Watchlist {
	if max <= 0 {
		max = DefaultMaxMonitorStocks
	}
	return &Watchlist{max: max}
}

func normalizeSymbols(in []string) ([]string, error) {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		code := domain.NormalizeSymbol(s)
		if err := domain.ValidateSymbol(code); err != nil {
			return nil, fmt.Errorf("%w: %q", err, s)
		}
		if seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, code)
	}
	return out, nil
}

// Set replaces the watchlist and returns the symbols that were removed.
// Priority entries that are not in symbols are dropped.
func (w *Watchlist) Set(symbols, priority []string) (removed []string, err error) {
	syms, err := normalizeSymbols(symbols)
	if err != nil {
		return nil, err
	}
	if len(syms) > w.max {
		return nil, fmt.Errorf("watchlist holds at most %d symbols, got %d", w.max, len(syms))
	}
	prio, err := normalizeSymbols(priority)
	if err != nil {
		return nil, err
	}
	in := make(map[string]bool, len(syms))
	for _, s := range syms {
		in[s] = true
	}
	kept := prio[:0]
	for _, p := range prio {
		if in[p] {
			kept = append(kept, p)
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for _, old := range w.symbols {
		if !in[old] {
			removed = append(removed, old)
		}
	}
	w.symbols = syms
	w.priority = kept
	return removed, nil
}

// SetPriority replaces only the visible subset.
func (w *Watchlist) SetPriority(priority []string) error {
	prio, err := normalizeSymbols(priority)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.priority = prio
	w.mu.Unlock()
	return nil
}

func (w *Watchlist) Snapshot() (symbols, priority []string) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]string(nil), w.symbols...), append([]string(nil), w.priority...)
}

func (w *Watchlist) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.symbols)
}
