package application

import (
	"fmt"
	"math"
	"sync"
	"time"

	"stockquote-service/internal/domain"

	"go.uber.org/zap"
)

type AlertType string

const (
	AlertMATouch    AlertType = "ma_touch"
	AlertPriceBreak AlertType = "price_break"
	AlertChangePct  AlertType = "change_pct"
)

const (
	DefaultAlertWindow      = 5 * time.Minute
	defaultMATouchThreshold = 0.5
	defaultChangeThreshold  = 5
)

// AlertRule is one price alert condition for a symbol.
type AlertRule struct {
	Symbol    string    `yaml:"symbol" json:"symbol"`
	Type      AlertType `yaml:"type" json:"type"`
	MA        int       `yaml:"ma,omitempty" json:"ma,omitempty"`
	Threshold float64   `yaml:"threshold,omitempty" json:"threshold,omitempty"`
	Target    float64   `yaml:"target,omitempty" json:"target,omitempty"`
	Direction string    `yaml:"direction,omitempty" json:"direction,omitempty"`
	Disabled  bool      `yaml:"disabled,omitempty" json:"disabled,omitempty"`
}

func (r AlertRule) Validate() error {
	if err := domain.ValidateSymbol(r.Symbol); err != nil {
		return fmt.Errorf("alert rule %q: %w", r.Symbol, err)
	}
	switch r.Type {
	case AlertMATouch:
		if r.MA <= 0 {
			return fmt.Errorf("alert rule %s: ma period required", r.Symbol)
		}
	case AlertPriceBreak:
		if r.Target <= 0 {
			return fmt.Errorf("alert rule %s: target required", r.Symbol)
		}
		if r.Direction != "" && r.Direction != "above" && r.Direction != "below" {
			return fmt.Errorf("alert rule %s: direction %q", r.Symbol, r.Direction)
		}
	case AlertChangePct:
	default:
		return fmt.Errorf("alert rule %s: unknown type %q", r.Symbol, r.Type)
	}
	return nil
}

// PriceAlert evaluates rules against every valid quote update and publishes
// AlertTriggered. An alert key fires at most once per window.
type PriceAlert struct {
	bus    *EventBus
	center *DataCenter
	clock  Clock
	window time.Duration
	log    *zap.Logger

	mu      sync.Mutex
	rules   map[string][]AlertRule
	history map[string]time.Time
}

func NewPriceAlert(bus *EventBus, center *DataCenter, clock Clock, log *zap.Logger) *PriceAlert {
	if clock == nil {
		clock = realClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &PriceAlert{
		bus:     bus,
		center:  center,
		clock:   clock,
		window:  DefaultAlertWindow,
		log:     log,
		rules:   map[string][]AlertRule{},
		history: map[string]time.Time{},
	}
}

func (a *PriceAlert) AddRule(r AlertRule) error {
	if err := r.Validate(); err != nil {
		return err
	}
	a.mu.Lock()
	a.rules[r.Symbol] = append(a.rules[r.Symbol], r)
	a.mu.Unlock()
	return nil
}

// RemoveRules deletes the rules of symbol, all of them when typ is empty.
func (a *PriceAlert) RemoveRules(symbol string, typ AlertType) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if typ == "" {
		delete(a.rules, symbol)
		return
	}
	kept := a.rules[symbol][:0:0]
	for _, r := range a.rules[symbol] {
		if r.Type != typ {
			kept = append(kept, r)
		}
	}
	a.rules[symbol] = kept
}

func (a *PriceAlert) Rules(symbol string) []AlertRule {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]AlertRule(nil), a.rules[symbol]...)
}

func (a *PriceAlert) ClearHistory() {
	a.mu.Lock()
	a.history = map[string]time.Time{}
	a.mu.Unlock()
}

func (a *PriceAlert) HandleEvent(ev Event) {
	p, ok := ev.Payload.(QuoteUpdated)
	if !ok {
		return
	}
	a.Check(p.Quote)
}

// Check evaluates the rules of q.Code and returns the alerts fired.
func (a *PriceAlert) Check(q domain.Quote) []AlertTriggered {
	if q.IsError() || q.Price <= 0 {
		return nil
	}
	rules := a.Rules(q.Code)
	var fired []AlertTriggered
	for _, r := range rules {
		if r.Disabled {
			continue
		}
		key, msg, ok := a.evaluate(r, q)
		if !ok || !a.shouldAlert(key) {
			continue
		}
		ev := AlertTriggered{Symbol: q.Code, Rule: key, Message: msg, Price: q.Price, At: a.clock.Now()}
		fired = append(fired, ev)
		a.log.Info("price_alert.triggered", zap.String("symbol", q.Code), zap.String("rule", key), zap.String("message", msg))
		if a.bus != nil {
			a.bus.Publish(TopicAlertTriggered, ev)
		}
	}
	return fired
}

func (a *PriceAlert) evaluate(r AlertRule, q domain.Quote) (key, msg string, ok bool) {
	switch r.Type {
	case AlertMATouch:
		if a.center == nil {
			return "", "", false
		}
		name := fmt.Sprintf("ma%d", r.MA)
		ind, found := a.center.GetIndicator(q.Code, name)
		if !found {
			return "", "", false
		}
		ma, has := ind.Last()
		if !has || ma <= 0 {
			return "", "", false
		}
		threshold := r.Threshold
		if threshold <= 0 {
			threshold = defaultMATouchThreshold
		}
		deviation := math.Abs(q.Price-ma) / ma * 100
		if deviation > threshold {
			return "", "", false
		}
		side := "below"
		if q.Price > ma {
			side = "above"
		}
		return fmt.Sprintf("%s_%s_touch", q.Code, name),
			fmt.Sprintf("price %.2f touched %s %.2f from %s (%.2f%%)", q.Price, name, ma, side, deviation), true

	case AlertPriceBreak:
		dir := r.Direction
		if dir == "" {
			dir = "above"
		}
		if (dir == "above" && q.Price < r.Target) || (dir == "below" && q.Price > r.Target) {
			return "", "", false
		}
		return fmt.Sprintf("%s_break_%s_%g", q.Code, dir, r.Target),
			fmt.Sprintf("price %.2f broke %s %.2f", q.Price, dir, r.Target), true

	case AlertChangePct:
		threshold := r.Threshold
		if threshold <= 0 {
			threshold = defaultChangeThreshold
		}
		if math.Abs(q.ChangePct) < threshold {
			return "", "", false
		}
		return fmt.Sprintf("%s_change_%d", q.Code, int(q.ChangePct)),
			fmt.Sprintf("change %.2f%% reached threshold %.2f%%", q.ChangePct, threshold), true
	}
	return "", "", false
}

func (a *PriceAlert) shouldAlert(key string) bool {
	now := a.clock.Now()
	a.mu.Lock()
	defer a.mu.Unlock()
	if last, ok := a.history[key]; ok && now.Sub(last) < a.window {
		return false
	}
	a.history[key] = now
	return true
}
