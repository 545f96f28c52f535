package application

import (
	"fmt"
	"sync"
	"time"

	"stockquote-service/internal/domain"

	"go.uber.org/zap"
)

type Topic string

const (
	TopicQuoteUpdated     Topic = "quote.updated"
	TopicKlineUpdated     Topic = "kline.updated"
	TopicIndicatorUpdated Topic = "indicator.updated"
	TopicBatchProgress    Topic = "batch.progress"
	TopicBatchCompleted   Topic = "batch.completed"
	TopicAlertTriggered   Topic = "alert.triggered"
)

type Event struct {
	Topic   Topic
	Payload any
}

// Handler receives events. Subscriptions are keyed by handler identity,
// so implementations should be pointers.
type Handler interface {
	HandleEvent(Event)
}

// FuncHandler adapts a function to Handler. Always use it through the
// pointer returned by NewHandler.
type FuncHandler struct {
	fn func(Event)
}

func NewHandler(fn func(Event)) *FuncHandler { return &FuncHandler{fn: fn} }

func (h *FuncHandler) HandleEvent(e Event) { h.fn(e) }

type QuoteUpdated struct {
	Symbol string
	Quote  domain.Quote
}

type KlineUpdated struct {
	Symbol string
	Period domain.Period
	Bars   []domain.Bar
}

type IndicatorUpdated struct {
	Symbol    string
	Indicator domain.Indicator
}

type BatchProgress struct {
	BatchID   string
	Completed int
	Total     int
}

type BatchCompleted struct {
	Batch domain.Batch
}

type AlertTriggered struct {
	Symbol  string
	Rule    string
	Message string
	Price   float64
	At      time.Time
}

// EventBus is a synchronous in-process publish/subscribe hub.
type EventBus struct {
	mu   sync.RWMutex
	subs map[Topic][]Handler
	log  *zap.Logger
}

func NewEventBus(log *zap.Logger) *EventBus {
	if log == nil {
		log = zap.NewNop()
	}
	return &EventBus{subs: map[Topic][]Handler{}, log: log}
}

// Subscribe registers h for topic. Registering the same handler twice is a no-op.
func (b *EventBus) Subscribe(topic Topic, h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, existing := range b.subs[topic] {
		if existing == h {
			return
		}
	}
	b.subs[topic] = append(b.subs[topic], h)
}

func (b *EventBus) Unsubscribe(topic Topic, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	hs := b.subs[topic]
	for i, existing := range hs {
		if existing != h {
			continue
		}
		next := make([]Handler, 0, len(hs)-1)
		next = append(next, hs[:i]...)
		next = append(next, hs[i+1:]...)
		if len(next) == 0 {
			delete(b.subs, topic)
		} else {
			b.subs[topic] = next
		}
		return
	}
}

// Publish calls every handler registered for topic on the caller's goroutine,
// in registration order. A panicking handler is logged and skipped.
func (b *EventBus) Publish(topic Topic, payload any) {
	b.mu.RLock()
	hs := make([]Handler, len(b.subs[topic]))
	copy(hs, b.subs[topic])
	b.mu.RUnlock()

	ev := Event{Topic: topic, Payload: payload}
	for _, h := range hs {
		b.invoke(h, ev)
	}
}

func (b *EventBus) invoke(h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event_bus.handler_panic",
				zap.String("topic", string(ev.Topic)),
				zap.String("handler", fmt.Sprintf("%T", h)),
				zap.Any("panic", r),
			)
		}
	}()
	h.HandleEvent(ev)
}

// Clear drops the subscriptions of the given topics, or of every topic when
// called without arguments.
func (b *EventBus) Clear(topics ...Topic) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(topics) == 0 {
		b.subs = map[Topic][]Handler{}
		return
	}
	for _, t := range topics {
		delete(b.subs, t)
	}
}

// Subscribers returns the number of handlers registered for topic.
func (b *EventBus) Subscribers(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}
