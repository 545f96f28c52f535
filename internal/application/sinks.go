package application

import (
	"context"
	"sync/atomic"
	"time"

	"stockquote-service/internal/domain"

	"go.uber.org/zap"
)

const (
	defaultSinkBuffer  = 1024
	defaultSinkTimeout = 5 * time.Second
)

// eventQueue decouples bus publishers from slow I/O. Offers never block;
// events that do not fit are dropped and counted.
type eventQueue struct {
	name    string
	ch      chan Event
	dropped atomic.Int64
	log     *zap.Logger
}

func newEventQueue(name string, size int, log *zap.Logger) *eventQueue {
	if size <= 0 {
		size = defaultSinkBuffer
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &eventQueue{name: name, ch: make(chan Event, size), log: log}
}

func (q *eventQueue) offer(ev Event) {
	select {
	case q.ch <- ev:
	default:
		n := q.dropped.Add(1)
		q.log.Warn(q.name+".dropped", zap.String("topic", string(ev.Topic)), zap.Int64("dropped_total", n))
	}
}

func (q *eventQueue) run(ctx context.Context, fn func(context.Context, Event) error) {
	q.log.Info(q.name + ".started")
	for {
		select {
		case <-ctx.Done():
			q.log.Info(q.name + ".stopped")
			return
		case ev := <-q.ch:
			q.process(ctx, ev, fn)
		}
	}
}

func (q *eventQueue) process(ctx context.Context, ev Event, fn func(context.Context, Event) error) {
	defer func() {
		if r := recover(); r != nil {
			q.log.Error(q.name+".panic", zap.Any("panic", r))
		}
	}()
	cctx, cancel := context.WithTimeout(ctx, defaultSinkTimeout)
	defer cancel()
	if err := fn(cctx, ev); err != nil {
		q.log.Warn(q.name+".failed", zap.String("topic", string(ev.Topic)), zap.Error(err))
	}
}

func (q *eventQueue) Dropped() int64 { return q.dropped.Load() }

// Recorder persists valid quotes and finished batches.
type Recorder struct {
	quotes  QuoteRepo
	batches BatchRepo
	uow     UnitOfWork
	queue   *eventQueue
}

var _ Worker = (*Recorder)(nil)

func NewRecorder(quotes QuoteRepo, batches BatchRepo, uow UnitOfWork, buffer int, log *zap.Logger) *Recorder {
	if uow == nil {
		uow = NoopUoW{}
	}
	return &Recorder{
		quotes:  quotes,
		batches: batches,
		uow:     uow,
		queue:   newEventQueue("recorder", buffer, log),
	}
}

func (r *Recorder) HandleEvent(ev Event) {
	switch p := ev.Payload.(type) {
	case QuoteUpdated:
		if r.quotes == nil || p.Quote.IsError() {
			return
		}
	case BatchCompleted:
		if r.batches == nil {
			return
		}
	default:
		return
	}
	r.queue.offer(ev)
}

func (r *Recorder) Start(ctx context.Context) { r.queue.run(ctx, r.persist) }

func (r *Recorder) Dropped() int64 { return r.queue.Dropped() }

func (r *Recorder) persist(ctx context.Context, ev Event) error {
	switch p := ev.Payload.(type) {
	case QuoteUpdated:
		return r.uow.Do(ctx, func(ctx context.Context) error {
			if err := r.quotes.Upsert(ctx, p.Quote); err != nil {
				return err
			}
			return r.quotes.AppendHistory(ctx, domain.HistoryFromQuote(p.Quote))
		})
	case BatchCompleted:
		return r.batches.SaveBatch(ctx, p.Batch)
	}
	return nil
}

// SnapshotMirror copies every valid quote into a SnapshotStore.
type SnapshotMirror struct {
	store SnapshotStore
	queue *eventQueue
}

var _ Worker = (*SnapshotMirror)(nil)

func NewSnapshotMirror(store SnapshotStore, buffer int, log *zap.Logger) *SnapshotMirror {
	return &SnapshotMirror{store: store, queue: newEventQueue("snapshot_mirror", buffer, log)}
}

func (m *SnapshotMirror) HandleEvent(ev Event) {
	if p, ok := ev.Payload.(QuoteUpdated); ok && !p.Quote.IsError() {
		m.queue.offer(ev)
	}
}

func (m *SnapshotMirror) Start(ctx context.Context) {
	m.queue.run(ctx, func(ctx context.Context, ev Event) error {
		return m.store.Save(ctx, ev.Payload.(QuoteUpdated).Quote)
	})
}

// Warm loads mirrored quotes into the DataCenter. No QuoteUpdated is
// published, so alerts and sinks only see quotes fetched by this process.
func (m *SnapshotMirror) Warm(ctx context.Context, center *DataCenter) (int, error) {
	qs, err := m.store.LoadAll(ctx)
	if err != nil {
		return 0, err
	}
	return center.RestoreQuotes(qs), nil
}

// Forwarder hands valid quotes, finished batches and alerts to an
// EventPublisher off the publishing goroutine.
type Forwarder struct {
	pub   EventPublisher
	queue *eventQueue
}

var _ Worker = (*Forwarder)(nil)

func NewForwarder(pub EventPublisher, buffer int, log *zap.Logger) *Forwarder {
	return &Forwarder{pub: pub, queue: newEventQueue("forwarder", buffer, log)}
}

func (f *Forwarder) HandleEvent(ev Event) {
	switch p := ev.Payload.(type) {
	case QuoteUpdated:
		if p.Quote.IsError() {
			return
		}
	case BatchCompleted, AlertTriggered:
	default:
		return
	}
	f.queue.offer(ev)
}

func (f *Forwarder) Start(ctx context.Context) { f.queue.run(ctx, f.pub.PublishEvent) }

func (f *Forwarder) Dropped() int64 { return f.queue.Dropped() }
