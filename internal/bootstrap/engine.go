package bootstrap

import (
	"context"
	"fmt"

	"stockquote-service/internal/application"
	"stockquote-service/internal/config"
	httpserver "stockquote-service/internal/infrastructure/http"
	"stockquote-service/internal/infrastructure/worker"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Engine owns the quote pipeline and every background worker around it.
type Engine struct {
	Cfg       config.Config
	Log       *zap.Logger
	Bus       *application.EventBus
	Center    *application.DataCenter
	Manager   *worker.QuoteManager
	Watchlist *application.Watchlist

	workers []application.Worker
	mirror  *application.SnapshotMirror
}

// NewEngine subscribes the indicator engine, price alerts and the optional
// sinks to the bus. A nil snapshot store or publisher disables that sink.
func NewEngine(
	cfg config.Config,
	log *zap.Logger,
	bus *application.EventBus,
	center *application.DataCenter,
	manager *worker.QuoteManager,
	watchlist *application.Watchlist,
	indicators *application.IndicatorEngine,
	alerts *application.PriceAlert,
	storage Storage,
	snapshots application.SnapshotStore,
	pub application.EventPublisher,
) (*Engine, error) {
	e := &Engine{Cfg: cfg, Log: log, Bus: bus, Center: center, Manager: manager, Watchlist: watchlist}

	bus.Subscribe(application.TopicKlineUpdated, indicators)
	bus.Subscribe(application.TopicQuoteUpdated, alerts)

	refresher := &worker.Refresher{
		Scheduler:        manager,
		Watchlist:        watchlist,
		Interval:         cfg.RefreshInterval,
		TradingHoursOnly: cfg.TradingHoursOnly,
		Log:              log.Named("refresher"),
	}
	session := &worker.SessionJobs{
		Center:         center,
		Scheduler:      manager,
		Watchlist:      watchlist,
		PreOpenSpec:    cfg.SessionCronOpen,
		AfterCloseSpec: cfg.SessionCronClose,
		Log:            log.Named("session"),
	}
	if err := session.Validate(); err != nil {
		return nil, fmt.Errorf("session jobs: %w", err)
	}
	e.workers = append(e.workers, refresher, session)

	if storage.Quotes != nil || storage.Batches != nil {
		rec := application.NewRecorder(storage.Quotes, storage.Batches, storage.UoW, cfg.SinkBuffer, log.Named("recorder"))
		bus.Subscribe(application.TopicQuoteUpdated, rec)
		bus.Subscribe(application.TopicBatchCompleted, rec)
		e.workers = append(e.workers, rec)
	}
	if snapshots != nil {
		e.mirror = application.NewSnapshotMirror(snapshots, cfg.SinkBuffer, log.Named("snapshot"))
		bus.Subscribe(application.TopicQuoteUpdated, e.mirror)
		e.workers = append(e.workers, e.mirror)
	}
	if pub != nil {
		fwd := application.NewForwarder(pub, cfg.SinkBuffer, log.Named("forwarder"))
		bus.Subscribe(application.TopicQuoteUpdated, fwd)
		bus.Subscribe(application.TopicBatchCompleted, fwd)
		bus.Subscribe(application.TopicAlertTriggered, fwd)
		e.workers = append(e.workers, fwd)
	}
	return e, nil
}

// Run warms the cache, starts every worker and blocks until ctx is done.
// On the way out queued fetches are dropped and running ones drained.
func (e *Engine) Run(ctx context.Context) error {
	if e.mirror != nil {
		n, err := e.mirror.Warm(ctx, e.Center)
		if err != nil {
			e.Log.Warn("engine.snapshot_warm_failed", zap.Error(err))
		} else {
			e.Log.Info("engine.snapshot_warmed", zap.Int("quotes", n))
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, w := range e.workers {
		w := w
		g.Go(func() error {
			w.Start(gctx)
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		dropped := e.Manager.CancelPending()
		drained := e.Manager.Drain(e.Cfg.ShutdownTimeout)
		e.Log.Info("engine.stopped", zap.Int("dropped", dropped), zap.Bool("drained", drained))
		return nil
	})
	return g.Wait()
}

// APIApp is the engine plus its HTTP surface.
type APIApp struct {
	Engine *Engine
	Server *httpserver.Server
}

func NewAPIApp(e *Engine, s *httpserver.Server) *APIApp { return &APIApp{Engine: e, Server: s} }

func (a *APIApp) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.Engine.Run(gctx) })
	g.Go(func() error {
		return httpserver.Serve(gctx, ":"+a.Engine.Cfg.Port, httpserver.NewRouter(a.Server), a.Engine.Cfg.ShutdownTimeout, a.Engine.Log)
	})
	return g.Wait()
}
