package worker

import (
	"context"
	"time"

	"stockquote-service/internal/application"
	"stockquote-service/internal/domain"

	"go.uber.org/zap"
)

const DefaultRefreshInterval = 3 * time.Second

var _ application.Worker = (*Refresher)(nil)

// Refresher schedules a batch for the watchlist on every tick.
type Refresher struct {
	Scheduler application.Scheduler
	Watchlist *application.Watchlist

	Interval         time.Duration
	TradingHoursOnly bool
	Clock            application.Clock
	Log              *zap.Logger
}

func (r *Refresher) Start(ctx context.Context) {
	log := r.Log
	if log == nil {
		log = zap.NewNop()
	}
	if r.Interval <= 0 {
		r.Interval = DefaultRefreshInterval
	}
	if r.Clock == nil {
		r.Clock = application.SystemClock
	}

	t := time.NewTicker(r.Interval)
	defer t.Stop()

	log.Info("refresher.started",
		zap.Duration("interval", r.Interval),
		zap.Bool("trading_hours_only", r.TradingHoursOnly),
	)
	r.tick(log)
	for {
		select {
		case <-ctx.Done():
			log.Info("refresher.stopped")
			return
		case <-t.C:
			r.tick(log)
		}
	}
}

// tick returns the id of the scheduled batch, or "" when the round was skipped.
func (r *Refresher) tick(log *zap.Logger) string {
	if r.TradingHoursOnly {
		now := r.Clock.Now()
		if !domain.IsTradingTime(now) && !domain.IsCallAuction(now) {
			return ""
		}
	}
	if n := r.Scheduler.Pending(); n > 0 {
		log.Debug("refresher.skipped", zap.Int("pending", n))
		return ""
	}
	symbols, priority := r.Watchlist.Snapshot()
	if len(symbols) == 0 {
		return ""
	}
	id := r.Scheduler.FetchBatch(symbols, priority)
	log.Debug("refresher.scheduled", zap.String("batch_id", id), zap.Int("symbols", len(symbols)))
	return id
}
