package worker

import (
	"context"
	"fmt"

	"stockquote-service/internal/application"
	"stockquote-service/internal/domain"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Cron specs with seconds, evaluated in exchange time.
const (
	DefaultPreOpenSpec    = "0 10 9 * * 1-5"
	DefaultAfterCloseSpec = "0 5 15 * * 1-5"
)

var _ application.Worker = (*SessionJobs)(nil)

// SessionJobs runs the once-a-day housekeeping around the trading session:
// stale error quotes are dropped before the open and a final refresh runs
// after the close.
type SessionJobs struct {
	Center    *application.DataCenter
	Scheduler application.Scheduler
	Watchlist *application.Watchlist

	PreOpenSpec    string
	AfterCloseSpec string
	Log            *zap.Logger
}

func (s *SessionJobs) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func (s *SessionJobs) PreOpen() int {
	n := s.Center.ClearErrors()
	s.log().Info("session.pre_open", zap.Int("cleared_errors", n))
	return n
}

func (s *SessionJobs) AfterClose() string {
	symbols, priority := s.Watchlist.Snapshot()
	if len(symbols) == 0 {
		return ""
	}
	id := s.Scheduler.FetchBatch(symbols, priority)
	s.log().Info("session.after_close", zap.String("batch_id", id), zap.Int("symbols", len(symbols)))
	return id
}

func (s *SessionJobs) schedule() (*cron.Cron, error) {
	open, closing := s.PreOpenSpec, s.AfterCloseSpec
	if open == "" {
		open = DefaultPreOpenSpec
	}
	if closing == "" {
		closing = DefaultAfterCloseSpec
	}
	c := cron.New(cron.WithSeconds(), cron.WithLocation(domain.Exchange))
	if _, err := c.AddFunc(open, func() { s.PreOpen() }); err != nil {
		return nil, fmt.Errorf("register pre-open job: %w", err)
	}
	if _, err := c.AddFunc(closing, func() { s.AfterClose() }); err != nil {
		return nil, fmt.Errorf("register after-close job: %w", err)
	}
	return c, nil
}

// Validate reports whether both cron specs parse.
func (s *SessionJobs) Validate() error {
	_, err := s.schedule()
	return err
}

func (s *SessionJobs) Start(ctx context.Context) {
	log := s.log()
	c, err := s.schedule()
	if err != nil {
		log.Error("session_jobs.invalid", zap.Error(err))
		return
	}
	c.Start()
	log.Info("session_jobs.started")
	<-ctx.Done()
	<-c.Stop().Done()
	log.Info("session_jobs.stopped")
}
