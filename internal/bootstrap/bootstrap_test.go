package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"stockquote-service/internal/application"
	"stockquote-service/internal/config"
	"stockquote-service/internal/infrastructure/provider"
	"stockquote-service/internal/infrastructure/worker"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadAlertRules(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "alerts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
rules:
  - symbol: "600000"
    type: ma_touch
    ma: 5
  - symbol: "000001"
    type: price_break
    target: 12.5
    direction: above
  - symbol: "000002"
    type: change_pct
    disabled: true
`), 0o600))

	rules, err := LoadAlertRules(path)
	require.NoError(t, err)
	require.Len(t, rules, 3)
	require.Equal(t, application.AlertMATouch, rules[0].Type)
	require.Equal(t, 5, rules[0].MA)
	require.Equal(t, 12.5, rules[1].Target)
	require.True(t, rules[2].Disabled)

	_, err = LoadAlertRules(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "read alert rules")
}

func TestProvidePriceAlert_RejectsBadRule(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "alerts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules:\n  - symbol: \"600000\"\n    type: moon\n"), 0o600))

	cfg := config.Defaults()
	cfg.AlertRulesFile = path
	bus := application.NewEventBus(nil)
	_, err := ProvidePriceAlert(cfg, bus, application.NewDataCenter(bus), zap.NewNop())
	require.ErrorContains(t, err, "unknown type")
}

func TestProvideWatchlist(t *testing.T) {
	t.Parallel()
	cfg := config.Defaults()
	cfg.Watchlist = []string{"sh600000", "000001"}
	cfg.Priority = []string{"000001"}

	w, err := ProvideWatchlist(cfg)
	require.NoError(t, err)
	symbols, priority := w.Snapshot()
	require.Equal(t, []string{"600000", "000001"}, symbols)
	require.Equal(t, []string{"000001"}, priority)
}

func TestProvideStorage_None(t *testing.T) {
	t.Parallel()
	s, cleanup, err := ProvideStorage(context.Background(), config.Defaults(), zap.NewNop())
	require.NoError(t, err)
	defer cleanup()
	require.Nil(t, s.Quotes)
	require.Nil(t, s.Ping)
}

func TestEngine_RefreshesWatchlistAndStops(t *testing.T) {
	t.Parallel()
	cfg := config.Defaults()
	cfg.RefreshInterval = 20 * time.Millisecond
	cfg.ShutdownTimeout = time.Second
	cfg.Storage = "sqlite"
	cfg.SQLitePath = filepath.Join(t.TempDir(), "engine.db")
	log := zap.NewNop()

	bus := ProvideEventBus(log)
	center := application.NewDataCenter(bus)
	source := application.NewFailoverSource([]application.Provider{provider.NewFake(10)})
	manager := worker.NewQuoteManager(source, center, bus, 4)
	watchlist := application.NewWatchlist(0)
	_, err := watchlist.Set([]string{"600000", "000001"}, nil)
	require.NoError(t, err)

	storage, cleanup, err := ProvideStorage(context.Background(), cfg, log)
	require.NoError(t, err)
	defer cleanup()

	alerts, err := ProvidePriceAlert(cfg, bus, center, log)
	require.NoError(t, err)
	e, err := NewEngine(cfg, log, bus, center, manager, watchlist, ProvideIndicatorEngine(center, log), alerts, storage, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 2, bus.Subscribers(application.TopicQuoteUpdated))
	require.Equal(t, 1, bus.Subscribers(application.TopicKlineUpdated))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	require.Eventually(t, func() bool {
		_, err := storage.Quotes.GetLast(context.Background(), "000001")
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)

	q, ok := center.GetQuote("600000")
	require.True(t, ok)
	require.Equal(t, provider.FakeName, q.Source)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not stop")
	}
}

func TestNewEngine_InvalidCron(t *testing.T) {
	t.Parallel()
	cfg := config.Defaults()
	cfg.SessionCronOpen = "whenever"
	bus := application.NewEventBus(nil)
	center := application.NewDataCenter(bus)

	_, err := NewEngine(cfg, zap.NewNop(), bus, center,
		worker.NewQuoteManager(application.NewFailoverSource(nil), center, bus, 1),
		application.NewWatchlist(0),
		application.NewIndicatorEngine(center, nil, nil),
		application.NewPriceAlert(bus, center, nil, nil),
		Storage{}, nil, nil)
	require.ErrorContains(t, err, "pre-open")
}
