package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"

	"stockquote-service/internal/application"
	"stockquote-service/internal/config"
	httpserver "stockquote-service/internal/infrastructure/http"
	"stockquote-service/internal/infrastructure/httpx"
	"stockquote-service/internal/infrastructure/logx"
	nsqbridge "stockquote-service/internal/infrastructure/nsq"
	"stockquote-service/internal/infrastructure/pg"
	"stockquote-service/internal/infrastructure/provider"
	redisstore "stockquote-service/internal/infrastructure/redis"
	"stockquote-service/internal/infrastructure/sqlite"
	"stockquote-service/internal/infrastructure/worker"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var ErrMissingDBURL = errors.New("DATABASE_URL is required for STORAGE=pg")

// Storage groups the persistence ports. Every field is nil for STORAGE=none.
type Storage struct {
	Quotes  application.QuoteRepo
	Batches application.BatchRepo
	UoW     application.UnitOfWork
	Ping    func(ctx context.Context) error
}

func ProvideConfig() (config.Config, error) { return config.Load() }

func ProvideLogger(cfg config.Config) (*zap.Logger, func(), error) {
	log, err := logx.Init(logx.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return nil, func() {}, fmt.Errorf("init logger: %w", err)
	}
	return log, func() { _ = log.Sync() }, nil
}

func ProvideEventBus(log *zap.Logger) *application.EventBus {
	return application.NewEventBus(log.Named("event_bus"))
}

func ProvideHTTPClient(cfg config.Config) *httpx.Client {
	return httpx.New(cfg.ProviderTimeout, nil)
}

func ProvideProviders(cfg config.Config, client *httpx.Client) ([]application.Provider, error) {
	return provider.Chain(cfg.Providers, provider.Endpoints{
		Sina:      cfg.SinaBase,
		Netease:   cfg.NeteaseBase,
		Tencent:   cfg.TencentBase,
		Eastmoney: cfg.EastmoneyBase,
	}, client)
}

func ProvideQuoteSource(cfg config.Config, providers []application.Provider, client *httpx.Client, log *zap.Logger) application.QuoteSource {
	opts := []application.FailoverOption{
		application.WithProviderTimeout(cfg.ProviderTimeout),
		application.WithCapTimeout(cfg.CapTimeout),
		application.WithFailoverLogger(log.Named("failover")),
	}
	if cfg.MarketCap {
		opts = append(opts, application.WithCapProvider(provider.NewEastmoney(cfg.EastmoneyBase, client)))
	}
	return application.NewFailoverSource(providers, opts...)
}

func ProvideQuoteManager(cfg config.Config, source application.QuoteSource, center *application.DataCenter, bus *application.EventBus, log *zap.Logger) *worker.QuoteManager {
	return worker.NewQuoteManager(source, center, bus, cfg.MaxWorkers,
		worker.WithManagerLogger(log.Named("quote_manager")),
	)
}

func ProvideWatchlist(cfg config.Config) (*application.Watchlist, error) {
	w := application.NewWatchlist(cfg.MaxMonitorStocks)
	if len(cfg.Watchlist) == 0 {
		return w, nil
	}
	if _, err := w.Set(cfg.Watchlist, cfg.Priority); err != nil {
		return nil, fmt.Errorf("watchlist: %w", err)
	}
	return w, nil
}

func ProvideStorage(ctx context.Context, cfg config.Config, log *zap.Logger) (Storage, func(), error) {
	switch cfg.Storage {
	case "pg":
		if cfg.DatabaseURL == "" {
			return Storage{}, func() {}, ErrMissingDBURL
		}
		db, err := pg.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return Storage{}, func() {}, err
		}
		if err := pg.RunMigrations(ctx, db); err != nil {
			db.Close()
			return Storage{}, func() {}, err
		}
		cleanup := func() {
			log.Info("pg.closing")
			db.Close()
		}
		return Storage{
			Quotes:  pg.NewQuoteRepo(db),
			Batches: pg.NewBatchRepo(db),
			UoW:     &pg.UnitOfWork{Pool: db.Pool},
			Ping:    db.Ping,
		}, cleanup, nil
	case "sqlite":
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return Storage{}, func() {}, err
		}
		cleanup := func() {
			log.Info("sqlite.closing")
			_ = db.Close()
		}
		return Storage{
			Quotes:  sqlite.NewQuoteRepo(db),
			Batches: sqlite.NewBatchRepo(db),
			UoW:     application.NoopUoW{},
			Ping:    db.Ping,
		}, cleanup, nil
	default:
		return Storage{}, func() {}, nil
	}
}

// ProvideRedisClient returns nil when REDIS_ADDR is empty.
func ProvideRedisClient(cfg config.Config) (*redis.Client, func(), error) {
	if cfg.RedisAddr == "" {
		return nil, func() {}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return client, func() { _ = client.Close() }, nil
}

func ProvideIdempotency(client *redis.Client, cfg config.Config) application.RefreshGuard {
	if client == nil {
		return application.NoopIdempotency{}
	}
	return redisstore.New(client, cfg.RedisTTL)
}

func ProvideSnapshotStore(client *redis.Client, cfg config.Config) application.SnapshotStore {
	if client == nil {
		return nil
	}
	return redisstore.NewSnapshots(client, cfg.RedisTTL)
}

// ProvideEventPublisher dials nsqd when NSQ_ADDR is set.
func ProvideEventPublisher(cfg config.Config, log *zap.Logger) (application.EventPublisher, func(), error) {
	if cfg.NSQAddr == "" {
		return nil, func() {}, nil
	}
	producer, err := nsqbridge.Dial(cfg.NSQAddr, log)
	if err != nil {
		return nil, func() {}, err
	}
	bridge := nsqbridge.NewBridge(producer, cfg.NSQTopic, log.Named("nsq"))
	return bridge, bridge.Close, nil
}

type alertRulesFile struct {
	Rules []application.AlertRule `yaml:"rules"`
}

// LoadAlertRules reads a YAML document with a top-level "rules" list.
func LoadAlertRules(path string) ([]application.AlertRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read alert rules: %w", err)
	}
	var f alertRulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse alert rules: %w", err)
	}
	return f.Rules, nil
}

func ProvidePriceAlert(cfg config.Config, bus *application.EventBus, center *application.DataCenter, log *zap.Logger) (*application.PriceAlert, error) {
	alerts := application.NewPriceAlert(bus, center, application.SystemClock, log.Named("alerts"))
	if cfg.AlertRulesFile == "" {
		return alerts, nil
	}
	rules, err := LoadAlertRules(cfg.AlertRulesFile)
	if err != nil {
		return nil, err
	}
	for _, r := range rules {
		if r.Disabled {
			continue
		}
		if err := alerts.AddRule(r); err != nil {
			return nil, err
		}
	}
	log.Info("alerts.rules_loaded", zap.Int("rules", len(rules)), zap.String("file", cfg.AlertRulesFile))
	return alerts, nil
}

func ProvideIndicatorEngine(center *application.DataCenter, log *zap.Logger) *application.IndicatorEngine {
	return application.NewIndicatorEngine(center, application.SystemClock, log.Named("indicators"))
}

func ProvideQuoteService(center *application.DataCenter, scheduler application.Scheduler, watchlist *application.Watchlist, storage Storage, idem application.RefreshGuard) *application.QuoteService {
	opts := []application.Option{application.WithIdempotency(idem)}
	if storage.Quotes != nil {
		opts = append(opts, application.WithQuoteRepo(storage.Quotes))
	}
	if storage.Batches != nil {
		opts = append(opts, application.WithBatchRepo(storage.Batches))
	}
	return application.NewQuoteService(center, scheduler, watchlist, opts...)
}

func ProvideServer(svc *application.QuoteService, storage Storage) *httpserver.Server {
	srv := httpserver.NewServer(svc)
	if storage.Ping != nil {
		srv.SetReadyCheck(storage.Ping)
	}
	return srv
}
