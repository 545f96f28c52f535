//go:build wireinject

package bootstrap

import (
	"context"

	"stockquote-service/internal/application"
	"stockquote-service/internal/infrastructure/worker"

	"github.com/google/wire"
)

var engineSet = wire.NewSet(
	ProvideConfig,
	ProvideLogger,
	ProvideEventBus,
	application.NewDataCenter,
	ProvideHTTPClient,
	ProvideProviders,
	ProvideQuoteSource,
	ProvideQuoteManager,
	wire.Bind(new(application.Scheduler), new(*worker.QuoteManager)),
	ProvideWatchlist,
	ProvideStorage,
	ProvideRedisClient,
	ProvideSnapshotStore,
	ProvideEventPublisher,
	ProvidePriceAlert,
	ProvideIndicatorEngine,
	NewEngine,
)

// InitAPI builds the engine with its HTTP server.
func InitAPI(ctx context.Context) (*APIApp, func(), error) {
	wire.Build(
		engineSet,
		ProvideIdempotency,
		ProvideQuoteService,
		ProvideServer,
		NewAPIApp,
	)
	return nil, nil, nil
}

// InitWorker builds a headless engine.
func InitWorker(ctx context.Context) (*Engine, func(), error) {
	wire.Build(engineSet)
	return nil, nil, nil
}
