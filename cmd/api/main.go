package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"stockquote-service/internal/bootstrap"
	"stockquote-service/internal/infrastructure/logx"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func init() { _ = godotenv.Load() }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := bootstrap.InitAPI(ctx)
	if err != nil {
		logx.L().Fatal("init api", zap.Error(err))
	}
	defer cleanup()

	log := app.Engine.Log
	log.Info("api.starting",
		zap.String("port", app.Engine.Cfg.Port),
		zap.Strings("providers", app.Engine.Cfg.Providers),
		zap.Int("max_workers", app.Engine.Cfg.MaxWorkers),
		zap.Int("watchlist", app.Engine.Watchlist.Len()),
	)
	if err := app.Run(ctx); err != nil {
		log.Error("api.exited", zap.Error(err))
		cleanup()
		os.Exit(1)
	}
	log.Info("api.stopped")
}
