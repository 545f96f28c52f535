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

// The worker runs the refresh pipeline without the HTTP API. Quotes reach
// other processes through storage, the Redis snapshot or NSQ.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, cleanup, err := bootstrap.InitWorker(ctx)
	if err != nil {
		logx.L().Fatal("init worker", zap.Error(err))
	}
	defer cleanup()

	if engine.Watchlist.Len() == 0 {
		engine.Log.Warn("worker.empty_watchlist")
	}
	if err := engine.Run(ctx); err != nil {
		engine.Log.Error("worker.exited", zap.Error(err))
		cleanup()
		os.Exit(1)
	}
}
