package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"stockmarket-service/internal/bootstrap"
	"stockmarket-service/internal/config"
	"stockmarket-service/internal/infrastructure/logx"
)

func init() { _ = godotenv.Load() }

func main() {
	log := logx.L()
	cfg := config.Load()

	ing, err := config.LoadIngestion(cfg.IngestionConfigPath)
	if err != nil {
		log.Fatal("load ingestion config", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repos, cleanup, err := bootstrap.BuildRepos(ctx, cfg)
	if err != nil {
		log.Fatal("bootstrap repos", zap.Error(err))
	}
	defer cleanup()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		cancel()
	}()

	if sched := bootstrap.BuildPullScheduler(cfg, ing, bootstrap.BuildBatch(cfg, ing, repos)); sched != nil {
		go sched.Start(ctx)
	}

	w := bootstrap.BuildWorker(cfg, repos)
	w.Start(ctx)
}
