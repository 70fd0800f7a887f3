package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"stockmarket-service/internal/application"
	"stockmarket-service/internal/bootstrap"
	"stockmarket-service/internal/config"
	infraconfig "stockmarket-service/internal/infrastructure/config"
	httpserver "stockmarket-service/internal/infrastructure/http"
	"stockmarket-service/internal/infrastructure/logx"
)

func init() { _ = godotenv.Load() }

func main() {
	ctx := context.Background()
	logger := logx.L()
	cfg := config.Load()
	addr := ":" + cfg.Port

	ing, err := config.LoadIngestion(cfg.IngestionConfigPath)
	if err != nil {
		logger.Fatal("load ingestion config", zap.Error(err))
	}

	repos, cleanup, err := bootstrap.BuildRepos(ctx, cfg)
	if err != nil {
		logger.Fatal("bootstrap repos", zap.Error(err))
	}
	defer cleanup()

	services, closeRedis, err := bootstrap.BuildIdempotency(cfg)
	if err != nil {
		logger.Fatal("bootstrap idempotency", zap.Error(err))
	}
	defer closeRedis()

	svc := application.NewStockPriceService(repos.Prices, repos.Jobs, services.Idem)
	batch := bootstrap.BuildBatch(cfg, ing, repos)
	srv := httpserver.NewServer(svc, batch, application.GoRunner{Log: logger}, ing.Symbols, cfg.BearerToken).
		WithPing(repos.DB.Ping)
	mux := httpserver.NewRouter(srv)

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		logger.Info("server started", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	shutdownCtx, shCancel := context.WithTimeout(context.Background(), infraconfig.DefaultShutdownTimeout)
	defer shCancel()
	_ = server.Shutdown(shutdownCtx)
	logger.Info("server stopped")
}
