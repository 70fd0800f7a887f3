package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"stockmarket-service/internal/application"
	"stockmarket-service/internal/config"
	infraconfig "stockmarket-service/internal/infrastructure/config"
	"stockmarket-service/internal/infrastructure/httpx"
	"stockmarket-service/internal/infrastructure/logx"
	"stockmarket-service/internal/infrastructure/pg"
	"stockmarket-service/internal/infrastructure/provider"
	redisstore "stockmarket-service/internal/infrastructure/redis"
	"stockmarket-service/internal/infrastructure/worker"
)

type Repos struct {
	DB     *pg.DB
	Prices application.PriceRepo
	Jobs   application.IngestJobRepo
}

type Services struct {
	Idem application.IdempotencyStore
}

// BuildRepos connects to Postgres, runs migrations and returns the repositories.
func BuildRepos(ctx context.Context, cfg config.Config) (Repos, func(), error) {
	log := logx.L()
	if cfg.DatabaseURL == "" {
		return Repos{}, func() {}, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := pg.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return Repos{}, func() {}, err
	}
	if err := pg.RunMigrations(ctx, db); err != nil {
		db.Close()
		return Repos{}, func() {}, err
	}
	cleanup := func() {
		log.Info("closing pg")
		db.Close()
	}
	return Repos{DB: db, Prices: pg.NewPriceRepo(db), Jobs: pg.NewIngestJobRepo(db)}, cleanup, nil
}

// BuildIdempotency returns the redis-backed store when enabled, noop otherwise.
func BuildIdempotency(cfg config.Config) (Services, func(), error) {
	if cfg.IdempotencyBackend != "redis" {
		return Services{Idem: application.NoopIdempotency{}}, func() {}, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	store := redisstore.New(rdb, cfg.RedisTTL)
	cleanup := func() { _ = rdb.Close() }
	return Services{Idem: store}, cleanup, nil
}

// BuildProvider picks the market-data provider; without an API key it falls
// back to the fake so local runs work offline.
func BuildProvider(cfg config.Config) application.MarketDataProvider {
	if cfg.Provider == "twelvedata" && cfg.TwelveDataAPIKey != "" {
		return &provider.TwelveDataProvider{
			BaseURL: cfg.TwelveDataURL,
			APIKey:  cfg.TwelveDataAPIKey,
			Client:  &httpx.Client{HTTP: &http.Client{Timeout: infraconfig.DefaultProviderTimeout}},
		}
	}
	return provider.NewFake(100.0)
}

// BuildBatch assembles the pull pipeline from the ingestion settings.
func BuildBatch(cfg config.Config, ing config.Ingestion, repos Repos) *application.BatchProcessor {
	return &application.BatchProcessor{
		Provider:  BuildProvider(cfg),
		Prices:    repos.Prices,
		Interval:  ing.BatchTimeInterval,
		StartDate: ing.StartDate,
		Log:       logx.L(),
	}
}

// BuildWorker assembles the durable upload worker.
func BuildWorker(cfg config.Config, repos Repos) application.Worker {
	uploader := &application.UploadProcessor{
		Prices: repos.Prices,
		UoW:    &pg.UnitOfWork{Pool: repos.DB.Pool},
		Log:    logx.L(),
	}
	return &worker.DbWorker{
		Jobs:       repos.Jobs,
		Processor:  uploader,
		PollEvery:  cfg.WorkerPoll,
		BatchLimit: cfg.WorkerBatchSize,
		MaxRetries: infraconfig.DefaultUploadMaxRetries,
		RetryDelay: infraconfig.DefaultUploadRetryDelay,
		Log:        logx.L(),
	}
}

// BuildPullScheduler returns the periodic batch runner when enabled, nil
// otherwise.
func BuildPullScheduler(cfg config.Config, ing config.Ingestion, batch *application.BatchProcessor) application.Worker {
	if !cfg.PullSchedule {
		return nil
	}
	return &worker.PullScheduler{
		Batch:   batch,
		Symbols: ing.Symbols,
		Every:   time.Duration(ing.PollIntervalSeconds) * time.Second,
		Log:     logx.L(),
	}
}
