package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/er-ebrahimi/architecture-ai/internal/acquirer"
	"github.com/er-ebrahimi/architecture-ai/internal/adapter/postgres"
	redis_adapter "github.com/er-ebrahimi/architecture-ai/internal/adapter/redis"
	s3_adapter "github.com/er-ebrahimi/architecture-ai/internal/adapter/s3"
	"github.com/er-ebrahimi/architecture-ai/internal/delivery/http/handler"
	"github.com/er-ebrahimi/architecture-ai/internal/delivery/http/router"
	"github.com/er-ebrahimi/architecture-ai/internal/usecase"
	"github.com/er-ebrahimi/architecture-ai/internal/vision"
	"github.com/er-ebrahimi/architecture-ai/pkg/config"
	"github.com/er-ebrahimi/architecture-ai/pkg/logger"
	"github.com/er-ebrahimi/architecture-ai/pkg/metrics"
)

func main() {
	// --- Configuration ---
	cfg := config.Load()

	// --- Logger ---
	logger.Init(os.Stdout, cfg.LogLevel)
	slog.Info("Logger initialized", "level", cfg.LogLevel)

	// --- Metrics ---
	metrics.Init()
	slog.Info("Metrics initialized")

	ctx := context.Background()

	// --- PostgreSQL ---
	pgConnString := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.DB)
	dbpool, err := pgxpool.New(ctx, pgConnString)
	if err != nil {
		slog.Error("Unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()
	slog.Info("PostgreSQL connection pool established")

	// --- Redis ---
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		slog.Error("Unable to connect to Redis", "error", err)
		os.Exit(1)
	}
	slog.Info("Redis connection established")

	// --- Object storage ---
	imageStorage, err := s3_adapter.NewImageStorage(ctx, cfg.S3)
	if err != nil {
		slog.Error("Unable to set up object storage", "error", err)
		os.Exit(1)
	}
	slog.Info("Object storage client initialized", "bucket", cfg.S3.BucketName)

	// --- Repositories ---
	productRepo := postgres.NewProductRepo(dbpool)
	featureCache := redis_adapter.NewFeatureCache(rdb)

	// --- Core components ---
	acq := acquirer.New(cfg.Acquire.MaxImageBytes, cfg.Acquire.FetchTimeout)
	providers := make([]vision.ProviderConfig, 0, len(cfg.Vision.Models))
	for _, model := range cfg.Vision.Models {
		providers = append(providers, vision.ProviderConfig{
			Name:    model,
			BaseURL: cfg.Vision.BaseURL,
			APIKey:  cfg.Vision.APIKey,
			Model:   model,
			Timeout: cfg.Vision.AttemptTimeout,
		})
	}
	if len(providers) == 0 {
		slog.Error("No vision models configured")
		os.Exit(1)
	}
	extractor := vision.NewExtractor().Bind(providers)
	slog.Info("Feature extraction configured", "providers", len(providers))

	// --- Use Cases ---
	ingester := usecase.NewIngester(acq, extractor, productRepo, imageStorage)
	searcher := usecase.NewSearcher(acq, extractor, productRepo, imageStorage, featureCache, cfg.Vision.CacheTTL)

	// --- HTTP Server ---
	apiHandler := handler.NewHandler(ingester, searcher)
	httpRouter := router.New(apiHandler)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      httpRouter,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	slog.Info("Starting server", "port", cfg.Server.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("Could not listen on port", "port", cfg.Server.Port, "error", err)
		os.Exit(1)
	}
}
