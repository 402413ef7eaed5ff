package main

import (
	"context"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"tarefo-server/src/api"
	"tarefo-server/src/bank"
	"tarefo-server/src/config"
	"tarefo-server/src/db"
	sqlstore "tarefo-server/src/db/sql"
	"tarefo-server/src/logging"
	"tarefo-server/src/recurring"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer logger.Sync()

	pool, err := db.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db connection failed", zap.Error(err))
	}
	defer pool.Close()

	bankCache, err := db.NewBankCache()
	if err != nil {
		logger.Fatal("bank cache init failed", zap.Error(err))
	}
	store := sqlstore.NewStore(pool, bankCache)

	registry := prometheus.NewRegistry()
	metrics := bank.NewMetrics("tarefo")
	metrics.Register(registry)

	httpClient := &http.Client{Timeout: cfg.BankHTTPTimeout}

	syncer := bank.NewSyncer(bank.SyncerConfig{
		Store:       store,
		HTTPClient:  httpClient,
		Logger:      logger,
		Metrics:     metrics,
		Concurrency: cfg.SyncConcurrency,
	})
	processor := recurring.NewProcessor(store, logger)

	router := api.NewRouter(api.Deps{
		Store:     store,
		Syncer:    syncer,
		Processor: processor,
		Registry:  registry,
		Logger:    logger,
		JWTSecret: cfg.JWTSecret,
		Origins:   cfg.AllowedOrigins,
	})

	logger.Info("api server running", zap.String("port", cfg.Port))
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
