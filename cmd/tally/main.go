package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"tally/internal/amqp"
	"tally/internal/cache"
	"tally/internal/cli"
	"tally/internal/core"
	httpapi "tally/internal/http"
	applog "tally/internal/log"
	"tally/internal/services"
	"tally/internal/storage"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger("tally-api")

	logger.Info("Starting tally API")

	cfg := cli.LoadAndValidateConfig(logger)
	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)

	catalog := loadCatalog(logger, repo)

	// AMQP is optional; without it transaction events are simply not
	// published and the export worker sees nothing.
	var amqpClient *amqp.Client
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, transaction events disabled", "error", err)
		} else {
			amqpClient = client
			publisher = client
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	transactions := services.NewTransactionService(repo, catalog, publisher)
	subscriptions := services.NewSubscriptionService(repo, catalog)
	stats := services.NewStatsService(repo, cfg.StatsCacheTTL)

	cacheManager := cache.NewManager()
	stats.RegisterCaches(cacheManager)
	cacheManager.StartCleanup(time.Minute)

	server := httpapi.NewServer(cfg, httpapi.Dependencies{
		Transactions:  transactions,
		Subscriptions: subscriptions,
		Stats:         stats,
		Catalog:       catalog,
		DB:            repo,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown failed", "error", err)
		}
		cacheManager.Stop()
		if amqpClient != nil {
			amqpClient.Close()
		}
		repo.Close()
	})

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(ctx, done)
}

// loadCatalog prefers the categories seeded in the database and falls back
// to the built-in set when the table is empty or unreadable.
func loadCatalog(logger *applog.Logger, repo *storage.SQLiteRepository) *core.Catalog {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	categories, err := repo.ListCategories(ctx)
	if err != nil || len(categories) == 0 {
		logger.Warn("Falling back to built-in category catalog", "error", err)
		return core.DefaultCatalog()
	}
	return core.NewCatalog(categories)
}
