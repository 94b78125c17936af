package main

import (
	"context"
	"time"

	"tally/internal/amqp"
	"tally/internal/cli"
	"tally/internal/core"
	applog "tally/internal/log"
	"tally/internal/services"
	"tally/internal/storage"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger("billing-worker")

	logger.Info("Starting billing worker")

	cfg := cli.LoadAndValidateConfig(logger)
	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	catalog := loadCatalog(logger, repo)

	var amqpClient *amqp.Client
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, billed transactions will not publish events", "error", err)
		} else {
			amqpClient = client
			publisher = client
		}
	}

	transactions := services.NewTransactionService(repo, catalog, publisher)
	processor := services.NewBillingProcessor(repo, transactions)

	ctx, done := cli.GracefulShutdown(logger, 10*time.Second, func() {
		if amqpClient != nil {
			amqpClient.Close()
		}
	})

	logger.Info("Billing loop running", "interval", cfg.BillingInterval.String())

	// First pass at startup, then on every tick. A subscription several
	// cycles behind is charged once per pass until it catches up.
	runBilling(ctx, logger, processor)

	ticker := time.NewTicker(cfg.BillingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			cli.WaitForShutdown(ctx, done)
			return
		case <-ticker.C:
			runBilling(ctx, logger, processor)
		}
	}
}

func runBilling(ctx context.Context, logger *applog.Logger, processor *services.BillingProcessor) {
	billed, err := processor.ProcessDue(ctx, time.Now())
	if err != nil {
		logger.Error("Billing pass failed", "error", err)
		return
	}
	if billed > 0 {
		logger.Info("Billing pass complete", "billed", billed)
	}
}

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
