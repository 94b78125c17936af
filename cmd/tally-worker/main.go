package main

import (
	"context"
	"errors"
	"os"
	"time"

	"tally/internal/amqp"
	"tally/internal/cli"
	"tally/internal/core"
	applog "tally/internal/log"
	"tally/internal/sheets"
	gsheet "tally/internal/sheets/google"
	"tally/internal/sheets/memory"
	"tally/internal/storage"
	"tally/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger("tally-worker")

	logger.Info("Starting tally export worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the export worker")
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	catalog := loadCatalog(logger, repo)
	writer := newSheetsWriter(logger, cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	exportWorker := worker.NewExportWorker(repo, writer, catalog)

	ctx, done := cli.GracefulShutdown(logger, 10*time.Second, nil)

	err = amqpClient.ConsumeTransactionEvents(ctx, func(msg *amqp.TransactionEventMessage) error {
		return exportWorker.HandleEvent(ctx, msg)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Consumer stopped", "error", err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
}

// newSheetsWriter picks the export destination. Without a spreadsheet id the
// worker keeps rows in memory, which is only useful for local runs.
func newSheetsWriter(logger *applog.Logger, spreadsheetID string) sheets.TransactionWriter {
	if spreadsheetID == "" {
		logger.Warn("GOOGLE_SPREADSHEET_ID not set, exporting to in-memory writer")
		return memory.New()
	}

	client, err := gsheet.NewFromEnv(context.Background())
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", spreadsheetID)
	return client
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
