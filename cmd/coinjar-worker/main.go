package main

import (
	"context"
	"errors"
	"os"
	"time"

	"coinjar/internal/amqp"
	"coinjar/internal/cli"
	"coinjar/internal/log"
	"coinjar/internal/sheets"
	gsheet "coinjar/internal/sheets/google"
	"coinjar/internal/sheets/memory"
	"coinjar/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	logger.Info("Starting coinjar-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required by the export worker")
		os.Exit(1)
	}

	var exporter sheets.LedgerExporter
	if cfg.GoogleSpreadsheetID == "" {
		logger.Warn("GOOGLE_SPREADSHEET_ID not set, ledger events are exported to memory only")
		exporter = memory.New()
	} else {
		if err := cfg.ValidateExport(); err != nil {
			logger.Error("Export configuration validation failed", log.FieldError, err.Error())
			os.Exit(1)
		}
		creds, err := cfg.GoogleCredentials()
		if err != nil {
			logger.Error("Failed to load Google credentials", log.FieldError, err.Error())
			os.Exit(1)
		}
		client, err := gsheet.New(context.Background(), cfg.GoogleSpreadsheetID, cfg.GoogleSheetName, creds)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err.Error())
			os.Exit(1)
		}
		exporter = client
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err.Error())
		os.Exit(1)
	}

	exportWorker := worker.NewExportWorker(amqpClient, exporter, logger)

	ctx, done := cli.GracefulShutdown(logger, 15*time.Second, func() {
		if err := amqpClient.Close(); err != nil {
			logger.Error("AMQP close error", log.FieldError, err.Error())
		}
	})

	if err := exportWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err.Error())
		_ = amqpClient.Close()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("coinjar-worker stopped")
}
