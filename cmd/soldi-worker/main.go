package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"soldi/internal/amqp"
	"soldi/internal/config"
	"soldi/internal/export"
	"soldi/internal/export/sheets"
	"soldi/internal/importer"
	applog "soldi/internal/log"
	"soldi/internal/services"
	"soldi/internal/storage"
)

// The worker drains the import queue into the shared SQLite database and,
// when a spreadsheet is configured, periodically exports the ledger to
// Google Sheets.
func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Component: "soldi-worker"})
	applog.SetDefault(logger)

	logger.Info("Starting soldi-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the import worker")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", applog.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}

	svc := services.NewLedgerService(repo, nil, logger)
	defer svc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := svc.Load(ctx); err != nil {
		logger.Error("Failed to load ledger", applog.FieldError, err)
		os.Exit(1)
	}

	imp := importer.New(svc, logger)
	handle := func(job *amqp.ImportJobMessage) error {
		result, err := imp.Import(ctx, job.Owner, strings.NewReader(job.CSV))
		if err != nil {
			logger.Error("Import job failed",
				applog.FieldImportJobID, job.JobID, applog.FieldError, err)
			return err
		}
		logger.Info("Import job done",
			applog.FieldImportJobID, job.JobID,
			"accounts", result.Accounts,
			"transactions", result.Transactions,
			"components", result.Components)
		return nil
	}

	var sheetsClient *sheets.Client
	if cfg.GoogleSpreadsheetID != "" {
		sheetsClient, err = sheets.NewFromEnv(ctx)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
			os.Exit(1)
		}
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		err := amqp.ConsumeWithRetry(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, handle)
		if err == context.Canceled {
			return nil
		}
		return err
	})

	if sheetsClient != nil {
		group.Go(func() error {
			ticker := time.NewTicker(time.Hour)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					rows, err := sheetsClient.Export(ctx, export.Snapshot(svc.Book(), svc.Rates()))
					if err != nil {
						logger.Error("Sheets export failed", applog.FieldError, err)
						continue
					}
					logger.Info("Sheets export done", "rows", rows)
				}
			}
		})
	}

	if err := group.Wait(); err != nil {
		logger.Error("Worker stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
