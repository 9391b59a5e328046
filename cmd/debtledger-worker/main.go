// Command debtledger-worker mirrors the ledger summary to Google Sheets. It
// resyncs on every ledger change event and on a fixed interval.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"debtledger/internal/amqp"
	"debtledger/internal/backend"
	"debtledger/internal/cli"
	"debtledger/internal/config"
	"debtledger/internal/log"
	"debtledger/internal/sheets"
	gsheet "debtledger/internal/sheets/google"
	mem "debtledger/internal/sheets/memory"
	"debtledger/internal/worker"
)

func main() {
	if err := cli.LoadEnvFile(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: load env file: %v\n", err)
		os.Exit(1)
	}
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg, os.Stdout).WithComponent(log.ComponentWorker)

	if err := run(cfg, logger); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, cancel := cli.GracefulShutdown(context.Background(), logger)
	defer cancel()

	logger.Info("Starting debtledger-worker",
		log.FieldBackend, cfg.DataBackend,
		log.FieldLedgerKey, cfg.LedgerKey)

	result, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open backend: %w", err)
	}
	defer func() {
		if err := result.Close(); err != nil {
			logger.Error("Failed to close backend", log.FieldError, err)
		}
	}()

	writer, err := newSummaryWriter(ctx, cfg, logger)
	if err != nil {
		return err
	}
	syncWorker := worker.NewSyncWorker(result.Persister, cfg.LedgerKey, writer, logger)

	// catch up on anything written while the worker was down
	if err := syncWorker.Resync(ctx); err != nil {
		logger.Error("Startup sync failed", log.FieldError, err, log.FieldOperation, log.OpSync)
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			return fmt.Errorf("connect to AMQP: %w", err)
		}
		defer client.Close()

		g.Go(func() error {
			err := client.ConsumeLedgerChanges(gctx, syncWorker.HandleLedgerChanged)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		logger.Info("AMQP disabled - relying on periodic sync only")
	}

	g.Go(func() error {
		return syncWorker.RunPeriodic(gctx, cfg.SyncInterval)
	})

	err = g.Wait()
	logger.Info("Worker shutdown complete", "last_sync", syncWorker.LastSync())
	return err
}

// newSummaryWriter returns the Sheets client, or an in-memory writer when no
// spreadsheet is configured so the worker can run as a dry run.
func newSummaryWriter(ctx context.Context, cfg *config.Config, logger *log.Logger) (sheets.SummaryWriter, error) {
	if cfg.GoogleSpreadsheetID == "" {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, summaries kept in memory")
		return mem.New(), nil
	}
	client, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SummarySheet:    cfg.GoogleSummarySheet,
		CredentialsJSON: cfg.GoogleCredentialsJSON,
		CredentialsFile: cfg.GoogleCredentialsFile,
		Logger:          logger,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize Google Sheets client: %w", err)
	}
	logger.Info("Google Sheets client initialized", log.FieldSpreadsheet, cfg.GoogleSpreadsheetID)
	return client, nil
}
