package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"debtledger/internal/amqp"
	"debtledger/internal/core"
	"debtledger/internal/ledger"
	"debtledger/internal/log"
	"debtledger/internal/sheets"
)

// SyncWorker mirrors a ledger's summary to a spreadsheet. It never mutates
// the ledger; it reads the persisted blob the main process wrote.
type SyncWorker struct {
	persister ledger.Persister
	key       string
	sheets    sheets.SummaryWriter
	logger    *log.Logger

	mu       sync.Mutex
	lastSync time.Time
}

func NewSyncWorker(persister ledger.Persister, key string, writer sheets.SummaryWriter, logger *log.Logger) *SyncWorker {
	if key == "" {
		key = ledger.DefaultKey
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &SyncWorker{
		persister: persister,
		key:       key,
		sheets:    writer,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// HandleLedgerChanged processes a single change message from AMQP. Messages
// for other ledgers are acknowledged and ignored.
func (w *SyncWorker) HandleLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	if msg.Key != "" && msg.Key != w.key {
		w.logger.DebugContext(ctx, "Ignoring change for another ledger",
			log.FieldLedgerKey, msg.Key,
			log.FieldMessageID, msg.ID.String())
		return nil
	}

	w.logger.InfoContext(ctx, "Processing ledger change",
		log.FieldMessageID, msg.ID.String(),
		log.FieldOperation, msg.Operation,
		log.FieldPersisted, msg.Persisted)

	if !msg.Persisted {
		// nothing new was stored
		return nil
	}
	return w.Resync(ctx)
}

// Resync reloads the ledger and rewrites the summary. Corrupt data is
// mirrored as the default ledger, exactly as the main process would show
// it; a read failure is returned so the caller can retry.
func (w *SyncWorker) Resync(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	store := ledger.New(w.persister, ledger.WithKey(w.key), ledger.WithLogger(w.logger))
	snap, err := store.Load(ctx)
	switch {
	case ledger.IsCorrupt(err):
		w.logger.WarnContext(ctx, "Ledger data is corrupt, mirroring defaults",
			log.FieldLedgerKey, w.key,
			log.FieldError, err,
			log.FieldErrorType, log.ErrorTypeCorruptData)
	case err != nil:
		return fmt.Errorf("load ledger: %w", err)
	}

	agg := core.Summarize(snap)
	if err := w.sheets.WriteSummary(ctx, agg); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	w.lastSync = time.Now()
	w.logger.InfoContext(ctx, "Ledger summary synced",
		log.FieldOperation, log.OpSync,
		log.FieldLedgerKey, w.key,
		log.FieldExpenses, len(snap.Expenses),
		log.FieldPayments, len(snap.DebtPayments))
	return nil
}

// LastSync reports when the last successful sync finished.
func (w *SyncWorker) LastSync() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSync
}

// RunPeriodic resyncs on every tick until ctx is done. It is a backstop for
// lost messages; failures are logged and retried on the next tick.
func (w *SyncWorker) RunPeriodic(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return errors.New("sync interval must be positive")
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := w.Resync(ctx); err != nil && ctx.Err() == nil {
				w.logger.ErrorContext(ctx, "Periodic sync failed",
					log.FieldError, err,
					log.FieldOperation, log.OpSync)
			}
		}
	}
}
