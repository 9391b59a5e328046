// Package cli holds the start-up plumbing shared by cmd/debtledger and
// cmd/debtledger-worker.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"debtledger/internal/amqp"
	"debtledger/internal/backend"
	"debtledger/internal/config"
	"debtledger/internal/ledger"
	"debtledger/internal/log"
)

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile(filenames ...string) error {
	err := godotenv.Load(filenames...)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// LoadAndValidateConfig loads configuration and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetupLogger builds the process logger from config and makes it the slog
// default. Output goes to w, normally stderr so command output stays clean.
func SetupLogger(cfg *config.Config, w io.Writer) *log.Logger {
	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: log.ComponentApp,
		Output:    w,
	})
	log.SetDefault(logger)
	return logger
}

// Session is an opened ledger together with the resources behind it.
type Session struct {
	Store    *ledger.Store
	Backend  *backend.BackendResult
	Notifier *amqp.Client
	// LoadErr is the non-fatal load problem, if any. The store already
	// holds the default snapshot when it is set.
	LoadErr error
}

// SessionOptions tweaks OpenLedger.
type SessionOptions struct {
	// Notify publishes change events when AMQP is configured.
	Notify bool
	// Observer receives mutation and load outcomes.
	Observer ledger.Observer
}

// OpenLedger opens the configured backend and loads the ledger. A corrupt
// or unreadable blob is reported in Session.LoadErr, never as the error.
func OpenLedger(ctx context.Context, cfg *config.Config, logger *log.Logger, opts SessionOptions) (*Session, error) {
	result, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", cfg.DataBackend, err)
	}

	s := &Session{Backend: result}
	storeOpts := []ledger.Option{
		ledger.WithKey(cfg.LedgerKey),
		ledger.WithLogger(logger),
	}
	if opts.Observer != nil {
		storeOpts = append(storeOpts, ledger.WithObserver(opts.Observer))
	}
	if opts.Notify && cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			// change events are optional; the ledger works without them
			logger.WarnContext(ctx, "AMQP unavailable, change events disabled",
				log.FieldError, err,
				log.FieldErrorType, log.ErrorTypeNetwork)
		} else {
			s.Notifier = client
			storeOpts = append(storeOpts, ledger.WithNotifier(client))
		}
	}

	s.Store = ledger.New(result.Persister, storeOpts...)
	_, s.LoadErr = s.Store.Load(ctx)
	return s, nil
}

// LoadWarning returns the user-facing message for a load problem, or "".
func (s *Session) LoadWarning() string {
	switch {
	case s.LoadErr == nil:
		return ""
	case ledger.IsCorrupt(s.LoadErr):
		return ledger.MsgLoadInvalid
	default:
		return ledger.MsgLoadFailed
	}
}

// Close releases the notifier and the backend.
func (s *Session) Close() error {
	var errs []error
	if s.Notifier != nil {
		errs = append(errs, s.Notifier.Close())
	}
	errs = append(errs, s.Backend.Close())
	return errors.Join(errs...)
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM.
func GracefulShutdown(parent context.Context, logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
