// Command debtledger serves the debt and expense tracker and edits the ledger
// from the command line.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"debtledger/internal/cli"
	"debtledger/internal/config"
	apphttp "debtledger/internal/http"
	"debtledger/internal/ledger"
	"debtledger/internal/log"
	"debtledger/internal/metrics"
)

const (
	appName         = "debtledger"
	shutdownTimeout = 30 * time.Second
)

// Version is set at build time with -ldflags.
var Version = "dev"

// app carries what every subcommand needs once the root pre-run is done.
type app struct {
	cfg    *config.Config
	logger *log.Logger
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		envFile    string
	)
	a := &app{}

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Personal debt and expense tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			if err := cli.LoadEnvFile(envFiles(envFile)...); err != nil {
				return fmt.Errorf("load env file: %w", err)
			}
			if configPath != "" {
				if err := os.Setenv(config.ConfigFileEnv, configPath); err != nil {
					return err
				}
			}
			cfg, err := cli.LoadAndValidateConfig()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = cli.SetupLogger(cfg, os.Stderr)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (overrides "+config.ConfigFileEnv+")")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to load (default .env)")

	cmd.AddCommand(
		serveCmd(a),
		summaryCmd(a),
		exportCmd(a),
		addExpenseCmd(a),
		addPaymentCmd(a),
		deleteCmd(a, "delete-expense", "Delete an expense by ID", (*ledger.Store).DeleteExpense),
		deleteCmd(a, "delete-payment", "Delete a debt payment by ID", (*ledger.Store).DeletePayment),
		scalarCmd(a, "set-salary", "Set the monthly salary", (*ledger.Store).SetSalary),
		scalarCmd(a, "set-debt", "Set the initial debt", (*ledger.Store).SetInitialDebt),
		resetMonthCmd(a),
		clearAllCmd(a),
		versionCmd(),
	)
	return cmd
}

func envFiles(path string) []string {
	if path == "" {
		return nil
	}
	return []string{path}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
		},
	}
}

func serveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard and JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := cli.GracefulShutdown(parent, a.logger)
	defer cancel()

	collector := metrics.New()
	session, err := cli.OpenLedger(ctx, a.cfg, a.logger, cli.SessionOptions{Notify: true, Observer: collector})
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Close(); err != nil {
			a.logger.Error("Failed to release ledger resources", log.FieldError, err)
		}
	}()
	if msg := session.LoadWarning(); msg != "" {
		a.logger.Warn(msg, log.FieldError, session.LoadErr)
	}

	persister := session.Backend.Persister
	srv := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + a.cfg.Port,
		Store:              session.Store,
		Logger:             a.logger,
		Metrics:            collector,
		RateLimitPerMinute: a.cfg.RateLimitPerMinute,
		TrustedProxies:     a.cfg.TrustedProxies,
		Ready: func(ctx context.Context) error {
			_, err := persister.Load(ctx, a.cfg.LedgerKey)
			if errors.Is(err, ledger.ErrNotFound) {
				return nil
			}
			return err
		},
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("Starting debtledger server",
			"port", a.cfg.Port,
			log.FieldBackend, a.cfg.DataBackend,
			log.FieldLedgerKey, a.cfg.LedgerKey)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		a.logger.Info("Server stopped gracefully")
		return nil
	})
	return g.Wait()
}
