package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"debtledger/internal/cli"
	"debtledger/internal/core"
	"debtledger/internal/ledger"
	xlsx "debtledger/internal/report"
)

// withLedger opens the ledger, prints any load warning and runs fn.
func (a *app) withLedger(cmd *cobra.Command, fn func(ctx context.Context, store *ledger.Store) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	session, err := cli.OpenLedger(ctx, a.cfg, a.logger, cli.SessionOptions{Notify: true})
	if err != nil {
		return err
	}
	defer session.Close()

	if msg := session.LoadWarning(); msg != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning:", msg)
	}
	return fn(ctx, session.Store)
}

// report prints the outcome message. Rejected and unsaved mutations are
// returned as errors so the exit status reflects them.
func report(w io.Writer, out ledger.Outcome, err error) error {
	if err != nil {
		return errors.New(out.Message)
	}
	if out.ID != 0 {
		fmt.Fprintf(w, "%s (id %d)\n", out.Message, out.ID)
		return nil
	}
	fmt.Fprintln(w, out.Message)
	return nil
}

func summaryCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print totals, category breakdown and recent expenses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLedger(cmd, func(_ context.Context, store *ledger.Store) error {
				agg := store.Aggregates()
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(agg)
				}
				return printSummary(cmd.OutOrStdout(), agg)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print aggregates as JSON")
	return cmd
}

func printSummary(out io.Writer, agg core.Aggregates) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Salary\t%s\n", core.FormatAmount(agg.Salary))
	fmt.Fprintf(w, "Total expenses\t%s\n", core.FormatAmount(agg.TotalExpenses))
	fmt.Fprintf(w, "Remaining budget\t%s\n", core.FormatAmount(agg.RemainingBudget))
	fmt.Fprintf(w, "Initial debt\t%s\n", core.FormatAmount(agg.InitialDebt))
	fmt.Fprintf(w, "Debt paid\t%s\t%.1f%%\n", core.FormatAmount(agg.TotalDebtPaid), agg.DebtPaidPercentage)
	fmt.Fprintf(w, "Remaining debt\t%s\n", core.FormatAmount(agg.RemainingDebt))

	if len(agg.CategoryBreakdown) > 0 {
		fmt.Fprintln(w, "\nCategory\tAmount")
		for _, c := range agg.CategoryBreakdown {
			fmt.Fprintf(w, "%s\t%s\n", c.Name, core.FormatAmount(c.Amount))
		}
	}
	if len(agg.RecentExpenses) > 0 {
		fmt.Fprintln(w, "\nRecent\tDate\tCategory\tAmount")
		for _, e := range agg.RecentExpenses {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", e.ID, e.Date, e.Category, core.FormatAmount(e.Amount))
		}
	}
	return w.Flush()
}

func exportCmd(a *app) *cobra.Command {
	var output, format string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the ledger as indented JSON or an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "xlsx" {
				return fmt.Errorf("--format must be json or xlsx, got %q", format)
			}
			if format == "xlsx" && (output == "" || output == "-") {
				return errors.New("--format xlsx needs --output")
			}
			return a.withLedger(cmd, func(_ context.Context, store *ledger.Store) error {
				var data []byte
				if format == "xlsx" {
					var buf bytes.Buffer
					if err := xlsx.WriteWorkbook(&buf, store.Aggregates(), time.Now()); err != nil {
						return err
					}
					data = buf.Bytes()
				} else {
					var err error
					if data, err = store.Export(); err != nil {
						return err
					}
				}
				if output == "" || output == "-" {
					_, err := cmd.OutOrStdout().Write(append(data, '\n'))
					return err
				}
				if err := os.WriteFile(output, data, 0o600); err != nil {
					return fmt.Errorf("write export: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported ledger to %s\n", output)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout; conventional name debt-expense-data.json)")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "json or xlsx")
	return cmd
}

func addExpenseCmd(a *app) *cobra.Command {
	var category, amount, date, description string
	cmd := &cobra.Command{
		Use:   "add-expense",
		Short: "Record an expense",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e := core.Expense{Category: category, Description: description}
			var err error
			if e.Amount, err = core.ParseAmount(amount); err != nil {
				return fmt.Errorf("--amount: %w", err)
			}
			if e.Date, err = dateFlag(date); err != nil {
				return err
			}
			return a.withLedger(cmd, func(ctx context.Context, store *ledger.Store) error {
				out, err := store.AddExpense(ctx, e)
				return report(cmd.OutOrStdout(), out, err)
			})
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "expense category, e.g. Food")
	cmd.Flags().StringVar(&amount, "amount", "", "amount, dot or comma decimals")
	cmd.Flags().StringVar(&date, "date", "", "date as YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&description, "description", "", "free text description")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func addPaymentCmd(a *app) *cobra.Command {
	var amount, date string
	cmd := &cobra.Command{
		Use:   "add-payment",
		Short: "Record a debt payment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var p core.Payment
			var err error
			if p.Amount, err = core.ParseAmount(amount); err != nil {
				return fmt.Errorf("--amount: %w", err)
			}
			if p.Date, err = dateFlag(date); err != nil {
				return err
			}
			return a.withLedger(cmd, func(ctx context.Context, store *ledger.Store) error {
				out, err := store.AddPayment(ctx, p)
				return report(cmd.OutOrStdout(), out, err)
			})
		},
	}
	cmd.Flags().StringVar(&amount, "amount", "", "amount, dot or comma decimals")
	cmd.Flags().StringVar(&date, "date", "", "date as YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func dateFlag(s string) (core.Date, error) {
	if s == "" {
		return core.DateOf(time.Now()), nil
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}, fmt.Errorf("--date: %w", err)
	}
	return d, nil
}

type deleteFunc func(*ledger.Store, context.Context, int64) (ledger.Outcome, error)

func deleteCmd(a *app, use, short string, del deleteFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use + " ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q", args[0])
			}
			return a.withLedger(cmd, func(ctx context.Context, store *ledger.Store) error {
				out, err := del(store, ctx, id)
				return report(cmd.OutOrStdout(), out, err)
			})
		},
	}
}

type scalarFunc func(*ledger.Store, context.Context, float64) (ledger.Outcome, error)

func scalarCmd(a *app, use, short string, set scalarFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use + " VALUE",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// unparsable input reaches the validator so the message matches the dashboard
			v, err := core.ParseAmount(args[0])
			if err != nil {
				v = math.NaN()
			}
			return a.withLedger(cmd, func(ctx context.Context, store *ledger.Store) error {
				out, err := set(store, ctx, v)
				return report(cmd.OutOrStdout(), out, err)
			})
		},
	}
}

func resetMonthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-month",
		Short: "Remove all expenses and payments, keeping salary and debt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withLedger(cmd, func(ctx context.Context, store *ledger.Store) error {
				out, err := store.ResetMonth(ctx)
				return report(cmd.OutOrStdout(), out, err)
			})
		},
	}
}

func clearAllCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear-all",
		Short: "Restore the default ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("clear-all erases every record; pass --yes to confirm")
			}
			return a.withLedger(cmd, func(ctx context.Context, store *ledger.Store) error {
				out, err := store.ClearAll(ctx)
				return report(cmd.OutOrStdout(), out, err)
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm erasing all data")
	return cmd
}
