// Package report renders ledger aggregates as an XLSX workbook for download.
package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"debtledger/internal/core"
)

const (
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	Filename    = "debt-expense-data.xlsx"

	SummarySheet  = "Summary"
	ExpensesSheet = "Expenses"
	PaymentsSheet = "Payments"
)

// WriteWorkbook builds the workbook for agg and writes it to w.
func WriteWorkbook(w io.Writer, agg core.Aggregates, generated time.Time) error {
	f, err := Workbook(agg, generated)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Workbook returns a three sheet workbook: totals and categories, then the
// expense and payment listings in the order the aggregates carry them.
func Workbook(agg core.Aggregates, generated time.Time) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename default sheet: %w", err)
	}
	for _, name := range []string{ExpensesSheet, PaymentsSheet} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}

	sheets := []struct {
		name   string
		rows   [][]any
		widths []float64
	}{
		{SummarySheet, summaryRows(agg, generated), []float64{20, 16}},
		{ExpensesSheet, expenseRows(agg.Expenses), []float64{16, 12, 14, 12, 40}},
		{PaymentsSheet, paymentRows(agg.DebtPayments), []float64{16, 12, 12}},
	}
	for _, s := range sheets {
		if err := writeRows(f, s.name, s.rows, bold); err != nil {
			f.Close()
			return nil, err
		}
		for i, width := range s.widths {
			col, _ := excelize.ColumnNumberToName(i + 1)
			if err := f.SetColWidth(s.name, col, col, width); err != nil {
				f.Close()
				return nil, fmt.Errorf("set width %s!%s: %w", s.name, col, err)
			}
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

// writeRows writes rows from A1 down. Header rows, the ones whose first cell
// is a label followed by another label, are bolded.
func writeRows(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
		if isHeader(row) {
			last, _ := excelize.CoordinatesToCellName(len(row), i+1)
			if err := f.SetCellStyle(sheet, cell, last, headerStyle); err != nil {
				return fmt.Errorf("style %s row %d: %w", sheet, i+1, err)
			}
		}
	}
	return nil
}

func isHeader(row []any) bool {
	if len(row) < 2 {
		return false
	}
	for _, v := range row {
		if _, ok := v.(string); !ok {
			return false
		}
	}
	_, known := headerLabels[row[0].(string)]
	return known
}

var headerLabels = map[string]struct{}{"Metric": {}, "Category": {}, "ID": {}}

func summaryRows(agg core.Aggregates, generated time.Time) [][]any {
	rows := [][]any{
		{"Metric", "Value"},
		{"Salary", agg.Salary},
		{"Initial Debt", agg.InitialDebt},
		{"Total Expenses", agg.TotalExpenses},
		{"Total Debt Paid", agg.TotalDebtPaid},
		{"Remaining Debt", agg.RemainingDebt},
		{"Remaining Budget", agg.RemainingBudget},
		{"Debt Paid %", agg.DebtPaidPercentage},
		{},
		{"Category", "Amount"},
	}
	for _, c := range agg.CategoryBreakdown {
		rows = append(rows, []any{c.Name, c.Amount})
	}
	return append(rows, []any{}, []any{"Generated", generated.Format(time.RFC3339)})
}

func expenseRows(expenses []core.Expense) [][]any {
	rows := [][]any{{"ID", "Date", "Category", "Amount", "Description"}}
	for _, e := range expenses {
		rows = append(rows, []any{strconv.FormatInt(e.ID, 10), e.Date.String(), e.Category, e.Amount, e.Description})
	}
	return rows
}

func paymentRows(payments []core.Payment) [][]any {
	rows := [][]any{{"ID", "Date", "Amount"}}
	for _, p := range payments {
		rows = append(rows, []any{strconv.FormatInt(p.ID, 10), p.Date.String(), p.Amount})
	}
	return rows
}
