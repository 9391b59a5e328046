package google

import (
	"strconv"
	"time"

	"debtledger/internal/core"
)

func summaryRows(agg core.Aggregates, updated time.Time) [][]any {
	rows := [][]any{
		{"Metric", "Value"},
		{"Salary", agg.Salary},
		{"Initial Debt", agg.InitialDebt},
		{"Total Expenses", agg.TotalExpenses},
		{"Total Debt Paid", agg.TotalDebtPaid},
		{"Remaining Debt", agg.RemainingDebt},
		{"Remaining Budget", agg.RemainingBudget},
		{"Debt Paid %", roundTo(agg.DebtPaidPercentage, 1)},
		{},
		{"Category", "Amount"},
	}
	for _, c := range agg.CategoryBreakdown {
		rows = append(rows, []any{c.Name, c.Amount})
	}
	rows = append(rows, []any{}, []any{"Updated", updated.UTC().Format(time.RFC3339)})
	return rows
}

func expenseRows(expenses []core.Expense) [][]any {
	rows := make([][]any, 0, len(expenses)+1)
	rows = append(rows, []any{"ID", "Date", "Category", "Amount", "Description"})
	for _, e := range expenses {
		rows = append(rows, []any{strconv.FormatInt(e.ID, 10), e.Date.String(), e.Category, e.Amount, e.Description})
	}
	return rows
}

func paymentRows(payments []core.Payment) [][]any {
	rows := make([][]any, 0, len(payments)+1)
	rows = append(rows, []any{"ID", "Date", "Amount"})
	for _, p := range payments {
		rows = append(rows, []any{strconv.FormatInt(p.ID, 10), p.Date.String(), p.Amount})
	}
	return rows
}

func roundTo(v float64, places int) float64 {
	f, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', places, 64), 64)
	return f
}
