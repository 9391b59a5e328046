package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"debtledger/internal/core"
)

func sampleAggregates() core.Aggregates {
	s := core.DefaultSnapshot()
	s.Expenses = []core.Expense{
		{ID: 1700000000001, Category: "Food", Amount: 500, Date: core.NewDate(2025, 3, 15), Description: "groceries"},
		{ID: 1700000000002, Category: "WiFi", Amount: 1299.5, Date: core.NewDate(2025, 3, 1)},
	}
	s.DebtPayments = []core.Payment{{ID: 1700000000003, Amount: 2500, Date: core.NewDate(2025, 3, 10)}}
	return core.Summarize(s)
}

func TestWriteWorkbook(t *testing.T) {
	generated := time.Date(2025, 3, 15, 20, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, sampleAggregates(), generated))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SummarySheet, ExpensesSheet, PaymentsSheet}, f.GetSheetList())

	summary, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	require.NotEmpty(t, summary)
	assert.Equal(t, []string{"Metric", "Value"}, summary[0])
	assert.Equal(t, "Salary", summary[1][0])
	assert.Equal(t, "18000", summary[1][1])
	assert.Equal(t, "Category", summary[9][0])
	assert.Equal(t, "Food", summary[10][0])
	assert.Equal(t, "WiFi", summary[11][0])
	last := summary[len(summary)-1]
	assert.Equal(t, []string{"Generated", "2025-03-15T20:00:00Z"}, last)

	expenses, err := f.GetRows(ExpensesSheet)
	require.NoError(t, err)
	require.Len(t, expenses, 3)
	assert.Equal(t, []string{"ID", "Date", "Category", "Amount", "Description"}, expenses[0])
	assert.Equal(t, []string{"1700000000001", "2025-03-15", "Food", "500", "groceries"}, expenses[1])
	assert.Equal(t, "2025-03-01", expenses[2][1])

	payments, err := f.GetRows(PaymentsSheet)
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, []string{"1700000000003", "2025-03-10", "2500"}, payments[1])
}

func TestWorkbook_EmptyLedger(t *testing.T) {
	f, err := Workbook(core.Summarize(core.DefaultSnapshot()), time.Now())
	require.NoError(t, err)
	defer f.Close()

	expenses, err := f.GetRows(ExpensesSheet)
	require.NoError(t, err)
	assert.Len(t, expenses, 1)

	value, err := f.GetCellValue(SummarySheet, "B3")
	require.NoError(t, err)
	assert.Equal(t, "150000", value)
}

func TestIsHeader(t *testing.T) {
	assert.True(t, isHeader([]any{"ID", "Date", "Amount"}))
	assert.True(t, isHeader([]any{"Category", "Amount"}))
	assert.False(t, isHeader([]any{"Salary", 18000.0}))
	assert.False(t, isHeader([]any{"Generated", "2025-03-15T20:00:00Z"}))
	assert.False(t, isHeader([]any{"ID"}))
}
