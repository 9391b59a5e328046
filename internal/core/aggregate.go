package core

import (
	"math"
	"slices"
)

// Record is implemented by ledger entries that can be listed by date.
type Record interface {
	RecordDate() Date
}

func (e Expense) RecordDate() Date { return e.Date }
func (p Payment) RecordDate() Date { return p.Date }

// TotalExpenses is the sum of all expense amounts.
func TotalExpenses(s Snapshot) float64 {
	amounts := make([]float64, len(s.Expenses))
	for i, e := range s.Expenses {
		amounts[i] = e.Amount
	}
	return sum(amounts)
}

// TotalDebtPaid is the sum of all debt payment amounts.
func TotalDebtPaid(s Snapshot) float64 {
	amounts := make([]float64, len(s.DebtPayments))
	for i, p := range s.DebtPayments {
		amounts[i] = p.Amount
	}
	return sum(amounts)
}

// RemainingDebt never goes below zero, even when payments exceed the debt.
func RemainingDebt(s Snapshot) float64 {
	return math.Max(0, s.InitialDebt-TotalDebtPaid(s))
}

// RemainingBudget treats debt payments as drawing on the same salary pool as
// expenses. Clamped at zero.
func RemainingBudget(s Snapshot) float64 {
	return math.Max(0, s.Salary-TotalExpenses(s)-TotalDebtPaid(s))
}

// DebtPaidPercentage is not capped: overpayment yields more than 100.
func DebtPaidPercentage(s Snapshot) float64 {
	if s.InitialDebt <= 0 {
		return 0
	}
	return TotalDebtPaid(s) / s.InitialDebt * 100
}

// CategoryBreakdown groups expenses by category, ordered by first occurrence.
func CategoryBreakdown(s Snapshot) []CategoryAmount {
	var order []string
	amounts := map[string][]float64{}
	for _, e := range s.Expenses {
		if _, seen := amounts[e.Category]; !seen {
			order = append(order, e.Category)
		}
		amounts[e.Category] = append(amounts[e.Category], e.Amount)
	}
	out := make([]CategoryAmount, 0, len(order))
	for _, name := range order {
		out = append(out, CategoryAmount{Name: name, Amount: sum(amounts[name])})
	}
	return out
}

// BudgetDistribution returns expenses, debt payments and remaining budget,
// dropping entries whose value is zero.
func BudgetDistribution(s Snapshot) []BudgetSlice {
	all := []BudgetSlice{
		{Label: SliceExpenses, Value: TotalExpenses(s)},
		{Label: SliceDebtPayment, Value: TotalDebtPaid(s)},
		{Label: SliceRemaining, Value: RemainingBudget(s)},
	}
	out := make([]BudgetSlice, 0, len(all))
	for _, b := range all {
		if b.Value > 0 {
			out = append(out, b)
		}
	}
	return out
}

// SortByDateDescending returns a sorted copy, newest first. Records sharing a
// date keep their relative order.
func SortByDateDescending[T Record](records []T) []T {
	out := slices.Clone(records)
	if out == nil {
		out = []T{}
	}
	slices.SortStableFunc(out, func(a, b T) int {
		return b.RecordDate().Compare(a.RecordDate().Time)
	})
	return out
}

// RecentExpenses returns the n most recent expenses. n <= 0 means
// DefaultRecentCount.
func RecentExpenses(s Snapshot, n int) []Expense {
	if n <= 0 {
		n = DefaultRecentCount
	}
	sorted := SortByDateDescending(s.Expenses)
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// Summarize computes every aggregate of s.
func Summarize(s Snapshot) Aggregates {
	return Aggregates{
		Salary:             s.Salary,
		InitialDebt:        s.InitialDebt,
		TotalExpenses:      TotalExpenses(s),
		TotalDebtPaid:      TotalDebtPaid(s),
		RemainingDebt:      RemainingDebt(s),
		RemainingBudget:    RemainingBudget(s),
		DebtPaidPercentage: DebtPaidPercentage(s),
		CategoryBreakdown:  CategoryBreakdown(s),
		BudgetDistribution: BudgetDistribution(s),
		Expenses:           SortByDateDescending(s.Expenses),
		DebtPayments:       SortByDateDescending(s.DebtPayments),
		RecentExpenses:     RecentExpenses(s, DefaultRecentCount),
	}
}

// sum adds values in ascending order so the result does not depend on the
// order records were inserted in.
func sum(values []float64) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	var total float64
	for _, v := range sorted {
		total += v
	}
	return total
}
