package http

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"debtledger/internal/core"
	"debtledger/internal/log"
)

type (
	barRow struct {
		Label  string
		Amount float64
		Color  string
		Width  int
	}

	expenseRow struct {
		ID          int64
		Date        string
		Category    string
		Description string
		Amount      float64
		Color       string
	}

	paymentRow struct {
		ID     int64
		Date   string
		Amount float64
	}

	dashboardView struct {
		Today              string
		Salary             float64
		InitialDebt        float64
		TotalExpenses      float64
		TotalDebtPaid      float64
		RemainingDebt      float64
		RemainingBudget    float64
		DebtPaidPercentage float64
		DebtProgress       int
		Categories         []barRow
		Budget             []barRow
		Recent             []expenseRow
		Expenses           []expenseRow
		Payments           []paymentRow
		CategoryOptions    []string
	}
)

func (s *Server) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"money":   core.FormatAmount,
		"percent": func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
	}
}

// handleDashboard renders the main dashboard page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded")
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	view := s.buildDashboard(s.store.Aggregates(), time.Now())

	// render into a buffer so a template error never leaves a half page
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "index.html", view); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Dashboard template execution failed",
			log.FieldError, err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

// buildDashboard turns aggregates into display rows. User text is kept raw;
// html/template escapes it where it is rendered.
func (s *Server) buildDashboard(agg core.Aggregates, now time.Time) dashboardView {
	view := dashboardView{
		Today:              core.DateOf(now).String(),
		Salary:             agg.Salary,
		InitialDebt:        agg.InitialDebt,
		TotalExpenses:      agg.TotalExpenses,
		TotalDebtPaid:      agg.TotalDebtPaid,
		RemainingDebt:      agg.RemainingDebt,
		RemainingBudget:    agg.RemainingBudget,
		DebtPaidPercentage: agg.DebtPaidPercentage,
		DebtProgress:       percentWidth(agg.TotalDebtPaid, agg.InitialDebt),
		CategoryOptions:    core.DefaultCategories,
	}

	var maxCategory float64
	for _, c := range agg.CategoryBreakdown {
		maxCategory = max(maxCategory, c.Amount)
	}
	for _, c := range agg.CategoryBreakdown {
		view.Categories = append(view.Categories, barRow{
			Label:  c.Name,
			Amount: c.Amount,
			Color:  core.CategoryColor(c.Name),
			Width:  percentWidth(c.Amount, maxCategory),
		})
	}

	for _, b := range agg.BudgetDistribution {
		view.Budget = append(view.Budget, barRow{
			Label:  b.Label,
			Amount: b.Value,
			Color:  core.SliceColor(b.Label),
			Width:  percentWidth(b.Value, agg.Salary),
		})
	}

	for _, e := range agg.RecentExpenses {
		view.Recent = append(view.Recent, newExpenseRow(e))
	}
	for _, e := range agg.Expenses {
		view.Expenses = append(view.Expenses, newExpenseRow(e))
	}
	for _, p := range agg.DebtPayments {
		view.Payments = append(view.Payments, paymentRow{ID: p.ID, Date: p.Date.String(), Amount: p.Amount})
	}
	return view
}

func newExpenseRow(e core.Expense) expenseRow {
	return expenseRow{
		ID:          e.ID,
		Date:        e.Date.String(),
		Category:    e.Category,
		Description: e.Description,
		Amount:      e.Amount,
		Color:       core.CategoryColor(e.Category),
	}
}
