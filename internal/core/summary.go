package core

// Budget distribution labels, in presentation order.
const (
	SliceExpenses    = "Expenses"
	SliceDebtPayment = "Debt Payment"
	SliceRemaining   = "Remaining"
)

// DefaultRecentCount is the number of entries in the recent expenses view.
const DefaultRecentCount = 3

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// BudgetSlice is one entry of the budget distribution.
type BudgetSlice struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Aggregates bundles every value derived from a snapshot for the rendering
// layer.
type Aggregates struct {
	Salary             float64          `json:"salary"`
	InitialDebt        float64          `json:"initialDebt"`
	TotalExpenses      float64          `json:"totalExpenses"`
	TotalDebtPaid      float64          `json:"totalDebtPaid"`
	RemainingDebt      float64          `json:"remainingDebt"`
	RemainingBudget    float64          `json:"remainingBudget"`
	DebtPaidPercentage float64          `json:"debtPaidPercentage"`
	CategoryBreakdown  []CategoryAmount `json:"categoryBreakdown"`
	BudgetDistribution []BudgetSlice    `json:"budgetDistribution"`
	Expenses           []Expense        `json:"expenses"`
	DebtPayments       []Payment        `json:"debtPayments"`
	RecentExpenses     []Expense        `json:"recentExpenses"`
}

// Known category colors; anything else uses DefaultCategoryColor.
const DefaultCategoryColor = "#606c38"

var categoryColors = map[string]string{
	"Food":      "#606c38",
	"Travel":    "#283618",
	"Utilities": "#dda15e",
	"WiFi":      "#bc6c25",
	"Laundry":   "#a7c957",
	"Others":    "#8a9a5b",
}

// DefaultCategories lists the curated category names in display order.
var DefaultCategories = []string{"Food", "Travel", "Utilities", "WiFi", "Laundry", "Others"}

func CategoryColor(name string) string {
	if c, ok := categoryColors[name]; ok {
		return c
	}
	return DefaultCategoryColor
}

var sliceColors = map[string]string{
	SliceExpenses:    "#606c38",
	SliceDebtPayment: "#dda15e",
	SliceRemaining:   "#a7c957",
}

// SliceColor returns the chart color of a budget distribution label.
func SliceColor(label string) string {
	if c, ok := sliceColors[label]; ok {
		return c
	}
	return DefaultCategoryColor
}
