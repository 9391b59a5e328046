package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Default scalars used on first run and by ClearAll.
const (
	DefaultSalary      = 18000
	DefaultInitialDebt = 150000
)

type (
	// Date is a calendar date without time of day. The zero value means
	// the date was not supplied.
	Date struct {
		time.Time
	}

	Expense struct {
		ID          int64   `json:"id"`
		Category    string  `json:"category"`
		Amount      float64 `json:"amount"`
		Date        Date    `json:"date"`
		Description string  `json:"description"`
	}

	Payment struct {
		ID     int64   `json:"id"`
		Amount float64 `json:"amount"`
		Date   Date    `json:"date"`
	}

	// Snapshot is the persisted root object of a ledger.
	Snapshot struct {
		Salary       float64   `json:"salary"`
		InitialDebt  float64   `json:"initialDebt"`
		Expenses     []Expense `json:"expenses"`
		DebtPayments []Payment `json:"debtPayments"`
	}
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a date string in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

// IsEmpty returns true if the date was not supplied
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DefaultSnapshot returns the ledger used on first run.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		Salary:       DefaultSalary,
		InitialDebt:  DefaultInitialDebt,
		Expenses:     []Expense{},
		DebtPayments: []Payment{},
	}
}

// Clone returns a deep copy. Collections are never nil in the copy.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Expenses = append(make([]Expense, 0, len(s.Expenses)), s.Expenses...)
	out.DebtPayments = append(make([]Payment, 0, len(s.DebtPayments)), s.DebtPayments...)
	return out
}

// MaxID returns the largest record ID in either collection, or 0.
func (s Snapshot) MaxID() int64 {
	var max int64
	for _, e := range s.Expenses {
		if e.ID > max {
			max = e.ID
		}
	}
	for _, p := range s.DebtPayments {
		if p.ID > max {
			max = p.ID
		}
	}
	return max
}
