package core

import (
	"errors"
	"math"
	"strings"
	"time"
)

// ValidationError is returned when a user-supplied value violates a field
// constraint. Its message is meant to be shown to the user as is.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

var (
	ErrMissingFields     = &ValidationError{"All required fields must be filled"}
	ErrInvalidAmount     = &ValidationError{"Amount must be greater than 0"}
	ErrFutureExpenseDate = &ValidationError{"Expense date cannot be in the future"}
	ErrFuturePaymentDate = &ValidationError{"Payment date cannot be in the future"}
	ErrInvalidSalary     = &ValidationError{"Please enter a valid salary amount"}
	ErrInvalidDebt       = &ValidationError{"Please enter a valid debt amount"}
)

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ValidateExpense checks a candidate expense. Only the first failing check is
// reported: required fields, then amount, then date.
func ValidateExpense(e Expense, now time.Time) error {
	if strings.TrimSpace(e.Category) == "" || amountMissing(e.Amount) || e.Date.IsEmpty() {
		return ErrMissingFields
	}
	if !amountPositive(e.Amount) {
		return ErrInvalidAmount
	}
	if isFuture(e.Date, now) {
		return ErrFutureExpenseDate
	}
	return nil
}

// ValidatePayment is ValidateExpense without the category check.
func ValidatePayment(p Payment, now time.Time) error {
	if amountMissing(p.Amount) || p.Date.IsEmpty() {
		return ErrMissingFields
	}
	if !amountPositive(p.Amount) {
		return ErrInvalidAmount
	}
	if isFuture(p.Date, now) {
		return ErrFuturePaymentDate
	}
	return nil
}

func ValidateSalary(v float64) error {
	if !isFiniteNonNegative(v) {
		return ErrInvalidSalary
	}
	return nil
}

func ValidateInitialDebt(v float64) error {
	if !isFiniteNonNegative(v) {
		return ErrInvalidDebt
	}
	return nil
}

// A zero or NaN amount counts as not supplied.
func amountMissing(v float64) bool {
	return v == 0 || math.IsNaN(v)
}

func amountPositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

func isFiniteNonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// isFuture compares at day granularity: a date is in the future only when it
// falls after the calendar day of now, in now's location.
func isFuture(d Date, now time.Time) bool {
	return d.After(DateOf(now).Time)
}
