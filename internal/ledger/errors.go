package ledger

import (
	"errors"
	"fmt"
)

// ErrStorage means a mutation could not be saved. Usually the change is
// applied in memory; when it is wrapped with ErrUnread it was not applied.
var ErrStorage = errors.New("error saving data to storage")

// ErrUnread means the stored ledger could not be read, so the Store refuses
// to write over it.
var ErrUnread = errors.New("stored ledger could not be read")

// CorruptDataError is returned by Load when the stored blob could not be
// used. The Store has already fallen back to the default snapshot.
type CorruptDataError struct {
	Reason string
	Err    error
}

func (e *CorruptDataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("corrupt ledger data: %s: %v", e.Reason, e.Err)
	}
	return "corrupt ledger data: " + e.Reason
}

func (e *CorruptDataError) Unwrap() error { return e.Err }

// IsCorrupt reports whether err is (or wraps) a CorruptDataError.
func IsCorrupt(err error) bool {
	var ce *CorruptDataError
	return errors.As(err, &ce)
}

// User-facing notification messages.
const (
	MsgExpenseAdded   = "Expense added successfully!"
	MsgPaymentAdded   = "Payment recorded successfully!"
	MsgExpenseDeleted = "Expense deleted successfully!"
	MsgPaymentDeleted = "Payment deleted successfully!"
	MsgExpenseMissing = "No expense with that ID, nothing deleted"
	MsgPaymentMissing = "No payment with that ID, nothing deleted"
	MsgMonthReset     = "Month reset successfully!"
	MsgAllCleared     = "All data cleared!"
	MsgSalaryUpdated  = "Salary updated successfully!"
	MsgDebtUpdated    = "Debt amount updated successfully!"
	MsgSaveFailed     = "Error saving data to storage"
	MsgLoadInvalid    = "Loaded data was invalid, using default values"
	MsgLoadFailed     = "Error loading saved data"
)
