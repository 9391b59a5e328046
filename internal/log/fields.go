package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldError       = "error"
	FieldErrorType   = "error_type"
	FieldOperation   = "operation"
	FieldLedgerKey   = "ledger_key"
	FieldRecordID    = "record_id"
	FieldPersisted   = "persisted"
	FieldBackend     = "backend"
	FieldExpenses    = "expenses"
	FieldPayments    = "debt_payments"
	FieldMessageID   = "message_id"
	FieldSpreadsheet = "spreadsheet_id"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentLedger  = "ledger"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentSheets  = "sheets"
	ComponentBackend = "backend"
)

// Operations defines standard operation names
const (
	OpLoad          = "load"
	OpPersist       = "persist"
	OpAddExpense    = "add_expense"
	OpAddPayment    = "add_payment"
	OpDeleteExpense = "delete_expense"
	OpDeletePayment = "delete_payment"
	OpResetMonth    = "reset_month"
	OpClearAll      = "clear_all"
	OpSetSalary     = "set_salary"
	OpSetDebt       = "set_initial_debt"
	OpExport        = "export"
	OpSync          = "sync"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation  = "validation_error"
	ErrorTypeStorage     = "storage_error"
	ErrorTypeCorruptData = "corrupt_data_error"
	ErrorTypeNetwork     = "network_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithHTTPRequest(method, path, clientIP, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldClientIP] = clientIP
	f[FieldUserAgent] = userAgent
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
