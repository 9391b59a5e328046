package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"

	"debtledger/internal/core"
)

// Encode serializes a snapshot in the compact persisted form. Text is
// written as stored, without HTML escaping.
func Encode(s core.Snapshot) ([]byte, error) {
	return encode(s, "")
}

// EncodeIndent serializes a snapshot for export, two-space indented.
func EncodeIndent(s core.Snapshot) ([]byte, error) {
	return encode(s, "  ")
}

func encode(s core.Snapshot, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(normalize(s)); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Decode parses a persisted blob after checking its shape: salary and
// initialDebt must be numbers, expenses and debtPayments must be arrays.
// Any failure is returned as a *CorruptDataError.
func Decode(blob []byte) (core.Snapshot, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(blob, &raw); err != nil {
		return core.Snapshot{}, &CorruptDataError{Reason: "not a JSON object", Err: err}
	}

	var s core.Snapshot
	if err := decodeNumber(raw, "salary", &s.Salary); err != nil {
		return core.Snapshot{}, err
	}
	if err := decodeNumber(raw, "initialDebt", &s.InitialDebt); err != nil {
		return core.Snapshot{}, err
	}
	if err := decodeArray(raw, "expenses", &s.Expenses); err != nil {
		return core.Snapshot{}, err
	}
	if err := decodeArray(raw, "debtPayments", &s.DebtPayments); err != nil {
		return core.Snapshot{}, err
	}
	return normalize(s), nil
}

func decodeNumber(raw map[string]json.RawMessage, field string, dst *float64) error {
	v := bytes.TrimSpace(raw[field])
	if len(v) == 0 || !(v[0] == '-' || (v[0] >= '0' && v[0] <= '9')) {
		return &CorruptDataError{Reason: field + " is not a number"}
	}
	if err := json.Unmarshal(v, dst); err != nil {
		return &CorruptDataError{Reason: field + " is not a number", Err: err}
	}
	return nil
}

func decodeArray[T any](raw map[string]json.RawMessage, field string, dst *[]T) error {
	v := bytes.TrimSpace(raw[field])
	if len(v) == 0 || v[0] != '[' {
		return &CorruptDataError{Reason: field + " is not a list"}
	}
	if err := json.Unmarshal(v, dst); err != nil {
		return &CorruptDataError{Reason: "malformed " + field, Err: err}
	}
	return nil
}

func normalize(s core.Snapshot) core.Snapshot {
	if s.Expenses == nil {
		s.Expenses = []core.Expense{}
	}
	if s.DebtPayments == nil {
		s.DebtPayments = []core.Payment{}
	}
	return s
}
