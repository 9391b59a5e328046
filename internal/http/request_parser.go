// Package http serves the ledger over a JSON API and an HTML dashboard.
//
// This file reads request bodies that arrive either as JSON (API clients) or
// as url-encoded forms (the dashboard and curl).
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"debtledger/internal/core"
)

// maxBodyBytes caps request bodies; ledger payloads are tiny.
const maxBodyBytes = 64 << 10

var errBodyTooLarge = errors.New("request body too large")

// RequestBodyParser handles JSON and form-encoded bodies behind one Get.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser reads the body once and keeps it for Parse.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{contentType: r.Header.Get("Content-Type")}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	switch {
	case err != nil:
		p.err = err
	case len(body) > maxBodyBytes:
		p.err = errBodyTooLarge
	default:
		p.body = body
	}
	return p
}

// Parse decodes the body as JSON when it looks like a JSON object, otherwise
// as a form.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	if p.err != nil {
		return p.err
	}

	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.formData = url.Values{}
		return nil
	}

	if strings.HasPrefix(trimmed, "{") || strings.Contains(p.contentType, "application/json") {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal([]byte(trimmed), &p.jsonData); err != nil {
			p.err = fmt.Errorf("invalid JSON body: %w", err)
			return p.err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(trimmed)
	if p.err != nil {
		p.err = fmt.Errorf("invalid form body: %w", p.err)
	}
	return p.err
}

// Get returns a sanitized string value from the parsed body.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ParseExpense builds a candidate expense. The store validates it.
func (p *RequestBodyParser) ParseExpense() core.Expense {
	return core.Expense{
		Category:    p.Get("category"),
		Amount:      amountOrNaN(p.Get("amount")),
		Date:        dateOrEmpty(p.Get("date")),
		Description: p.Get("description"),
	}
}

// ParsePayment builds a candidate debt payment.
func (p *RequestBodyParser) ParsePayment() core.Payment {
	return core.Payment{
		Amount: amountOrNaN(p.Get("amount")),
		Date:   dateOrEmpty(p.Get("date")),
	}
}

// ParseValue reads the scalar used by the salary and initial debt endpoints.
// Blank or unparsable input is NaN so the validator rejects it.
func (p *RequestBodyParser) ParseValue() float64 {
	s := p.Get("value")
	if s == "" {
		return math.NaN()
	}
	return amountOrNaN(s)
}
