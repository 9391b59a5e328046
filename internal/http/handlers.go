package http

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"debtledger/internal/ledger"
	"debtledger/internal/log"
	"debtledger/internal/report"
)

// exportFilename is the download name of GET /api/export.
const exportFilename = "debt-expense-data.json"

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
		"clients":   s.limiter.ActiveClients(),
	}).Write(w)
}

// handleReady reports whether templates parsed and storage answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]string)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if s.ready == nil {
		checks["storage"] = "not_checked"
	} else if err := s.ready(ctx); err != nil {
		checks["storage"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["storage"] = "ok"
	}

	NewResponse().Status(httpStatus).JSON(map[string]any{
		"status": status,
		"checks": checks,
	}).Write(w)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(s.store.Snapshot()).Write(w)
}

func (s *Server) handleAggregates(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(s.store.Aggregates()).Write(w)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	body, err := s.store.Export()
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Export failed",
			log.FieldOperation, log.OpExport,
			log.FieldError, err)
		InternalServerError("export failed").Write(w)
		return
	}
	NewResponse().Attachment(exportFilename, "application/json", body).Write(w)
}

func (s *Server) handleExportWorkbook(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := report.WriteWorkbook(&buf, s.store.Aggregates(), time.Now()); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Workbook export failed",
			log.FieldOperation, log.OpExport,
			log.FieldError, err)
		InternalServerError("export failed").Write(w)
		return
	}
	NewResponse().Attachment(report.Filename, report.ContentType, buf.Bytes()).Write(w)
}

// parseBody reads the request body or writes a 400 and returns nil.
func parseBody(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Unreadable request body", log.FieldError, err)
		BadRequestError("Invalid request body").Write(w)
		return nil
	}
	return p
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	p := parseBody(w, r)
	if p == nil {
		return
	}
	out, err := s.store.AddExpense(r.Context(), p.ParseExpense())
	OutcomeResponse(out, err, http.StatusCreated).Write(w)
}

func (s *Server) handleAddPayment(w http.ResponseWriter, r *http.Request) {
	p := parseBody(w, r)
	if p == nil {
		return
	}
	out, err := s.store.AddPayment(r.Context(), p.ParsePayment())
	OutcomeResponse(out, err, http.StatusCreated).Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	s.deleteRecord(w, r, s.store.DeleteExpense)
}

func (s *Server) handleDeletePayment(w http.ResponseWriter, r *http.Request) {
	s.deleteRecord(w, r, s.store.DeletePayment)
}

func (s *Server) deleteRecord(w http.ResponseWriter, r *http.Request, del func(context.Context, int64) (ledger.Outcome, error)) {
	id, ok := recordID(r)
	if !ok {
		BadRequestError("Invalid record id").Write(w)
		return
	}
	out, err := del(r.Context(), id)
	OutcomeResponse(out, err, http.StatusOK).Write(w)
}

func (s *Server) handleResetMonth(w http.ResponseWriter, r *http.Request) {
	out, err := s.store.ResetMonth(r.Context())
	OutcomeResponse(out, err, http.StatusOK).Write(w)
}

func (s *Server) handleClearAll(w http.ResponseWriter, r *http.Request) {
	out, err := s.store.ClearAll(r.Context())
	OutcomeResponse(out, err, http.StatusOK).Write(w)
}

func (s *Server) handleSetSalary(w http.ResponseWriter, r *http.Request) {
	p := parseBody(w, r)
	if p == nil {
		return
	}
	out, err := s.store.SetSalary(r.Context(), p.ParseValue())
	OutcomeResponse(out, err, http.StatusOK).Write(w)
}

func (s *Server) handleSetInitialDebt(w http.ResponseWriter, r *http.Request) {
	p := parseBody(w, r)
	if p == nil {
		return
	}
	out, err := s.store.SetInitialDebt(r.Context(), p.ParseValue())
	OutcomeResponse(out, err, http.StatusOK).Write(w)
}
