package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"debtledger/internal/core"
	"debtledger/internal/ledger"
)

// APIResponse is the body of every mutating endpoint.
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      int64  `json:"id,omitempty"`
}

// ResponseBuilder provides a fluent API for building API responses.
type ResponseBuilder struct {
	statusCode int
	body       []byte
	headers    map[string]string
}

// NewResponse creates a builder with a 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON encodes v as the body. Encoding failures turn into a 500.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	data, err := json.Marshal(v)
	if err != nil {
		b.statusCode = http.StatusInternalServerError
		data = []byte(`{"success":false,"message":"internal error"}`)
	}
	b.headers["Content-Type"] = "application/json"
	b.body = data
	return b
}

// Attachment sends body as a file download.
func (b *ResponseBuilder) Attachment(filename, contentType string, body []byte) *ResponseBuilder {
	b.headers["Content-Type"] = contentType
	b.headers["Content-Disposition"] = `attachment; filename="` + filename + `"`
	b.body = body
	return b
}

// Write sends the built response.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// OutcomeResponse maps a store mutation result to a status code. A storage
// failure is a 500 even though the change is live in memory.
func OutcomeResponse(out ledger.Outcome, err error, successStatus int) *ResponseBuilder {
	switch {
	case err == nil:
		return NewResponse().Status(successStatus).JSON(APIResponse{Success: true, Message: out.Message, ID: out.ID})
	case core.IsValidation(err):
		return ErrorResponse(http.StatusUnprocessableEntity, out.Message)
	case errors.Is(err, ledger.ErrUnread):
		return ErrorResponse(http.StatusServiceUnavailable, out.Message)
	case errors.Is(err, ledger.ErrStorage):
		return NewResponse().Status(http.StatusInternalServerError).JSON(APIResponse{Success: false, Message: out.Message, ID: out.ID})
	default:
		return ErrorResponse(http.StatusInternalServerError, err.Error())
	}
}

// ErrorResponse creates a standard failure body.
func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	return NewResponse().Status(statusCode).JSON(APIResponse{Success: false, Message: message})
}

func BadRequestError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func InternalServerError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}
