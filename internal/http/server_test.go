package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"debtledger/internal/core"
	"debtledger/internal/ledger"
	"debtledger/internal/metrics"
	"debtledger/internal/report"
	"debtledger/internal/storage"
)

var fixedNow = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	srv     *Server
	store   *ledger.Store
	mem     *storage.MemoryStore
	metrics *metrics.Collector
}

func newTestEnv(t *testing.T, opts ...func(*Options)) *testEnv {
	t.Helper()
	mem := storage.NewMemoryStore()
	collector := metrics.New()
	store := ledger.New(mem, ledger.WithClock(func() time.Time { return fixedNow }), ledger.WithObserver(collector))
	_, err := store.Load(context.Background())
	require.NoError(t, err)

	o := Options{Addr: ":0", Store: store, Metrics: collector, RateLimitPerMinute: 100}
	for _, fn := range opts {
		fn(&o)
	}
	srv := NewServer(o)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testEnv{srv: srv, store: store, mem: mem, metrics: collector}
}

func (e *testEnv) do(t *testing.T, method, target, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) doJSON(t *testing.T, method, target, body string) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	rr := e.do(t, method, target, "application/json", body)
	var resp APIResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp), rr.Body.String())
	return rr, resp
}

const form = "application/x-www-form-urlencoded"

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"ok"`)

	rr = env.do(t, http.MethodGet, "/readyz", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"storage":"not_checked"`)
}

func TestReadyReportsStorageFailure(t *testing.T) {
	env := newTestEnv(t, func(o *Options) {
		o.Ready = func(context.Context) error { return errors.New("disk gone") }
	})
	rr := env.do(t, http.MethodGet, "/readyz", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "disk gone")
}

func TestAddExpenseJSONAndForm(t *testing.T) {
	env := newTestEnv(t)

	rr, resp := env.doJSON(t, http.MethodPost, "/api/expenses",
		`{"category":"Food","amount":500,"date":"2025-03-14","description":"groceries"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.True(t, resp.Success)
	assert.Equal(t, ledger.MsgExpenseAdded, resp.Message)
	assert.NotZero(t, resp.ID)

	rr = env.do(t, http.MethodPost, "/api/expenses", form, "category=Travel&amount=12,50&date=2025-03-10&description=bus")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	snap := env.store.Snapshot()
	require.Len(t, snap.Expenses, 2)
	assert.Equal(t, 12.5, snap.Expenses[1].Amount)
	assert.Equal(t, 512.5, env.store.Aggregates().TotalExpenses)
}

func TestAddExpenseValidation(t *testing.T) {
	env := newTestEnv(t)
	tests := []struct {
		name string
		body string
		want string
	}{
		{"negative amount", `{"category":"Food","amount":-5,"date":"2025-03-14"}`, "Amount must be greater than 0"},
		{"missing category", `{"amount":5,"date":"2025-03-14"}`, "All required fields must be filled"},
		{"unparsable amount", `{"category":"Food","amount":"abc","date":"2025-03-14"}`, "All required fields must be filled"},
		{"bad date", `{"category":"Food","amount":5,"date":"14/03/2025"}`, "All required fields must be filled"},
		{"future date", `{"category":"Food","amount":5,"date":"2025-03-16"}`, "Expense date cannot be in the future"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, resp := env.doJSON(t, http.MethodPost, "/api/expenses", tt.body)
			assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.want, resp.Message)
		})
	}
	assert.Empty(t, env.store.Snapshot().Expenses)
}

func TestMalformedBody(t *testing.T) {
	env := newTestEnv(t)
	rr, resp := env.doJSON(t, http.MethodPost, "/api/payments", `{"amount":`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.False(t, resp.Success)
}

func TestPaymentsAndOverpayment(t *testing.T) {
	env := newTestEnv(t)

	rr, resp := env.doJSON(t, http.MethodPost, "/api/payments", `{"amount":200000,"date":"2025-03-01"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, ledger.MsgPaymentAdded, resp.Message)

	rr = env.do(t, http.MethodGet, "/api/aggregates", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var agg core.Aggregates
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &agg))
	assert.Equal(t, 0.0, agg.RemainingDebt)
	assert.InDelta(t, 133.33, agg.DebtPaidPercentage, 0.01)
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
}

func TestDeleteRecords(t *testing.T) {
	env := newTestEnv(t)
	_, added := env.doJSON(t, http.MethodPost, "/api/expenses", `{"category":"Food","amount":5,"date":"2025-03-14"}`)

	rr, resp := env.doJSON(t, http.MethodDelete, "/api/expenses/abc", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.False(t, resp.Success)

	// unknown IDs are a no-op, not an error
	rr, resp = env.doJSON(t, http.MethodDelete, "/api/payments/999", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, ledger.MsgPaymentMissing, resp.Message)

	rr, _ = env.doJSON(t, http.MethodDelete, "/api/expenses/"+strconv.FormatInt(added.ID, 10), "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, env.store.Snapshot().Expenses)
}

func TestScalarsResetAndClear(t *testing.T) {
	env := newTestEnv(t)

	rr, resp := env.doJSON(t, http.MethodPut, "/api/salary", `{"value":25000}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, ledger.MsgSalaryUpdated, resp.Message)

	rr = env.do(t, http.MethodPut, "/api/initial-debt", form, "value=90000")
	require.Equal(t, http.StatusOK, rr.Code)

	rr, resp = env.doJSON(t, http.MethodPut, "/api/salary", `{"value":"lots"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "Please enter a valid salary amount", resp.Message)

	rr, _ = env.doJSON(t, http.MethodPut, "/api/initial-debt", `{}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	snap := env.store.Snapshot()
	assert.Equal(t, 25000.0, snap.Salary)
	assert.Equal(t, 90000.0, snap.InitialDebt)

	env.doJSON(t, http.MethodPost, "/api/expenses", `{"category":"Food","amount":5,"date":"2025-03-14"}`)
	env.doJSON(t, http.MethodPost, "/api/payments", `{"amount":7,"date":"2025-03-14"}`)

	rr, resp = env.doJSON(t, http.MethodPost, "/api/reset-month", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, ledger.MsgMonthReset, resp.Message)
	snap = env.store.Snapshot()
	assert.Empty(t, snap.Expenses)
	assert.Empty(t, snap.DebtPayments)
	assert.Equal(t, 25000.0, snap.Salary)

	rr, resp = env.doJSON(t, http.MethodPost, "/api/clear", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, ledger.MsgAllCleared, resp.Message)
	assert.Equal(t, core.DefaultSnapshot(), env.store.Snapshot())
}

func TestStorageFailureIs500ButApplied(t *testing.T) {
	env := newTestEnv(t)
	env.mem.FailSaves(true)

	rr, resp := env.doJSON(t, http.MethodPost, "/api/expenses", `{"category":"Food","amount":5,"date":"2025-03-14"}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, ledger.MsgSaveFailed, resp.Message)
	assert.NotZero(t, resp.ID)
	assert.Len(t, env.store.Snapshot().Expenses, 1)
}

func TestUnreadableLedgerRefusesWrites(t *testing.T) {
	env := newTestEnv(t)
	env.doJSON(t, http.MethodPost, "/api/expenses", `{"category":"Food","amount":5,"date":"2025-03-14"}`)
	stored, _ := env.mem.Blob(ledger.DefaultKey)

	env.mem.FailLoads(2)
	_, err := env.store.Load(context.Background())
	require.Error(t, err)

	rr, resp := env.doJSON(t, http.MethodPost, "/api/payments", `{"amount":100,"date":"2025-03-14"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, ledger.MsgLoadFailed, resp.Message)
	after, _ := env.mem.Blob(ledger.DefaultKey)
	assert.Equal(t, stored, after)
}

func TestSnapshotAndExport(t *testing.T) {
	env := newTestEnv(t)
	env.doJSON(t, http.MethodPost, "/api/expenses", `{"category":"Food","amount":500,"date":"2025-03-14"}`)

	rr := env.do(t, http.MethodGet, "/api/snapshot", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var snap core.Snapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snap))
	assert.Len(t, snap.Expenses, 1)

	rr = env.do(t, http.MethodGet, "/api/export", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `attachment; filename="debt-expense-data.json"`, rr.Header().Get("Content-Disposition"))
	want, err := env.store.Export()
	require.NoError(t, err)
	assert.Equal(t, string(want), rr.Body.String())

	rr = env.do(t, http.MethodGet, "/api/export.xlsx", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, report.ContentType, rr.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="debt-expense-data.xlsx"`, rr.Header().Get("Content-Disposition"))
	wb, err := excelize.OpenReader(rr.Body)
	require.NoError(t, err)
	defer wb.Close()
	rows, err := wb.GetRows(report.ExpensesSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestDashboardEscapesUserText(t *testing.T) {
	env := newTestEnv(t)
	env.doJSON(t, http.MethodPost, "/api/expenses",
		`{"category":"Food","amount":500,"date":"2025-03-14","description":"<script>alert(1)</script>Tom & Jerry"}`)

	rr := env.do(t, http.MethodGet, "/", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Debt &amp; Expense Tracker")
	assert.NotContains(t, body, "<script>alert")
	assert.Contains(t, body, "&lt;script&gt;alert(1)&lt;/script&gt;Tom &amp; Jerry")
	assert.NotContains(t, body, "&amp;amp;")
	assert.Contains(t, body, `data-delete="/api/expenses/`)

	// stored value is untouched
	assert.Equal(t, "<script>alert(1)</script>Tom & Jerry", env.store.Snapshot().Expenses[0].Description)
}

func TestStaticAssetsAndHeaders(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodGet, "/static/app.js", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "public, max-age=3600", rr.Header().Get("Cache-Control"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	assert.Contains(t, rr.Header().Get("Content-Security-Policy"), "default-src 'self'")
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodGet, "/api/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = env.do(t, http.MethodGet, "/api/expenses", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestRateLimitOnlyWrites(t *testing.T) {
	env := newTestEnv(t, func(o *Options) { o.RateLimitPerMinute = 2 })

	for i := 0; i < 2; i++ {
		rr, _ := env.doJSON(t, http.MethodPost, "/api/reset-month", "")
		require.Equal(t, http.StatusOK, rr.Code)
	}
	rr, resp := env.doJSON(t, http.MethodPost, "/api/reset-month", "")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.False(t, resp.Success)

	for i := 0; i < 5; i++ {
		rr := env.do(t, http.MethodGet, "/api/snapshot", "", "")
		assert.Equal(t, http.StatusOK, rr.Code)
	}
}

func TestTrustedProxyClientsAreLimitedSeparately(t *testing.T) {
	env := newTestEnv(t, func(o *Options) {
		o.RateLimitPerMinute = 1
		o.TrustedProxies = []string{"203.0.113.5", "not-a-network"}
	})

	post := func(client string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/reset-month", nil)
		req.RemoteAddr = "203.0.113.5:4000"
		req.Header.Set("X-Forwarded-For", client)
		rr := httptest.NewRecorder()
		env.srv.Handler.ServeHTTP(rr, req)
		return rr.Code
	}
	assert.Equal(t, http.StatusOK, post("198.51.100.1"))
	assert.Equal(t, http.StatusOK, post("198.51.100.2"))
	assert.Equal(t, http.StatusTooManyRequests, post("198.51.100.1"))

	rr := env.do(t, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var health map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &health))
	assert.Equal(t, float64(2), health["clients"])
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.doJSON(t, http.MethodPost, "/api/expenses", `{"category":"Food","amount":-5,"date":"2025-03-14"}`)
	env.do(t, http.MethodGet, "/api/snapshot", "", "")

	rr := env.do(t, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `debtledger_ledger_mutations_total{operation="add_expense",outcome="rejected"} 1`)
	assert.Contains(t, body, `debtledger_ledger_loads_total{outcome="empty"} 1`)
	assert.Contains(t, body, `route="/api/snapshot"`)
}
