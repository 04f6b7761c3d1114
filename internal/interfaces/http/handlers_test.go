package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/luminate-erp/internal/application/dispatcher"
	"github.com/garyjia/luminate-erp/internal/application/service"
	"github.com/garyjia/luminate-erp/internal/application/workflow"
	"github.com/garyjia/luminate-erp/internal/domain/entity"
	"github.com/garyjia/luminate-erp/internal/infrastructure/persistence/memory"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// flakyStore fails SaveAll while fail is set
type flakyStore struct {
	*memory.StateStore
	fail bool
}

func (s *flakyStore) SaveAll(ctx context.Context, invoices []*entity.Invoice, products []entity.Product, ledger []entity.LedgerEntry) error {
	if s.fail {
		return errors.New("disk full")
	}
	return s.StateStore.SaveAll(ctx, invoices, products, ledger)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Details json.RawMessage `json:"details"`
}

type testServer struct {
	server *Server
	store  *flakyStore
}

func seedCatalog() []entity.Product {
	return []entity.Product{
		{ID: "P001", Name: "Mathematics Textbook Gr 10", Price: decimal.RequireFromString("45.00"), Stock: 500, ReorderLevel: 100, Category: "Books"},
		{ID: "P002", Name: "Science Lab Kit", Price: decimal.RequireFromString("120.00"), Stock: 50, ReorderLevel: 20, Category: "Equipment"},
		{ID: "P003", Name: "School Uniform Set", Price: decimal.RequireFromString("85.00"), Stock: 200, ReorderLevel: 50, Category: "Apparel"},
		{ID: "P004", Name: "Luminate Tablet", Price: decimal.RequireFromString("350.00"), Stock: 15, ReorderLevel: 25, Category: "Electronics"},
	}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := &flakyStore{StateStore: memory.NewStateStore()}
	d := dispatcher.NewDispatcher()
	t.Cleanup(func() { _ = d.Close() })

	engine := workflow.NewEngine(store, workflow.WithDispatcher(d), workflow.WithSeedCatalog(seedCatalog()))
	require.NoError(t, engine.Load(context.Background()))

	history := service.NewHistoryService(memory.NewHistoryRepository(), nopLogger{})
	history.Register(d)

	srv := NewServer(DefaultServerConfig(), Services{
		Engine:   engine,
		Reports:  service.NewReportService(engine),
		History:  history,
		Insights: service.NewInsightService(engine, nil, nopLogger{}),
	}, nopLogger{})

	return &testServer{server: srv, store: store}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.server.Router().ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func (ts *testServer) createInvoice(t *testing.T, school string, items ...map[string]interface{}) entity.Invoice {
	t.Helper()
	w, env := ts.do(t, http.MethodPost, "/api/v1/invoices", map[string]interface{}{
		"school_name": school,
		"items":       items,
		"created_by":  "Sam",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var inv entity.Invoice
	require.NoError(t, json.Unmarshal(env.Data, &inv))
	return inv
}

func line(productID string, qty int) map[string]interface{} {
	return map[string]interface{}{"product_id": productID, "quantity": qty}
}

func approval(role, approver string) map[string]string {
	return map[string]string{"role": role, "approver": approver}
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	w, env := ts.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)

	var health HealthResponse
	require.NoError(t, json.Unmarshal(env.Data, &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, 4, health.Products)
}

func TestCreateInvoice(t *testing.T) {
	ts := newTestServer(t)

	inv := ts.createInvoice(t, "  Lincoln   High ", line("P001", 100))
	assert.True(t, strings.HasPrefix(inv.ID, "INV-"))
	assert.Equal(t, "Lincoln High", inv.SchoolName)
	assert.Equal(t, "PENDING_APPROVAL", inv.Status.String())
	assert.True(t, inv.TotalAmount.Equal(decimal.NewFromInt(4500)))
	assert.True(t, inv.RoyaltyFee.Equal(decimal.NewFromInt(675)))
	assert.True(t, inv.NetRevenue.Equal(decimal.NewFromInt(3825)))

	w, env := ts.do(t, http.MethodGet, "/api/v1/invoices/"+inv.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
}

func TestCreateInvoice_Validation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name  string
		body  interface{}
		field string
	}{
		{"missing school", map[string]interface{}{"items": []interface{}{line("P001", 1)}}, "school_name"},
		{"no items", map[string]interface{}{"school_name": "X", "items": []interface{}{}}, "items"},
		{"zero quantity", map[string]interface{}{"school_name": "X", "items": []interface{}{line("P001", 0)}}, "items[0].quantity"},
		{"oversized quantity", map[string]interface{}{"school_name": "X", "items": []interface{}{line("P004", math.MaxInt/2+1)}}, "items[0].quantity"},
		{"missing product", map[string]interface{}{"school_name": "X", "items": []interface{}{line("", 1)}}, "items[0].product_id"},
		{"malformed body", `{"school_name":`, "body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := ts.do(t, http.MethodPost, "/api/v1/invoices", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.False(t, env.Success)

			var fields []map[string]string
			require.NoError(t, json.Unmarshal(env.Details, &fields))
			require.NotEmpty(t, fields)
			assert.Equal(t, tt.field, fields[0]["field"])
		})
	}

	_, env := ts.do(t, http.MethodGet, "/api/v1/invoices", nil)
	assert.Equal(t, "[]", string(env.Data))
}

func TestCreateInvoice_UnknownProduct(t *testing.T) {
	ts := newTestServer(t)

	w, env := ts.do(t, http.MethodPost, "/api/v1/invoices", map[string]interface{}{
		"school_name": "Lincoln High",
		"items":       []interface{}{line("P999", 1)},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, env.Error, "P999")
}

func TestApprove_DualApprovalFinalizes(t *testing.T) {
	ts := newTestServer(t)
	inv := ts.createInvoice(t, "Lincoln High", line("P001", 100))

	w, env := ts.do(t, http.MethodPost, "/api/v1/invoices/"+inv.ID+"/approve", approval("ACCOUNTS", "Alice"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var afterAccounts entity.Invoice
	require.NoError(t, json.Unmarshal(env.Data, &afterAccounts))
	assert.Equal(t, "APPROVED_ACCOUNTS", afterAccounts.Status.String())

	w, env = ts.do(t, http.MethodPost, "/api/v1/invoices/"+inv.ID+"/approve", approval("STOCK", "Steve"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var finalized entity.Invoice
	require.NoError(t, json.Unmarshal(env.Data, &finalized))
	assert.Equal(t, "FINALIZED", finalized.Status.String())
	require.NotNil(t, finalized.SyncStatus)
	assert.Equal(t, entity.SyncStatusPending, *finalized.SyncStatus)

	_, env = ts.do(t, http.MethodGet, "/api/v1/ledger", nil)
	var ledger []entity.LedgerEntry
	require.NoError(t, json.Unmarshal(env.Data, &ledger))
	require.Len(t, ledger, 2)
	assert.Equal(t, entity.EntryTypeRevenue, ledger[0].Type)

	_, env = ts.do(t, http.MethodGet, "/api/v1/products", nil)
	var products []entity.Product
	require.NoError(t, json.Unmarshal(env.Data, &products))
	assert.Equal(t, 400, products[0].Stock)

	_, env = ts.do(t, http.MethodGet, "/api/v1/dashboard", nil)
	var dashboard service.Dashboard
	require.NoError(t, json.Unmarshal(env.Data, &dashboard))
	assert.True(t, dashboard.TotalNetRevenue.Equal(decimal.NewFromInt(3825)))
	assert.Equal(t, 1, dashboard.FinalizedInvoices)
}

func TestApprove_InsufficientStock(t *testing.T) {
	ts := newTestServer(t)
	inv := ts.createInvoice(t, "Roosevelt", line("P004", 20))

	w, env := ts.do(t, http.MethodPost, "/api/v1/invoices/"+inv.ID+"/approve", approval("STOCK", "Steve"))
	require.Equal(t, http.StatusConflict, w.Code)

	var shortages []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Details, &shortages))
	require.Len(t, shortages, 1)
	assert.Equal(t, "P004", shortages[0]["product_id"])
	assert.EqualValues(t, 15, shortages[0]["available"])

	_, env = ts.do(t, http.MethodGet, "/api/v1/invoices/"+inv.ID, nil)
	var unchanged entity.Invoice
	require.NoError(t, json.Unmarshal(env.Data, &unchanged))
	assert.Equal(t, "PENDING_APPROVAL", unchanged.Status.String())
	assert.Nil(t, unchanged.Approvals.Stock)
}

func TestApprove_BadRequests(t *testing.T) {
	ts := newTestServer(t)
	inv := ts.createInvoice(t, "Lincoln High", line("P001", 1))

	w, _ := ts.do(t, http.MethodPost, "/api/v1/invoices/"+inv.ID+"/approve", approval("CEO", "Carol"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = ts.do(t, http.MethodPost, "/api/v1/invoices/"+inv.ID+"/approve", approval("ACCOUNTS", ""))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = ts.do(t, http.MethodPost, "/api/v1/invoices/INV-1999-0001/approve", approval("ACCOUNTS", "Alice"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReject_ThenApproveConflicts(t *testing.T) {
	ts := newTestServer(t)
	inv := ts.createInvoice(t, "Lincoln High", line("P002", 1))

	w, env := ts.do(t, http.MethodPost, "/api/v1/invoices/"+inv.ID+"/reject", map[string]string{
		"role": "ACCOUNTS", "approver": "Alice", "reason": "wrong school",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var rejected entity.Invoice
	require.NoError(t, json.Unmarshal(env.Data, &rejected))
	assert.Equal(t, "REJECTED", rejected.Status.String())

	w, _ = ts.do(t, http.MethodPost, "/api/v1/invoices/"+inv.ID+"/approve", approval("STOCK", "Steve"))
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = ts.do(t, http.MethodPost, "/api/v1/invoices/"+inv.ID+"/reject", map[string]string{
		"role": "STOCK", "approver": "Steve",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPendingQueue(t *testing.T) {
	ts := newTestServer(t)
	first := ts.createInvoice(t, "A", line("P001", 1))
	second := ts.createInvoice(t, "B", line("P001", 1))

	w, _ := ts.do(t, http.MethodPost, "/api/v1/invoices/"+first.ID+"/approve", approval("ACCOUNTS", "Alice"))
	require.Equal(t, http.StatusOK, w.Code)

	_, env := ts.do(t, http.MethodGet, "/api/v1/queues/accounts", nil)
	var accounts []entity.Invoice
	require.NoError(t, json.Unmarshal(env.Data, &accounts))
	require.Len(t, accounts, 1)
	assert.Equal(t, second.ID, accounts[0].ID)

	_, env = ts.do(t, http.MethodGet, "/api/v1/queues/STOCK", nil)
	var stock []entity.Invoice
	require.NoError(t, json.Unmarshal(env.Data, &stock))
	assert.Len(t, stock, 2)

	w, _ = ts.do(t, http.MethodGet, "/api/v1/queues/ceo", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetHistory(t *testing.T) {
	ts := newTestServer(t)
	inv := ts.createInvoice(t, "Lincoln High", line("P001", 1))
	w, _ := ts.do(t, http.MethodPost, "/api/v1/invoices/"+inv.ID+"/approve", approval("ACCOUNTS", "Alice"))
	require.Equal(t, http.StatusOK, w.Code)

	require.Eventually(t, func() bool {
		_, env := ts.do(t, http.MethodGet, "/api/v1/invoices/"+inv.ID+"/history", nil)
		var records []entity.TransitionRecord
		return json.Unmarshal(env.Data, &records) == nil && len(records) == 2
	}, time.Second, 10*time.Millisecond)

	w, _ = ts.do(t, http.MethodGet, "/api/v1/invoices/INV-1999-0001/history", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPersistenceFailure(t *testing.T) {
	ts := newTestServer(t)
	ts.store.fail = true

	w, env := ts.do(t, http.MethodPost, "/api/v1/invoices", map[string]interface{}{
		"school_name": "Lincoln High",
		"items":       []interface{}{line("P001", 1)},
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "failed to persist changes", env.Error)

	ts.store.fail = false
	_, env = ts.do(t, http.MethodGet, "/api/v1/invoices", nil)
	assert.Equal(t, "[]", string(env.Data))
}

func TestInsights_NotConfigured(t *testing.T) {
	ts := newTestServer(t)

	w, env := ts.do(t, http.MethodPost, "/api/v1/insights/ask", map[string]string{"question": "How are sales?"})
	require.Equal(t, http.StatusOK, w.Code)
	var answer AnswerResponse
	require.NoError(t, json.Unmarshal(env.Data, &answer))
	assert.Equal(t, service.InsightNotConfigured, answer.Answer)

	w, _ = ts.do(t, http.MethodPost, "/api/v1/insights/ask", map[string]string{"question": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = ts.do(t, http.MethodGet, "/api/v1/insights/anomalies", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", string(env.Data))
}

func TestCORSHeaders(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	ts.server.Router().ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

// recordingLogger keeps the messages logged at info level
type recordingLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *recordingLogger) Info(msg string, _ ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, msg)
}

func (l *recordingLogger) Error(string, ...interface{}) {}

func (l *recordingLogger) count(msg string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, m := range l.messages {
		if m == msg {
			n++
		}
	}
	return n
}

func TestCreateInvoice_LoggedOnce(t *testing.T) {
	logs := &recordingLogger{}
	engine := workflow.NewEngine(memory.NewStateStore(),
		workflow.WithSeedCatalog(seedCatalog()), workflow.WithLogger(logs))
	require.NoError(t, engine.Load(context.Background()))

	srv := NewServer(DefaultServerConfig(), Services{
		Engine:   engine,
		Reports:  service.NewReportService(engine),
		History:  service.NewHistoryService(memory.NewHistoryRepository(), nopLogger{}),
		Insights: service.NewInsightService(engine, nil, nopLogger{}),
	}, logs)
	ts := &testServer{server: srv}

	ts.createInvoice(t, "Lincoln High", line("P001", 1))
	assert.Equal(t, 1, logs.count("Invoice created"))
}
