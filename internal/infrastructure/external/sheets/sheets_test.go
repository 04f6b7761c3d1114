package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/garyjia/luminate-erp/internal/application/port"
)

func newTestTarget(t *testing.T, handler http.HandlerFunc) *Target {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := gsheets.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	return newTarget(svc, Config{SpreadsheetID: "sheet-123"}, zap.NewNop())
}

func sampleRecord() port.SyncRecord {
	return port.SyncRecord{
		InvoiceID:   "INV-2026-0001",
		SchoolName:  "Lincoln High",
		Quantity:    100,
		Amount:      decimal.NewFromInt(4500),
		Royalty:     decimal.NewFromInt(675),
		NetRevenue:  decimal.NewFromInt(3825),
		FinalizedAt: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
	}
}

func TestTarget_PushAppendsRow(t *testing.T) {
	var (
		gotPath  string
		gotQuery string
		gotBody  gsheets.ValueRange
	)
	target := newTestTarget(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-123","updates":{"updatedRange":"Invoices!A2:G2"}}`))
	})

	require.NoError(t, target.Push(context.Background(), sampleRecord()))

	assert.True(t, strings.Contains(gotPath, "/v4/spreadsheets/sheet-123/values/"), gotPath)
	assert.True(t, strings.HasSuffix(gotPath, ":append"), gotPath)
	assert.Contains(t, gotQuery, "valueInputOption=USER_ENTERED")
	require.Len(t, gotBody.Values, 1)
	assert.Equal(t, "INV-2026-0001", gotBody.Values[0][0])
	assert.Equal(t, "3825.00", gotBody.Values[0][5])
	assert.Equal(t, "2026-03-02 10:00:00", gotBody.Values[0][6])
}

func TestTarget_PushServerError(t *testing.T) {
	target := newTestTarget(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"The caller does not have permission"}}`))
	})

	err := target.Push(context.Background(), sampleRecord())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "append")
}

func TestNewTarget_Validation(t *testing.T) {
	ctx := context.Background()

	_, err := NewTarget(ctx, Config{}, zap.NewNop())
	assert.Error(t, err)

	_, err = NewTarget(ctx, Config{SpreadsheetID: "x"}, zap.NewNop())
	assert.Error(t, err)

	_, err = NewTarget(ctx, Config{SpreadsheetID: "x", CredentialsJSON: "{not json"}, zap.NewNop())
	assert.Error(t, err)

	_, err = NewTarget(ctx, Config{SpreadsheetID: "x", CredentialsFile: "/does/not/exist.json"}, zap.NewNop())
	assert.Error(t, err)
}
