package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/lock"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/stock-ledger/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/stock-ledger/pkg/jwt"
)

type stubFeed struct {
	items   []entity.Item
	entries []entity.LedgerEntry
}

func (f stubFeed) FetchItems(context.Context, entity.FeedConfig) ([]entity.Item, error) {
	return f.items, nil
}

func (f stubFeed) FetchEntries(context.Context, entity.FeedConfig) ([]entity.LedgerEntry, error) {
	return f.entries, nil
}

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func ledgerData() ([]entity.Item, []entity.LedgerEntry) {
	items := []entity.Item{
		{Code: "A100", Name: "Pantalón", Kind: "6"},
		{Code: "B200", Name: "Camisa", Kind: "6"},
	}
	entries := []entity.LedgerEntry{
		{Seq: 1, Date: day("2024-01-01"), Kind: entity.KindOpening, VoucherNumber: "O-1", ItemCode: "A100", LotID: "L1", Quantity: decimal.NewFromInt(10), Params: [5]string{"RED"}},
		{Seq: 2, Date: day("2024-01-02"), Kind: entity.KindSale, VoucherNumber: "S-1", ItemCode: "A100", LotID: "L1", Quantity: decimal.NewFromInt(4)},
		{Seq: 3, Date: day("2024-01-03"), Kind: entity.KindReceipt, VoucherNumber: "P-1", ItemCode: "B200", LotID: "L2", Quantity: decimal.NewFromInt(1)},
	}
	return items, entries
}

func buildApp(t *testing.T) *fiber.App {
	t.Helper()
	store := memory.NewStore()
	items, entries := ledgerData()
	require.NoError(t, store.ReplaceAll(context.Background(), items, entries))

	feed := stubFeed{items: items, entries: entries}
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		ReportUC: ledger.NewReportUseCase(store, store, nil, time.Second, "6"),
		ImportUC: ledger.NewImportUseCase(feed, store, store, lock.NewLocal(),
			ledger.ImportOptions{Fallback: entity.FeedConfig{URL: "http://erp.local/q"}}, nil),
		FeedConfigUC: ledger.NewFeedConfigUseCase(store),
		JWTSecret:    testJWTSecret,
	})
	return app
}

func call(t *testing.T, app *fiber.App, method, path, auth string, body []byte) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestRouter_Health(t *testing.T) {
	resp := call(t, buildApp(t), http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Status string          `json:"status"`
		Ledger dto.LedgerStats `json:"ledger"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, dto.LedgerStats{Entries: 3, Lots: 2}, body.Ledger)
}

func TestRouter_ReporteItems(t *testing.T) {
	app := buildApp(t)

	resp := call(t, app, http.MethodGet, "/api/items?to=2024-01-02", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var report dto.ItemStockReport
	decode(t, resp, &report)
	rows := report.Rows
	require.Len(t, rows, 2)
	assert.True(t, decimal.NewFromInt(14).Equal(rows[0].Closing))
	assert.Equal(t, "zero_stock", rows[1].Status)
	assert.Equal(t, dto.StockStatusSummary{Total: 2, InStock: 1, Zero: 1}, report.Summary)

	// Caso: rango predefinido combinado con from
	mixed := call(t, app, http.MethodGet, "/api/items?range=today&from=2024-01-01", "", nil)
	defer mixed.Body.Close()
	assert.Equal(t, http.StatusBadRequest, mixed.StatusCode)

	unknown := call(t, app, http.MethodGet, "/api/items?range=decade", "", nil)
	defer unknown.Body.Close()
	assert.Equal(t, http.StatusBadRequest, unknown.StatusCode)

	bad := call(t, app, http.MethodGet, "/api/items?from=02-01-2024", "", nil)
	defer bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestRouter_StockYLotesDeItem(t *testing.T) {
	app := buildApp(t)

	missing := call(t, app, http.MethodGet, "/api/items/NOPE/stock", "", nil)
	defer missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)

	resp := call(t, app, http.MethodGet, "/api/items/A100/lots", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var lots dto.ItemLotStockResponse
	decode(t, resp, &lots)
	require.Len(t, lots.Lots, 1)
	assert.Equal(t, "RED", lots.Lots[0].P1)
	assert.True(t, decimal.NewFromInt(6).Equal(lots.Item.TotalLotStock))
}

func TestRouter_BusquedaYLowStock(t *testing.T) {
	app := buildApp(t)

	resp := call(t, app, http.MethodGet, "/api/items/search?term=pan", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var found dto.SearchResponse
	decode(t, resp, &found)
	require.Len(t, found.Results, 1)
	assert.Equal(t, "A100", found.Results[0].ID)

	low := call(t, app, http.MethodGet, "/api/items/low-stock?threshold=1", "", nil)
	require.Equal(t, http.StatusOK, low.StatusCode)
	var lowRows []dto.ItemWithStockRow
	decode(t, low, &lowRows)
	require.Len(t, lowRows, 1)
	assert.Equal(t, "B200", lowRows[0].Code)

	bad := call(t, app, http.MethodGet, "/api/items/low-stock?threshold=mucho", "", nil)
	defer bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestRouter_ResumenLotesYMovimientos(t *testing.T) {
	app := buildApp(t)

	resp := call(t, app, http.MethodGet, "/api/lots/summary", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var report dto.LotSummaryReport
	decode(t, resp, &report)
	lots := report.Rows
	require.Len(t, lots, 2)
	assert.Equal(t, dto.StockStatusSummary{Total: 2, InStock: 2}, report.Summary)
	assert.Equal(t, "L1", lots[0].LotID)
	assert.True(t, decimal.NewFromInt(6).Equal(lots[0].Closing))

	entries := call(t, app, http.MethodGet, "/api/entries?item=A100&limit=1&offset=1", "", nil)
	require.Equal(t, http.StatusOK, entries.StatusCode)
	var page dto.EntryPage
	decode(t, entries, &page)
	require.Len(t, page.Entries, 1)
	assert.Equal(t, "S-1", page.Entries[0].VoucherNumber)
	assert.Equal(t, 1, page.Page.Limit)
}

func TestRouter_ExportCSV(t *testing.T) {
	resp := call(t, buildApp(t), http.MethodGet, "/api/export/items.csv", "", nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "A100,Pantalón,6,10.00,4.00,14.00,In Stock")
}

func TestRouter_ImportRequiereAdmin(t *testing.T) {
	app := buildApp(t)

	anon := call(t, app, http.MethodPost, "/api/import", "", nil)
	defer anon.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, anon.StatusCode)

	viewer := call(t, app, http.MethodPost, "/api/import", tokenForRole(t, pkgjwt.RoleViewer), nil)
	defer viewer.Body.Close()
	assert.Equal(t, http.StatusForbidden, viewer.StatusCode)

	admin := call(t, app, http.MethodPost, "/api/import", tokenForRole(t, pkgjwt.RoleAdmin), nil)
	require.Equal(t, http.StatusOK, admin.StatusCode)
	var res dto.ImportResult
	decode(t, admin, &res)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 3, res.Entries)
}

func TestRouter_FeedConfigs(t *testing.T) {
	app := buildApp(t)
	auth := tokenForRole(t, pkgjwt.RoleAdmin)

	body, _ := json.Marshal(dto.FeedConfigRequest{URL: "http://erp.local/query", Username: "u", Password: "p", IsActive: true})
	created := call(t, app, http.MethodPost, "/api/feed-configs", auth, body)
	require.Equal(t, http.StatusCreated, created.StatusCode)
	var cfg dto.FeedConfigResponse
	decode(t, created, &cfg)
	assert.NotEmpty(t, cfg.ID)

	invalid, _ := json.Marshal(dto.FeedConfigRequest{URL: "sin-esquema"})
	bad := call(t, app, http.MethodPost, "/api/feed-configs", auth, invalid)
	defer bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)

	list := call(t, app, http.MethodGet, "/api/feed-configs", auth, nil)
	require.Equal(t, http.StatusOK, list.StatusCode)
	raw, _ := io.ReadAll(list.Body)
	list.Body.Close()
	assert.NotContains(t, string(raw), `"password"`)
	assert.Contains(t, string(raw), "http://erp.local/query")
}
