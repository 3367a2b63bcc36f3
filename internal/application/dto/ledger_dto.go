package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemStockRow fila del reporte de stock por ítem (variante sin signo).
type ItemStockRow struct {
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Kind        string          `json:"kind"`
	Opening     decimal.Decimal `json:"opening"`
	Closing     decimal.Decimal `json:"closing"`
	Movement    decimal.Decimal `json:"movement"`
	Status      string          `json:"status"`       // in_stock | zero_stock | negative_stock
	StatusLabel string          `json:"status_label"` // In Stock | Zero Stock | Negative Stock
}

// LotRow saldo vivo de un lote (BCN) tras la reproducción de asignaciones.
type LotRow struct {
	LotID    string          `json:"lot_id"`
	P1       string          `json:"p1"`
	P2       string          `json:"p2"`
	P3       string          `json:"p3"`
	Quantity decimal.Decimal `json:"quantity"`
}

// StockStatusSummary totales por estado de existencia que encabezan los reportes.
type StockStatusSummary struct {
	Total    int `json:"total"`
	InStock  int `json:"in_stock"`
	Zero     int `json:"zero_stock"`
	Negative int `json:"negative_stock"`
}

// ItemStockReport respuesta de GET /api/items.
type ItemStockReport struct {
	Summary StockStatusSummary `json:"summary"`
	Rows    []ItemStockRow     `json:"rows"`
}

// ItemLotHeader cabecera del detalle de lotes de un ítem.
type ItemLotHeader struct {
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Kind          string          `json:"kind"`
	TotalLotStock decimal.Decimal `json:"total_lot_stock"`
}

// ItemLotStockResponse respuesta de GET /api/items/:code/lots.
type ItemLotStockResponse struct {
	Item           ItemLotHeader `json:"item"`
	Lots           []LotRow      `json:"lots"`
	UnmatchedSales int           `json:"unmatched_sales"` // ventas sin lote ni parámetros coincidentes (descartadas)
}

// ItemWithStockRow ítem con su stock por lotes.
type ItemWithStockRow struct {
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Kind          string          `json:"kind"`
	ClosingStock  decimal.Decimal `json:"closing_stock"`
	HasParameters bool            `json:"has_parameters"`
}

// LotSummaryRow fila del resumen de lotes (variante con signo).
type LotSummaryRow struct {
	LotID       string          `json:"lot_id"`
	ItemCode    string          `json:"item_code"`
	ItemName    string          `json:"item_name"`
	Parameters  string          `json:"parameters"`
	Opening     decimal.Decimal `json:"opening"`
	Closing     decimal.Decimal `json:"closing"`
	Movement    decimal.Decimal `json:"movement"`
	Status      string          `json:"status"`
	StatusLabel string          `json:"status_label"`
}

// LotSummaryReport respuesta de GET /api/lots/summary.
type LotSummaryReport struct {
	Summary StockStatusSummary `json:"summary"`
	Rows    []LotSummaryRow    `json:"rows"`
}

// EntryRow movimiento del ledger para consulta.
type EntryRow struct {
	Seq             int64           `json:"seq"`
	Date            string          `json:"date"` // YYYY-MM-DD; vacío si el origen no trajo fecha
	Kind            int             `json:"kind"`
	KindLabel       string          `json:"kind_label"` // Opening, Receipt, ... o "Type N"
	VoucherNumber   string          `json:"voucher_number"`
	ItemCode        string          `json:"item_code"`
	P1              string          `json:"p1"`
	P2              string          `json:"p2"`
	P3              string          `json:"p3"`
	P4              string          `json:"p4"`
	P5              string          `json:"p5"`
	LotID           string          `json:"lot_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	ParameterString string          `json:"parameter_string"`
}

// EntryPage página de movimientos.
type EntryPage struct {
	Entries []EntryRow   `json:"entries"`
	Page    PageResponse `json:"page"`
}

// SearchResult resultado del autocompletado (id = código del ítem).
type SearchResult struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// SearchResponse respuesta de GET /api/items/search.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

// LedgerStats tamaño del ledger vigente (GET /health).
type LedgerStats struct {
	Entries int `json:"entries"`
	Lots    int `json:"lots"`
}

// ImportResult resumen de una corrida de importación/reemplazo.
type ImportResult struct {
	RunID        string    `json:"run_id"`
	Items        int       `json:"items"`
	Entries      int       `json:"entries"`
	Placeholders int       `json:"placeholders"` // ítems creados para códigos sin maestro
	Skipped      int       `json:"skipped"`      // filas sin código de ítem
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
}

// FeedConfigRequest body para POST /api/feed-configs.
type FeedConfigRequest struct {
	ID       string `json:"id,omitempty" validate:"omitempty,uuid"`
	URL      string `json:"url" validate:"required,url"`
	Username string `json:"username"`
	Password string `json:"password"`
	IsActive bool   `json:"is_active"`
}

// FeedConfigResponse configuración sin la contraseña.
type FeedConfigResponse struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Username  string    `json:"username"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Rangos de fecha predefinidos, excluyentes con from/to.
const (
	RangeToday     = "today"
	RangeYesterday = "yesterday"
	RangeThisWeek  = "this_week"
	RangeLastWeek  = "last_week"
	RangeThisMonth = "this_month"
	RangeLastMonth = "last_month"
	RangeThisYear  = "this_year"
)

// WindowQuery ventana de fechas opcional: from/to (YYYY-MM-DD) o un rango predefinido.
type WindowQuery struct {
	From  string `query:"from" validate:"omitempty,datetime=2006-01-02"`
	To    string `query:"to" validate:"omitempty,datetime=2006-01-02"`
	Range string `query:"range" validate:"omitempty,oneof=today yesterday this_week last_week this_month last_month this_year"`
}

// ItemReportQuery query de GET /api/items.
type ItemReportQuery struct {
	WindowQuery
	Kind string `query:"kind"`
}

// LowStockQuery query de GET /api/items/low-stock.
type LowStockQuery struct {
	Threshold string `query:"threshold" validate:"omitempty,numeric"`
}

// EntriesQuery query de GET /api/entries.
type EntriesQuery struct {
	WindowQuery
	PageRequest
	Item   string `query:"item"`
	Lot    string `query:"lot"`
	Kind   int    `query:"kind" validate:"min=0"`
	Search string `query:"q"`
}
