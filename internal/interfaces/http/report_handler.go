package http

import (
	"bytes"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain"
	engine "github.com/jhoicas/stock-ledger/internal/domain/ledger"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/export"
)

// ReportHandler reportes de stock (lectura).
type ReportHandler struct {
	uc *ledger.ReportUseCase
}

// NewReportHandler construye el handler.
func NewReportHandler(uc *ledger.ReportUseCase) *ReportHandler {
	return &ReportHandler{uc: uc}
}

func parseWindow(c *fiber.Ctx) (engine.DateWindow, error) {
	var q dto.WindowQuery
	if err := c.QueryParser(&q); err != nil {
		return engine.DateWindow{}, domain.ErrInvalidInput
	}
	return ledger.ParseWindow(q)
}

// ItemReport godoc
// @Summary      Reporte de stock por ítem
// @Description  Apertura, movimiento y cierre (suma cruda) de cada ítem del tipo indicado dentro de [from, to].
// @Tags         items
// @Produce      json
// @Param        kind   query  string  false  "MasterType (default configurado)"
// @Param        from   query  string  false  "Desde (YYYY-MM-DD)"
// @Param        to     query  string  false  "Hasta (YYYY-MM-DD)"
// @Param        range  query  string  false  "Rango predefinido"  Enums(today, yesterday, this_week, last_week, this_month, last_month, this_year)
// @Success      200    {object}  dto.ItemStockReport
// @Failure      400    {object}  dto.ErrorResponse
// @Router       /api/items [get]
func (h *ReportHandler) ItemReport(c *fiber.Ctx) error {
	w, err := parseWindow(c)
	if err != nil {
		return writeError(c, err)
	}
	report, err := h.uc.ItemStatusReport(c.UserContext(), c.Query("kind"), w)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(report)
}

// ItemStock godoc
// @Summary      Stock de un ítem
// @Tags         items
// @Produce      json
// @Param        code  path   string  true   "Código del ítem"
// @Param        from  query  string  false  "Desde (YYYY-MM-DD)"
// @Param        to    query  string  false  "Hasta (YYYY-MM-DD)"
// @Success      200   {object}  dto.ItemStockRow
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/items/{code}/stock [get]
func (h *ReportHandler) ItemStock(c *fiber.Ctx) error {
	w, err := parseWindow(c)
	if err != nil {
		return writeError(c, err)
	}
	row, err := h.uc.ItemStock(c.UserContext(), c.Params("code"), w)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(row)
}

// ItemLots godoc
// @Summary      Existencia por lote (BCN) de un ítem
// @Tags         items
// @Produce      json
// @Param        code  path  string  true  "Código del ítem"
// @Success      200   {object}  dto.ItemLotStockResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/items/{code}/lots [get]
func (h *ReportHandler) ItemLots(c *fiber.Ctx) error {
	res, err := h.uc.ItemLotStock(c.UserContext(), c.Params("code"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(res)
}

// Search godoc
// @Summary      Autocompletado de ítems por nombre
// @Tags         items
// @Produce      json
// @Param        term  query  string  false  "Texto a buscar"
// @Success      200   {object}  dto.SearchResponse
// @Router       /api/items/search [get]
func (h *ReportHandler) Search(c *fiber.Ctx) error {
	res, err := h.uc.SearchItems(c.UserContext(), c.Query("term"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(res)
}

// WithStock godoc
// @Summary      Ítems con su existencia por lotes
// @Tags         items
// @Produce      json
// @Success      200  {array}  dto.ItemWithStockRow
// @Router       /api/items/with-stock [get]
func (h *ReportHandler) WithStock(c *fiber.Ctx) error {
	rows, err := h.uc.ItemsWithStock(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(rows)
}

// LowStock godoc
// @Summary      Ítems con existencia baja
// @Tags         items
// @Produce      json
// @Param        threshold  query  number  false  "Umbral (default 0)"
// @Success      200  {array}   dto.ItemWithStockRow
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/items/low-stock [get]
func (h *ReportHandler) LowStock(c *fiber.Ctx) error {
	q := dto.LowStockQuery{Threshold: c.Query("threshold")}
	if err := dto.Validate(q); err != nil {
		return writeError(c, err)
	}
	threshold := decimal.Zero
	if q.Threshold != "" {
		threshold = decimal.RequireFromString(q.Threshold)
	}
	rows, err := h.uc.LowStockItems(c.UserContext(), threshold)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(rows)
}

// LotSummary godoc
// @Summary      Resumen de lotes
// @Description  Apertura, movimiento y cierre con signo por lote. Un único recorrido del ledger.
// @Tags         lots
// @Produce      json
// @Param        from   query  string  false  "Desde (YYYY-MM-DD)"
// @Param        to     query  string  false  "Hasta (YYYY-MM-DD)"
// @Param        range  query  string  false  "Rango predefinido"  Enums(today, yesterday, this_week, last_week, this_month, last_month, this_year)
// @Success      200    {object}  dto.LotSummaryReport
// @Failure      400    {object}  dto.ErrorResponse
// @Router       /api/lots/summary [get]
func (h *ReportHandler) LotSummary(c *fiber.Ctx) error {
	w, err := parseWindow(c)
	if err != nil {
		return writeError(c, err)
	}
	report, err := h.uc.LotStatusReport(c.UserContext(), w)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(report)
}

// Entries godoc
// @Summary      Movimientos del ledger
// @Tags         entries
// @Produce      json
// @Param        item    query  string  false  "Código de ítem"
// @Param        lot     query  string  false  "BCN"
// @Param        kind    query  int     false  "Tipo de comprobante"
// @Param        from    query  string  false  "Desde (YYYY-MM-DD)"
// @Param        to      query  string  false  "Hasta (YYYY-MM-DD)"
// @Param        range   query  string  false  "Rango predefinido"
// @Param        q       query  string  false  "Búsqueda libre"
// @Param        limit   query  int     false  "Límite"  default(20)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200     {object}  dto.EntryPage
// @Failure      400     {object}  dto.ErrorResponse
// @Router       /api/entries [get]
func (h *ReportHandler) Entries(c *fiber.Ctx) error {
	var q dto.EntriesQuery
	if err := c.QueryParser(&q); err != nil {
		return writeError(c, domain.ErrInvalidInput)
	}
	q.DefaultPage()
	if err := dto.Validate(q); err != nil {
		return writeError(c, err)
	}
	filter, err := ledger.EntriesFilter(q)
	if err != nil {
		return writeError(c, err)
	}
	page, err := h.uc.ListEntries(c.UserContext(), filter)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(page)
}

// ExportItems godoc
// @Summary      Reporte de stock por ítem en CSV
// @Tags         export
// @Produce      text/csv
// @Param        kind  query  string  false  "MasterType"
// @Param        from  query  string  false  "Desde (YYYY-MM-DD)"
// @Param        to    query  string  false  "Hasta (YYYY-MM-DD)"
// @Param        range  query  string  false  "Rango predefinido"
// @Success      200
// @Router       /api/export/items.csv [get]
func (h *ReportHandler) ExportItems(c *fiber.Ctx) error {
	w, err := parseWindow(c)
	if err != nil {
		return writeError(c, err)
	}
	rows, err := h.uc.ItemStockReport(c.UserContext(), c.Query("kind"), w)
	if err != nil {
		return writeError(c, err)
	}
	var buf bytes.Buffer
	if err := export.WriteItemStock(&buf, rows); err != nil {
		return writeError(c, err)
	}
	return sendCSV(c, "items.csv", buf.Bytes())
}

// ExportLots godoc
// @Summary      Resumen de lotes en CSV
// @Tags         export
// @Produce      text/csv
// @Param        from  query  string  false  "Desde (YYYY-MM-DD)"
// @Param        to    query  string  false  "Hasta (YYYY-MM-DD)"
// @Param        range  query  string  false  "Rango predefinido"
// @Success      200
// @Router       /api/export/lots.csv [get]
func (h *ReportHandler) ExportLots(c *fiber.Ctx) error {
	w, err := parseWindow(c)
	if err != nil {
		return writeError(c, err)
	}
	rows, err := h.uc.LotSummary(c.UserContext(), w)
	if err != nil {
		return writeError(c, err)
	}
	var buf bytes.Buffer
	if err := export.WriteLotSummary(&buf, rows); err != nil {
		return writeError(c, err)
	}
	return sendCSV(c, "lots.csv", buf.Bytes())
}

func sendCSV(c *fiber.Ctx, filename string, body []byte) error {
	c.Attachment(filename)
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	return c.Send(body)
}
