// Package export serializa filas de reportes a CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// formatQty cantidad con dos decimales fijos.
func formatQty(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// WriteItemStock escribe el reporte de stock por ítem.
func WriteItemStock(w io.Writer, rows []dto.ItemStockRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Code", "Name", "Kind", "Opening", "Movement", "Closing", "Status"}); err != nil {
		return fmt.Errorf("csv header: %w", err)
	}
	for _, r := range rows {
		rec := []string{r.Code, r.Name, r.Kind, formatQty(r.Opening), formatQty(r.Movement), formatQty(r.Closing), r.StatusLabel}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("csv row %s: %w", r.Code, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteLotSummary escribe el resumen de lotes.
func WriteLotSummary(w io.Writer, rows []dto.LotSummaryRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"BCN", "Item Code", "Item Name", "Parameters", "Opening", "Movement", "Closing", "Status"}); err != nil {
		return fmt.Errorf("csv header: %w", err)
	}
	for _, r := range rows {
		rec := []string{r.LotID, r.ItemCode, r.ItemName, r.Parameters,
			formatQty(r.Opening), formatQty(r.Movement), formatQty(r.Closing), r.StatusLabel}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("csv row %s: %w", r.LotID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteEntries escribe movimientos; el tipo sale con su nombre y Quantity a dos decimales.
func WriteEntries(w io.Writer, rows []dto.EntryRow) error {
	cw := csv.NewWriter(w)
	header := []string{"Date", "VchType", "VchNo", "ItemCode", "Parameters", "BCN", "Value1"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("csv header: %w", err)
	}
	for _, r := range rows {
		label := r.KindLabel
		if label == "" {
			label = entity.VoucherKind(r.Kind).Label()
		}
		rec := []string{r.Date, label, r.VoucherNumber, r.ItemCode, r.ParameterString, r.LotID, formatQty(r.Quantity)}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("csv row %d: %w", r.Seq, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
