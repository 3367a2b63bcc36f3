package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	engine "github.com/jhoicas/stock-ledger/internal/domain/ledger"
)

// unknownItemName nombre mostrado cuando el lote referencia un ítem que no está en el maestro.
const unknownItemName = "N/A"

func toItemStockRow(it entity.Item, res engine.AggregateResult) dto.ItemStockRow {
	status := res.Status()
	return dto.ItemStockRow{
		Code:        it.Code,
		Name:        it.Name,
		Kind:        it.Kind,
		Opening:     res.Opening,
		Closing:     res.Closing,
		Movement:    res.Movement,
		Status:      string(status),
		StatusLabel: status.Label(),
	}
}

func toLotRows(lots []engine.LotBalance) []dto.LotRow {
	rows := make([]dto.LotRow, 0, len(lots))
	for _, l := range lots {
		rows = append(rows, dto.LotRow{LotID: l.LotID, P1: l.Key[0], P2: l.Key[1], P3: l.Key[2], Quantity: l.Quantity})
	}
	return rows
}

func toLotSummaryRow(s engine.LotSummary, itemName string) dto.LotSummaryRow {
	status := s.Result.Status()
	return dto.LotSummaryRow{
		LotID:       s.LotID,
		ItemCode:    s.ItemCode,
		ItemName:    itemName,
		Parameters:  s.Parameters,
		Opening:     s.Result.Opening,
		Closing:     s.Result.Closing,
		Movement:    s.Result.Movement,
		Status:      string(status),
		StatusLabel: status.Label(),
	}
}

func toEntryRow(e entity.LedgerEntry) dto.EntryRow {
	date := ""
	if !e.Date.IsZero() {
		date = e.Date.Format(DateLayout)
	}
	return dto.EntryRow{
		Seq:             e.Seq,
		Date:            date,
		Kind:            int(e.Kind),
		KindLabel:       e.Kind.Label(),
		VoucherNumber:   e.VoucherNumber,
		ItemCode:        e.ItemCode,
		P1:              e.Params[0],
		P2:              e.Params[1],
		P3:              e.Params[2],
		P4:              e.Params[3],
		P5:              e.Params[4],
		LotID:           e.LotID,
		Quantity:        e.Quantity,
		ParameterString: e.ParameterString(),
	}
}

func toFeedConfigResponse(c entity.FeedConfig) dto.FeedConfigResponse {
	return dto.FeedConfigResponse{
		ID:        c.ID,
		URL:       c.URL,
		Username:  c.Username,
		IsActive:  c.IsActive,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// statusSummary cuenta los cierres por estado con la misma clasificación que las filas.
func statusSummary(closings []decimal.Decimal) dto.StockStatusSummary {
	sum := dto.StockStatusSummary{Total: len(closings)}
	for _, c := range closings {
		switch engine.Classify(c) {
		case engine.StatusInStock:
			sum.InStock++
		case engine.StatusZero:
			sum.Zero++
		default:
			sum.Negative++
		}
	}
	return sum
}
