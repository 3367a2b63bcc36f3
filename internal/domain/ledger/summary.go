package ledger

import (
	"sort"
	"strings"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// LotSummary fila del resumen por lote, antes de resolver el nombre del ítem.
type LotSummary struct {
	LotID      string
	ItemCode   string // ítem del primer movimiento del lote (fecha, luego Seq)
	Parameters string // parámetros de ese mismo movimiento
	Result     AggregateResult
}

// SummarizeLots agrupa en memoria los movimientos con BCN y aplica la agregación por lote a cada grupo.
// Recibe un único recorrido del ledger en lugar de consultar lote por lote. Resultado ordenado por BCN.
func SummarizeLots(entries []entity.LedgerEntry, w DateWindow) []LotSummary {
	groups := make(map[string][]entity.LedgerEntry)
	for _, e := range SortEntries(entries) {
		if strings.TrimSpace(e.LotID) == "" {
			continue
		}
		groups[e.LotID] = append(groups[e.LotID], e)
	}

	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]LotSummary, 0, len(ids))
	for _, id := range ids {
		lotEntries := groups[id]
		first := lotEntries[0]
		out = append(out, LotSummary{
			LotID:      id,
			ItemCode:   first.ItemCode,
			Parameters: first.ParameterString(),
			Result:     LotAggregate(lotEntries, w),
		})
	}
	return out
}
