package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ctxCheckEvery cada cuántos movimientos se revisa el contexto durante el replay.
const ctxCheckEvery = 256

// LotBalance lote (BCN) con existencia. Key queda fijada por el primer movimiento que lo creó.
type LotBalance struct {
	LotID    string
	Key      entity.ParameterKey
	Quantity decimal.Decimal
}

// Allocation resultado del replay de un ítem.
type Allocation struct {
	Lots  []LotBalance    // solo lotes con cantidad > 0, en orden de creación
	Total decimal.Decimal // suma de Lots
	// UnmatchedSales ventas que no encontraron lote ni por BCN ni por parámetros; no se aplicaron.
	UnmatchedSales []entity.LedgerEntry
}

// lotBook buckets por BCN que preservan el orden de creación para el fallback por parámetros.
type lotBook struct {
	order   []string
	buckets map[string]*LotBalance
}

func newLotBook() *lotBook {
	return &lotBook{buckets: make(map[string]*LotBalance)}
}

func (b *lotBook) add(e entity.LedgerEntry) {
	lot, ok := b.buckets[e.LotID]
	if !ok {
		lot = &LotBalance{LotID: e.LotID, Key: e.Key(), Quantity: decimal.Zero}
		b.buckets[e.LotID] = lot
		b.order = append(b.order, e.LotID)
	}
	lot.Quantity = lot.Quantity.Add(e.Quantity)
}

// deplete descuenta |qty| del lote; si queda en <= 0 el lote desaparece.
func (b *lotBook) deplete(lotID string, qty decimal.Decimal) {
	lot := b.buckets[lotID]
	lot.Quantity = lot.Quantity.Sub(qty.Abs())
	if lot.Quantity.LessThanOrEqual(decimal.Zero) {
		delete(b.buckets, lotID)
		for i, id := range b.order {
			if id == lotID {
				b.order = append(b.order[:i], b.order[i+1:]...)
				break
			}
		}
	}
}

// match primero por BCN exacto; si no existe, el primer lote (en orden de creación) con la misma clave de parámetros.
func (b *lotBook) match(e entity.LedgerEntry) (string, bool) {
	if _, ok := b.buckets[e.LotID]; ok {
		return e.LotID, true
	}
	key := e.Key()
	for _, id := range b.order {
		if b.buckets[id].Key == key {
			return id, true
		}
	}
	return "", false
}

// AllocateLots reproduce los movimientos de un ítem en orden cronológico y devuelve la existencia por lote.
//
// Saldo inicial (1) y compra (2) crean el lote si no existe y suman la cantidad tal cual viene.
// Venta (9) descuenta el valor absoluto del lote con el mismo BCN o, en su defecto, del primer lote
// con los mismos (P1,P2,P3). Si no hay coincidencia la venta no afecta ningún lote.
// Los demás tipos no tocan los lotes.
//
// Solo falla si ctx se cancela o vence durante el recorrido.
func AllocateLots(ctx context.Context, entries []entity.LedgerEntry) (Allocation, error) {
	book := newLotBook()
	var unmatched []entity.LedgerEntry

	for i, e := range SortEntries(entries) {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return Allocation{}, err
			}
		}
		switch e.Kind {
		case entity.KindOpening, entity.KindReceipt:
			book.add(e)
		case entity.KindSale:
			id, ok := book.match(e)
			if !ok {
				unmatched = append(unmatched, e)
				continue
			}
			book.deplete(id, e.Quantity)
		}
	}

	res := Allocation{Total: decimal.Zero, UnmatchedSales: unmatched}
	for _, id := range book.order {
		lot := book.buckets[id]
		if !lot.Quantity.GreaterThan(decimal.Zero) {
			continue
		}
		res.Lots = append(res.Lots, *lot)
		res.Total = res.Total.Add(lot.Quantity)
	}
	return res, nil
}
