package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// AggregateResult saldo inicial, cierre y movimiento neto. Derivado; nunca se persiste.
type AggregateResult struct {
	Opening  decimal.Decimal
	Closing  decimal.Decimal
	Movement decimal.Decimal
}

// Status clasificación del cierre.
func (r AggregateResult) Status() StockStatus {
	return Classify(r.Closing)
}

// StockStatus estado de existencia según el cierre.
type StockStatus string

const (
	StatusInStock  StockStatus = "in_stock"
	StatusZero     StockStatus = "zero_stock"
	StatusNegative StockStatus = "negative_stock"
)

// Label texto para reportes.
func (s StockStatus) Label() string {
	switch s {
	case StatusInStock:
		return "In Stock"
	case StatusZero:
		return "Zero Stock"
	default:
		return "Negative Stock"
	}
}

// Classify: >0 en stock, ==0 sin stock, <0 stock negativo.
func Classify(closing decimal.Decimal) StockStatus {
	switch closing.Sign() {
	case 1:
		return StatusInStock
	case 0:
		return StatusZero
	default:
		return StatusNegative
	}
}

// ItemAggregate variante por ítem. Suma cruda (sin signo) sobre los movimientos del ítem dentro de la ventana:
//
//	Opening  = movimientos tipo 1
//	Closing  = todos los movimientos
//	Movement = todos menos tipo 1
//
// Una venta registrada con cantidad positiva SUMA al cierre; así se comporta el origen.
func ItemAggregate(entries []entity.LedgerEntry, w DateWindow) AggregateResult {
	res := AggregateResult{Opening: decimal.Zero, Closing: decimal.Zero, Movement: decimal.Zero}
	if w.Inverted() {
		return res
	}
	for _, e := range entries {
		if !w.Contains(e.Date) {
			continue
		}
		res.Closing = res.Closing.Add(e.Quantity)
		if e.Kind == entity.KindOpening {
			res.Opening = res.Opening.Add(e.Quantity)
		} else {
			res.Movement = res.Movement.Add(e.Quantity)
		}
	}
	return res
}

// LotOpening suma con signo de todos los movimientos del lote con fecha estrictamente anterior a from,
// sin importar el tipo. Sin from se suman todos.
func LotOpening(entries []entity.LedgerEntry, from *time.Time) decimal.Decimal {
	total := decimal.Zero
	from = dayPtr(from)
	for _, e := range entries {
		if from != nil && !e.Date.Before(*from) {
			continue
		}
		total = total.Add(signedClosing(e))
	}
	return total
}

// LotClosing suma con signo de los movimientos con fecha <= to. Sin to se suman todos.
func LotClosing(entries []entity.LedgerEntry, to *time.Time) decimal.Decimal {
	total := decimal.Zero
	to = dayPtr(to)
	for _, e := range entries {
		if to != nil && e.Date.After(*to) {
			continue
		}
		total = total.Add(signedClosing(e))
	}
	return total
}

// LotMovement suma con signo dentro de [from, to] excluyendo saldos iniciales.
func LotMovement(entries []entity.LedgerEntry, w DateWindow) decimal.Decimal {
	total := decimal.Zero
	if w.Inverted() {
		return total
	}
	for _, e := range entries {
		if e.Kind == entity.KindOpening || !w.Contains(e.Date) {
			continue
		}
		total = total.Add(signedMovement(e))
	}
	return total
}

// LotAggregate variante por lote. Con ventana invertida (from > to) todo es cero.
func LotAggregate(entries []entity.LedgerEntry, w DateWindow) AggregateResult {
	if w.Inverted() {
		return AggregateResult{Opening: decimal.Zero, Closing: decimal.Zero, Movement: decimal.Zero}
	}
	return AggregateResult{
		Opening:  LotOpening(entries, w.From),
		Closing:  LotClosing(entries, w.To),
		Movement: LotMovement(entries, w),
	}
}
