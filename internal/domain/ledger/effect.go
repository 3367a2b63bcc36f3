package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// Effect categoría con signo de un tipo de comprobante.
// Closing y Movement valen +1, -1 o 0 (excluido).
type Effect struct {
	Opening  bool
	Closing  int
	Movement int
}

// effects tabla fija tipo de comprobante -> efecto. Los tipos ausentes no suman en ningún agregado.
var effects = map[entity.VoucherKind]Effect{
	entity.KindOpening:     {Opening: true, Closing: +1, Movement: 0},
	entity.KindReceipt:     {Closing: +1, Movement: +1},
	entity.KindIssue:       {Closing: -1, Movement: -1},
	entity.KindTransferIn:  {Closing: +1, Movement: +1},
	entity.KindTransferOut: {Closing: -1, Movement: -1},
	entity.KindSale:        {Closing: -1, Movement: -1},
}

// EffectOf devuelve el efecto del tipo; (Effect{}, false) para tipos no mapeados.
func EffectOf(kind entity.VoucherKind) (Effect, bool) {
	e, ok := effects[kind]
	return e, ok
}

// signedClosing cantidad del movimiento ponderada por su signo de cierre.
func signedClosing(e entity.LedgerEntry) decimal.Decimal {
	eff, ok := EffectOf(e.Kind)
	if !ok {
		return decimal.Zero
	}
	return e.Quantity.Mul(decimal.NewFromInt(int64(eff.Closing)))
}

// signedMovement cantidad del movimiento ponderada por su signo de movimiento.
func signedMovement(e entity.LedgerEntry) decimal.Decimal {
	eff, ok := EffectOf(e.Kind)
	if !ok || eff.Movement == 0 {
		return decimal.Zero
	}
	return e.Quantity.Mul(decimal.NewFromInt(int64(eff.Movement)))
}
