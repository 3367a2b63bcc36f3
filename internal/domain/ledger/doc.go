// Package ledger contiene el motor de cálculo de stock sobre el ledger de movimientos.
//
// Todo el paquete son funciones puras: reciben la secuencia de movimientos ya consultada
// y la ventana de fechas como parámetro, y no guardan estado entre llamadas. Dos llamadas
// con los mismos argumentos devuelven exactamente el mismo resultado.
//
// Hay dos variantes de agregación que NO son equivalentes:
//
//   - Por ítem (ItemAggregate): suma cruda de cantidades, sin signo por tipo de comprobante.
//   - Por lote (LotAggregate): suma con signo según la tabla de efectos (EffectOf).
//
// AllocateLots reproduce los movimientos de un ítem para saber qué lotes (BCN) siguen en
// existencia; su total no tiene por qué coincidir con el cierre por ítem cuando hay ventas
// que no encuentran lote.
package ledger
