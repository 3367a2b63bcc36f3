package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func dayp(s string) *time.Time {
	t := day(s)
	return &t
}

func qty(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type entryOpt func(*entity.LedgerEntry)

func params(p ...string) entryOpt {
	return func(e *entity.LedgerEntry) {
		copy(e.Params[:], p)
	}
}

var seq int64

func entry(date string, kind entity.VoucherKind, q string, lot string, opts ...entryOpt) entity.LedgerEntry {
	seq++
	e := entity.LedgerEntry{
		Seq:      seq,
		Date:     day(date),
		Kind:     kind,
		ItemCode: "ITEM001",
		LotID:    lot,
		Quantity: qty(q),
	}
	for _, o := range opts {
		o(&e)
	}
	return e
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, qty(want).Equal(got), append([]interface{}{"esperado %s, obtenido %s", want, got.String()}, msgAndArgs...)...)
}

// ──────────────────────────────────────────────────────────────────────────────
// Tabla de efectos
// ──────────────────────────────────────────────────────────────────────────────

func TestEffectOf_Tabla(t *testing.T) {
	cases := []struct {
		kind     entity.VoucherKind
		opening  bool
		closing  int
		movement int
	}{
		{entity.KindOpening, true, +1, 0},
		{entity.KindReceipt, false, +1, +1},
		{entity.KindIssue, false, -1, -1},
		{entity.KindTransferIn, false, +1, +1},
		{entity.KindTransferOut, false, -1, -1},
		{entity.KindSale, false, -1, -1},
	}
	for _, c := range cases {
		eff, ok := EffectOf(c.kind)
		require.True(t, ok, "tipo %d debe estar mapeado", c.kind)
		assert.Equal(t, c.opening, eff.Opening)
		assert.Equal(t, c.closing, eff.Closing)
		assert.Equal(t, c.movement, eff.Movement)
	}

	_, ok := EffectOf(entity.VoucherKind(7))
	assert.False(t, ok, "los tipos no mapeados no tienen efecto")
}

func TestLotAggregate_TipoNoMapeadoSumaCero(t *testing.T) {
	entries := []entity.LedgerEntry{
		entry("2024-01-01", entity.KindReceipt, "5", "L1"),
		entry("2024-01-02", entity.VoucherKind(7), "100", "L1"),
		entry("2024-01-03", entity.KindUnknown, "100", "L1"),
	}
	res := LotAggregate(entries, DateWindow{})
	assertDec(t, "5", res.Closing)
	assertDec(t, "5", res.Movement)
}

// ──────────────────────────────────────────────────────────────────────────────
// Escenarios
// ──────────────────────────────────────────────────────────────────────────────

// Escenario A: un único saldo inicial.
func TestEscenarioA_SaldoInicial(t *testing.T) {
	entries := []entity.LedgerEntry{entry("2024-01-01", entity.KindOpening, "10", "A")}

	item := ItemAggregate(entries, DateWindow{})
	assertDec(t, "10", item.Opening)
	assertDec(t, "10", item.Closing)
	assertDec(t, "0", item.Movement)

	lot := LotAggregate(entries, DateWindow{})
	assertDec(t, "10", lot.Closing)
	assertDec(t, "0", lot.Movement)

	alloc, err := AllocateLots(context.Background(), entries)
	require.NoError(t, err)
	require.Len(t, alloc.Lots, 1)
	assert.Equal(t, "A", alloc.Lots[0].LotID)
	assertDec(t, "10", alloc.Lots[0].Quantity)
}

// Escenario B: la variante por ítem suma crudo; la venta positiva se suma al cierre.
func TestEscenarioB_VentaSobreLote(t *testing.T) {
	entries := []entity.LedgerEntry{
		entry("2024-01-01", entity.KindOpening, "10", "A"),
		entry("2024-01-02", entity.KindSale, "4", "A"),
	}

	item := ItemAggregate(entries, DateWindow{})
	assertDec(t, "14", item.Closing, "la variante por ítem no aplica signo")
	assertDec(t, "4", item.Movement)

	lotClosing := LotClosing(entries, dayp("2024-01-02"))
	assertDec(t, "6", lotClosing, "la variante por lote aplica la tabla de efectos")

	alloc, err := AllocateLots(context.Background(), entries)
	require.NoError(t, err)
	require.Len(t, alloc.Lots, 1)
	assertDec(t, "6", alloc.Lots[0].Quantity)

	assert.False(t, item.Closing.Equal(lotClosing), "las dos variantes divergen con ventas en positivo")
}

// Escenario B con la venta registrada en negativo: el cierre por ítem da 6
// y el lote también queda en 6 porque la asignación usa el valor absoluto.
func TestEscenarioB_VentaRegistradaEnNegativo(t *testing.T) {
	entries := []entity.LedgerEntry{
		entry("2024-01-01", entity.KindOpening, "10", "A"),
		entry("2024-01-02", entity.KindSale, "-4", "A"),
	}

	item := ItemAggregate(entries, DateWindow{})
	assertDec(t, "6", item.Closing)

	alloc, err := AllocateLots(context.Background(), entries)
	require.NoError(t, err)
	assertDec(t, "6", alloc.Total)

	// Con signo por tabla, -(-4) suma: la variante por lote da 14.
	assertDec(t, "14", LotClosing(entries, nil))
}

// Escenario C: venta sin BCN conocido ni parámetros coincidentes.
func TestEscenarioC_VentaSinLoteNoAfectaBuckets(t *testing.T) {
	entries := []entity.LedgerEntry{
		entry("2024-01-01", entity.KindReceipt, "10", "A", params("RED", "XL", "")),
		entry("2024-01-02", entity.KindSale, "-3", "ZZZ", params("BLUE", "S", "")),
	}

	alloc, err := AllocateLots(context.Background(), entries)
	require.NoError(t, err)
	require.Len(t, alloc.Lots, 1)
	assertDec(t, "10", alloc.Lots[0].Quantity, "el lote A no se toca")
	require.Len(t, alloc.UnmatchedSales, 1)
	assert.Equal(t, "ZZZ", alloc.UnmatchedSales[0].LotID)

	item := ItemAggregate(entries, DateWindow{})
	assertDec(t, "7", item.Closing, "el agregado por ítem sí refleja la venta")
	assert.False(t, item.Closing.Equal(alloc.Total), "la divergencia debe existir")
}

// Escenario D: el saldo inicial por lote toma lo estrictamente anterior a from.
func TestEscenarioD_AperturaPorLote(t *testing.T) {
	entries := []entity.LedgerEntry{entry("2024-01-05", entity.KindReceipt, "5", "B")}

	assertDec(t, "5", LotOpening(entries, dayp("2024-01-10")))
	assertDec(t, "0", LotOpening(entries, dayp("2024-01-05")), "el mismo día no es anterior")
	assertDec(t, "5", LotOpening(entries, nil))
}

// ──────────────────────────────────────────────────────────────────────────────
// Propiedades
// ──────────────────────────────────────────────────────────────────────────────

func TestPureza_MismosArgumentosMismoResultado(t *testing.T) {
	entries := []entity.LedgerEntry{
		entry("2024-01-01", entity.KindOpening, "10.125", "A"),
		entry("2024-01-03", entity.KindReceipt, "2.5", "B"),
		entry("2024-01-04", entity.KindSale, "1.1", "A"),
		entry("2024-01-05", entity.KindTransferOut, "0.3", "B"),
	}
	w := NewWindow(dayp("2024-01-02"), dayp("2024-01-04"))

	assert.Equal(t, ItemAggregate(entries, w), ItemAggregate(entries, w))
	assert.Equal(t, LotAggregate(entries, w), LotAggregate(entries, w))

	a1, err := AllocateLots(context.Background(), entries)
	require.NoError(t, err)
	a2, err := AllocateLots(context.Background(), entries)
	require.NoError(t, err)
	assert.Equal(t, a1, a2)
}

func TestConservacion_VentasConLoteValido(t *testing.T) {
	entries := []entity.LedgerEntry{
		entry("2024-01-01", entity.KindOpening, "10", "A"),
		entry("2024-01-02", entity.KindReceipt, "8", "B"),
		entry("2024-01-03", entity.KindSale, "4", "A"),
		entry("2024-01-04", entity.KindSale, "3", "B"),
		entry("2024-01-05", entity.KindReceipt, "1", "C"),
	}
	alloc, err := AllocateLots(context.Background(), entries)
	require.NoError(t, err)
	require.Empty(t, alloc.UnmatchedSales)

	sum := decimal.Zero
	for _, lot := range alloc.Lots {
		var lotEntries []entity.LedgerEntry
		for _, e := range entries {
			if e.LotID == lot.LotID {
				lotEntries = append(lotEntries, e)
			}
		}
		sum = sum.Add(LotClosing(lotEntries, nil))
	}
	assertDec(t, alloc.Total.String(), sum)
	assertDec(t, "12", alloc.Total)
}

func TestVentanaInvertida_DevuelveCeros(t *testing.T) {
	entries := []entity.LedgerEntry{
		entry("2024-01-01", entity.KindOpening, "10", "A"),
		entry("2024-01-02", entity.KindReceipt, "5", "A"),
	}
	w := NewWindow(dayp("2024-02-01"), dayp("2024-01-01"))
	require.True(t, w.Inverted())

	for _, res := range []AggregateResult{ItemAggregate(entries, w), LotAggregate(entries, w)} {
		assertDec(t, "0", res.Opening)
		assertDec(t, "0", res.Closing)
		assertDec(t, "0", res.Movement)
	}
}

func TestItemAggregate_FiltraPorVentana(t *testing.T) {
	entries := []entity.LedgerEntry{
		entry("2024-01-01", entity.KindOpening, "10", "A"),
		entry("2024-01-10", entity.KindOpening, "1", "B"),
		entry("2024-01-15", entity.KindReceipt, "5", "A"),
		entry("2024-02-01", entity.KindSale, "-2", "A"),
	}
	res := ItemAggregate(entries, NewWindow(dayp("2024-01-10"), dayp("2024-01-31")))
	assertDec(t, "1", res.Opening)
	assertDec(t, "6", res.Closing)
	assertDec(t, "5", res.Movement)
}

func TestLotMovement_ExcluyeSaldoInicialYAplicaSigno(t *testing.T) {
	entries := []entity.LedgerEntry{
		entry("2024-01-01", entity.KindOpening, "10", "A"),
		entry("2024-01-02", entity.KindReceipt, "5", "A"),
		entry("2024-01-03", entity.KindIssue, "2", "A"),
		entry("2024-01-04", entity.KindTransferIn, "1", "A"),
		entry("2024-01-05", entity.KindTransferOut, "3", "A"),
		entry("2024-01-06", entity.KindSale, "4", "A"),
	}
	w := NewWindow(dayp("2024-01-02"), dayp("2024-01-05"))
	assertDec(t, "1", LotMovement(entries, w))

	res := LotAggregate(entries, w)
	assertDec(t, "10", res.Opening)
	assertDec(t, "11", res.Closing)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, StatusInStock, Classify(qty("0.01")))
	assert.Equal(t, StatusZero, Classify(decimal.Zero))
	assert.Equal(t, StatusNegative, Classify(qty("-1")))
	assert.Equal(t, "Negative Stock", StatusNegative.Label())
}

// ──────────────────────────────────────────────────────────────────────────────
// Asignación de lotes
// ──────────────────────────────────────────────────────────────────────────────

func TestAllocateLots_FallbackPorParametrosTomaElPrimero(t *testing.T) {
	entries := []entity.LedgerEntry{
		entry("2024-01-01", entity.KindReceipt, "5", "A", params("RED", "M", "COTTON")),
		entry("2024-01-02", entity.KindReceipt, "5", "B", params("RED", "M", "COTTON")),
		entry("2024-01-03", entity.KindSale, "2", "", params("RED", "M", "COTTON", "ignorado")),
	}
	alloc, err := AllocateLots(context.Background(), entries)
	require.NoError(t, err)
	require.Len(t, alloc.Lots, 2)
	assert.Equal(t, "A", alloc.Lots[0].LotID)
	assertDec(t, "3", alloc.Lots[0].Quantity)
	assertDec(t, "5", alloc.Lots[1].Quantity)
}

func TestAllocateLots_LoteAgotadoSeEliminaYSeRecreaAlFinal(t *testing.T) {
	entries := []entity.LedgerEntry{
		entry("2024-01-01", entity.KindReceipt, "2", "A", params("X")),
		entry("2024-01-02", entity.KindReceipt, "2", "B", params("X")),
		entry("2024-01-03", entity.KindSale, "5", "A"),
		entry("2024-01-04", entity.KindReceipt, "1", "A", params("Y")),
		entry("2024-01-05", entity.KindSale, "1", "C", params("X")),
	}
	alloc, err := AllocateLots(context.Background(), entries)
	require.NoError(t, err)

	// B recibe la venta por parámetros; A se recrea con la clave del nuevo primer movimiento.
	require.Len(t, alloc.Lots, 2)
	assert.Equal(t, "B", alloc.Lots[0].LotID)
	assertDec(t, "1", alloc.Lots[0].Quantity)
	assert.Equal(t, "A", alloc.Lots[1].LotID)
	assert.Equal(t, entity.ParameterKey{"Y", "", ""}, alloc.Lots[1].Key)
	assertDec(t, "2", alloc.Total)
}

func TestAllocateLots_OrdenaPorFechaYDesempataPorSecuencia(t *testing.T) {
	sale := entry("2024-01-02", entity.KindSale, "3", "A")
	receipt := entry("2024-01-01", entity.KindReceipt, "3", "A")
	sameDayReceipt := entry("2024-01-02", entity.KindReceipt, "1", "A")

	alloc, err := AllocateLots(context.Background(), []entity.LedgerEntry{sale, sameDayReceipt, receipt})
	require.NoError(t, err)
	require.Len(t, alloc.Lots, 1)
	assertDec(t, "1", alloc.Lots[0].Quantity, "la venta del mismo día se aplica antes por su secuencia")
}

func TestAllocateLots_OtrosTiposNoTocanLotes(t *testing.T) {
	entries := []entity.LedgerEntry{
		entry("2024-01-01", entity.KindReceipt, "5", "A"),
		entry("2024-01-02", entity.KindIssue, "5", "A"),
		entry("2024-01-03", entity.KindTransferOut, "5", "A"),
	}
	alloc, err := AllocateLots(context.Background(), entries)
	require.NoError(t, err)
	assertDec(t, "5", alloc.Total)
}

func TestAllocateLots_ContextoCancelado(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := AllocateLots(ctx, []entity.LedgerEntry{entry("2024-01-01", entity.KindReceipt, "1", "A")})
	assert.ErrorIs(t, err, context.Canceled)
}

// ──────────────────────────────────────────────────────────────────────────────
// Resumen por lote
// ──────────────────────────────────────────────────────────────────────────────

func TestSummarizeLots_AgrupaYOrdenaPorBCN(t *testing.T) {
	b := entry("2024-01-02", entity.KindReceipt, "4", "B", params("RED", "", "", "", "X"))
	b.ItemCode = "ITEM002"
	entries := []entity.LedgerEntry{
		b,
		entry("2024-01-01", entity.KindOpening, "10", "A"),
		entry("2024-01-03", entity.KindSale, "3", "A"),
		entry("2024-01-04", entity.KindReceipt, "9", ""),
	}

	rows := SummarizeLots(entries, NewWindow(dayp("2024-01-02"), nil))
	require.Len(t, rows, 2)

	assert.Equal(t, "A", rows[0].LotID)
	assert.Equal(t, "ITEM001", rows[0].ItemCode)
	assert.Equal(t, entity.NoParameters, rows[0].Parameters)
	assertDec(t, "10", rows[0].Result.Opening)
	assertDec(t, "7", rows[0].Result.Closing)
	assertDec(t, "-3", rows[0].Result.Movement)

	assert.Equal(t, "B", rows[1].LotID)
	assert.Equal(t, "ITEM002", rows[1].ItemCode)
	assert.Equal(t, "RED | X", rows[1].Parameters)
}

func TestSummarizeLots_RepresentanteEsElMasAntiguoPorFecha(t *testing.T) {
	late := entry("2024-01-05", entity.KindReceipt, "2", "A", params("LATE"))
	late.ItemCode = "ITEM009"
	early := entry("2024-01-01", entity.KindOpening, "5", "A", params("EARLY"))

	// Caso: el movimiento insertado primero tiene fecha posterior; representa el de fecha menor.
	rows := SummarizeLots([]entity.LedgerEntry{late, early}, NewWindow(nil, nil))
	require.Len(t, rows, 1)
	assert.Equal(t, "ITEM001", rows[0].ItemCode)
	assert.Equal(t, "EARLY", rows[0].Parameters)
	assertDec(t, "7", rows[0].Result.Closing)
}
