package entity

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// VoucherKind código de tipo de comprobante del ledger.
type VoucherKind int

// Tipos de comprobante con efecto sobre el stock. Cualquier otro código se conserva pero no suma.
const (
	KindUnknown     VoucherKind = 0
	KindOpening     VoucherKind = 1 // saldo inicial
	KindReceipt     VoucherKind = 2 // compra / entrada
	KindIssue       VoucherKind = 3 // salida
	KindTransferIn  VoucherKind = 4 // traslado entrada
	KindTransferOut VoucherKind = 5 // traslado salida
	KindAdjustment  VoucherKind = 6 // ajuste; sin efecto en los agregados
	KindSale        VoucherKind = 9 // venta
)

var kindLabels = map[VoucherKind]string{
	KindOpening:     "Opening",
	KindReceipt:     "Receipt",
	KindIssue:       "Issue",
	KindTransferIn:  "Transfer In",
	KindTransferOut: "Transfer Out",
	KindAdjustment:  "Adjustment",
	KindSale:        "Sale",
}

// Label nombre del tipo para reportes; los códigos sin nombre salen como "Type N".
func (k VoucherKind) Label() string {
	if l, ok := kindLabels[k]; ok {
		return l
	}
	return "Type " + strconv.Itoa(int(k))
}

// ParseVoucherKind convierte el código textual del origen; cualquier valor no numérico es KindUnknown.
func ParseVoucherKind(s string) VoucherKind {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return KindUnknown
	}
	return VoucherKind(n)
}

// ParamCount cantidad de parámetros libres (C1..C5) por movimiento.
const ParamCount = 5

// NoParameters valor centinela cuando todos los parámetros están vacíos.
const NoParameters = "No Parameters"

// LedgerEntry movimiento inmutable del ledger de stock.
// Seq es el orden de inserción y desempata movimientos del mismo día.
type LedgerEntry struct {
	Seq           int64
	Date          time.Time // solo fecha (UTC); cero si el origen no trae una fecha válida
	Kind          VoucherKind
	VoucherNumber string
	ItemCode      string
	Params        [ParamCount]string
	LotID         string // BCN
	Quantity      decimal.Decimal
}

// ParameterKey tupla (P1,P2,P3) usada como criterio alternativo de asignación de lotes.
type ParameterKey [3]string

// Key devuelve la clave de parámetros del movimiento.
func (e LedgerEntry) Key() ParameterKey {
	return ParameterKey{e.Params[0], e.Params[1], e.Params[2]}
}

// HasParameters indica si algún parámetro C1..C5 tiene valor.
func (e LedgerEntry) HasParameters() bool {
	for _, p := range e.Params {
		if strings.TrimSpace(p) != "" {
			return true
		}
	}
	return false
}

// ParameterString une los parámetros no vacíos con " | " o devuelve NoParameters.
func (e LedgerEntry) ParameterString() string {
	parts := make([]string, 0, ParamCount)
	for _, p := range e.Params {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return NoParameters
	}
	return strings.Join(parts, " | ")
}
