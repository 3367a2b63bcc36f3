package repository

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// LedgerFilter filtros opcionales de consulta. Campos vacíos/nil no filtran.
type LedgerFilter struct {
	ItemCode    string
	LotID       string
	Kinds       []entity.VoucherKind
	From        *time.Time // inclusive
	To          *time.Time // inclusive
	OnlyWithLot bool       // solo movimientos con BCN no vacío
	Search      string     // texto libre sobre comprobante, ítem, BCN y C1..C5
	Limit       int        // 0 = sin límite (recorrido completo)
	Offset      int
}

// LedgerRepository vista de solo lectura sobre el ledger (puerto del Ledger Store).
// Query devuelve los movimientos ordenados por fecha ascendente y, a igual fecha, por orden de inserción.
type LedgerRepository interface {
	Query(ctx context.Context, filter LedgerFilter) ([]entity.LedgerEntry, error)
	// LotIDs devuelve los BCN distintos no vacíos, en orden ascendente.
	LotIDs(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int, error)
}

// LedgerReplacer reemplaza ítems y movimientos completos de forma atómica (sin upsert incremental).
type LedgerReplacer interface {
	ReplaceAll(ctx context.Context, items []entity.Item, entries []entity.LedgerEntry) error
}

// Match indica si el movimiento cumple el filtro (sin considerar Limit/Offset).
// Lo usan los stores en memoria; los stores SQL traducen el filtro a WHERE.
func (f LedgerFilter) Match(e entity.LedgerEntry) bool {
	if f.ItemCode != "" && e.ItemCode != f.ItemCode {
		return false
	}
	if f.LotID != "" && e.LotID != f.LotID {
		return false
	}
	if f.OnlyWithLot && strings.TrimSpace(e.LotID) == "" {
		return false
	}
	if len(f.Kinds) > 0 && !slices.Contains(f.Kinds, e.Kind) {
		return false
	}
	if f.From != nil && e.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && e.Date.After(*f.To) {
		return false
	}
	if f.Search != "" && !matchSearch(e, f.Search) {
		return false
	}
	return true
}

func matchSearch(e entity.LedgerEntry, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	fields := append([]string{e.VoucherNumber, e.ItemCode, e.LotID}, e.Params[:]...)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}
