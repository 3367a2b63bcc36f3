// Package sqlbuild traduce los filtros del ledger a SQL compartido por los stores relacionales.
package sqlbuild

import (
	"fmt"
	"strings"

	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// Dialect diferencias de sintaxis entre motores.
type Dialect struct {
	// Mark genera el marcador del argumento n (base 1).
	Mark func(n int) string
	// NoLimit valor de LIMIT cuando solo hay OFFSET; vacío si el motor acepta OFFSET solo.
	NoLimit string
}

var (
	Postgres = Dialect{Mark: func(n int) string { return fmt.Sprintf("$%d", n) }}
	SQLite   = Dialect{Mark: func(int) string { return "?" }, NoLimit: "-1"}
)

// LedgerColumns columnas en el orden que esperan los scanners.
const LedgerColumns = "seq, entry_date, kind, voucher_number, item_code, p1, p2, p3, p4, p5, lot_id, quantity"

// searchColumns columnas cubiertas por la búsqueda libre.
var searchColumns = []string{"voucher_number", "item_code", "lot_id", "p1", "p2", "p3", "p4", "p5"}

// LedgerQuery arma SELECT ... WHERE ... ORDER BY entry_date, seq [LIMIT/OFFSET] para el filtro.
func LedgerQuery(f repository.LedgerFilter, d Dialect) (string, []any) {
	var (
		conds []string
		args  []any
	)
	next := func(v any) string {
		args = append(args, v)
		return d.Mark(len(args))
	}

	if f.ItemCode != "" {
		conds = append(conds, "item_code = "+next(f.ItemCode))
	}
	if f.LotID != "" {
		conds = append(conds, "lot_id = "+next(f.LotID))
	}
	if f.OnlyWithLot {
		conds = append(conds, "TRIM(lot_id) <> ''")
	}
	if len(f.Kinds) > 0 {
		marks := make([]string, len(f.Kinds))
		for i, k := range f.Kinds {
			marks[i] = next(int(k))
		}
		conds = append(conds, "kind IN ("+strings.Join(marks, ", ")+")")
	}
	if f.From != nil {
		conds = append(conds, "entry_date >= "+next(*f.From))
	}
	if f.To != nil {
		conds = append(conds, "entry_date <= "+next(*f.To))
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		ors := make([]string, len(searchColumns))
		for i, col := range searchColumns {
			ors[i] = fmt.Sprintf("LOWER(%s) LIKE %s", col, next(like))
		}
		conds = append(conds, "("+strings.Join(ors, " OR ")+")")
	}

	q := "SELECT " + LedgerColumns + " FROM ledger_entries"
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY entry_date ASC, seq ASC"
	if f.Limit > 0 {
		q += " LIMIT " + next(f.Limit)
	}
	if f.Offset > 0 {
		if f.Limit <= 0 && d.NoLimit != "" {
			q += " LIMIT " + d.NoLimit
		}
		q += " OFFSET " + next(f.Offset)
	}
	return q, args
}
