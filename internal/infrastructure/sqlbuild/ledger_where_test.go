package sqlbuild

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

func TestLedgerQuery_SinFiltros(t *testing.T) {
	q, args := LedgerQuery(repository.LedgerFilter{}, Postgres)
	assert.Equal(t, "SELECT "+LedgerColumns+" FROM ledger_entries ORDER BY entry_date ASC, seq ASC", q)
	assert.Empty(t, args)
}

func TestLedgerQuery_PostgresPosicional(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	q, args := LedgerQuery(repository.LedgerFilter{
		ItemCode: "A100",
		Kinds:    []entity.VoucherKind{entity.KindOpening, entity.KindSale},
		From:     &from,
		Limit:    10,
	}, Postgres)

	assert.Contains(t, q, "item_code = $1")
	assert.Contains(t, q, "kind IN ($2, $3)")
	assert.Contains(t, q, "entry_date >= $4")
	assert.Contains(t, q, "LIMIT $5")
	assert.Equal(t, []any{"A100", 1, 9, from, 10}, args)
}

func TestLedgerQuery_SQLiteOffsetSinLimit(t *testing.T) {
	q, args := LedgerQuery(repository.LedgerFilter{Search: "Red", Offset: 5, OnlyWithLot: true}, SQLite)

	assert.Contains(t, q, "TRIM(lot_id) <> ''")
	assert.Contains(t, q, "LOWER(p1) LIKE ?")
	assert.Contains(t, q, "LIMIT -1 OFFSET ?")
	assert.Len(t, args, len(searchColumns)+1)
	assert.Equal(t, "%red%", args[0])
}

func TestLedgerQuery_PostgresOffsetSinLimit(t *testing.T) {
	q, _ := LedgerQuery(repository.LedgerFilter{Offset: 5}, Postgres)
	assert.NotContains(t, q, "LIMIT")
	assert.Contains(t, q, "OFFSET $1")
}
