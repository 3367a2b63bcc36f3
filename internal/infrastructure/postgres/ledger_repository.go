package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/sqlbuild"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

// LedgerRepo Ledger Store sobre PostgreSQL (usable con pool o tx).
type LedgerRepo struct {
	q Querier
}

// NewLedgerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLedgerRepository(q Querier) *LedgerRepo {
	return &LedgerRepo{q: q}
}

// Query lista movimientos filtrados en orden (entry_date, seq).
func (r *LedgerRepo) Query(ctx context.Context, filter repository.LedgerFilter) ([]entity.LedgerEntry, error) {
	query, args := sqlbuild.LedgerQuery(filter, sqlbuild.Postgres)
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	var list []entity.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

func scanEntry(rows pgx.Rows) (entity.LedgerEntry, error) {
	var (
		e    entity.LedgerEntry
		kind int
	)
	err := rows.Scan(&e.Seq, &e.Date, &kind, &e.VoucherNumber, &e.ItemCode,
		&e.Params[0], &e.Params[1], &e.Params[2], &e.Params[3], &e.Params[4],
		&e.LotID, &e.Quantity)
	if err != nil {
		return entity.LedgerEntry{}, fmt.Errorf("scan ledger entry: %w", err)
	}
	e.Kind = entity.VoucherKind(kind)
	e.Date = e.Date.UTC()
	return e, nil
}

// LotIDs BCN distintos no vacíos.
func (r *LedgerRepo) LotIDs(ctx context.Context) ([]string, error) {
	rows, err := r.q.Query(ctx, `SELECT DISTINCT lot_id FROM ledger_entries WHERE TRIM(lot_id) <> '' ORDER BY lot_id`)
	if err != nil {
		return nil, fmt.Errorf("list lot ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan lot ids: %w", err)
	}
	return ids, nil
}

// Count cantidad total de movimientos.
func (r *LedgerRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM ledger_entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count ledger: %w", err)
	}
	return n, nil
}
