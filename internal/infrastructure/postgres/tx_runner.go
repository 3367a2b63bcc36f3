package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.LedgerReplacer = (*TxRunner)(nil)

// replaceLockKey clave del advisory lock que serializa reemplazos entre réplicas.
const replaceLockKey int64 = 0x4c454447 // "LEDG"

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ReplaceAll reemplaza ítems y movimientos en una sola transacción.
// Los lectores ven el ledger anterior hasta el commit.
func (r *TxRunner) ReplaceAll(ctx context.Context, items []entity.Item, entries []entity.LedgerEntry) error {
	return r.Run(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, replaceLockKey); err != nil {
			return fmt.Errorf("advisory lock: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM ledger_entries`); err != nil {
			return fmt.Errorf("delete ledger: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM items`); err != nil {
			return fmt.Errorf("delete items: %w", err)
		}

		itemRows := make([][]any, 0, len(items))
		for _, it := range items {
			itemRows = append(itemRows, []any{it.Code, it.Name, it.Kind})
		}
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"items"}, []string{"code", "name", "kind"},
			pgx.CopyFromRows(itemRows)); err != nil {
			return wrapCopyErr("items", err)
		}

		entryRows := make([][]any, 0, len(entries))
		for i, e := range entries {
			seq := e.Seq
			if seq == 0 {
				seq = int64(i + 1)
			}
			entryRows = append(entryRows, []any{
				seq, e.Date, int(e.Kind), e.VoucherNumber, e.ItemCode,
				e.Params[0], e.Params[1], e.Params[2], e.Params[3], e.Params[4],
				strings.TrimSpace(e.LotID), e.Quantity,
			})
		}
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"ledger_entries"},
			[]string{"seq", "entry_date", "kind", "voucher_number", "item_code", "p1", "p2", "p3", "p4", "p5", "lot_id", "quantity"},
			pgx.CopyFromRows(entryRows)); err != nil {
			return wrapCopyErr("ledger_entries", err)
		}
		return nil
	})
}

func wrapCopyErr(table string, err error) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("copy %s: %w", table, domain.ErrConflict)
	}
	return fmt.Errorf("copy %s: %w", table, err)
}
