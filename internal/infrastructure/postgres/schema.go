package postgres

import (
	"context"
	"fmt"
)

// schema tablas del ledger. Idempotente.
const schema = `
CREATE TABLE IF NOT EXISTS items (
	code TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	kind TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS ledger_entries (
	seq            BIGINT PRIMARY KEY,
	entry_date     DATE    NOT NULL,
	kind           INTEGER NOT NULL,
	voucher_number TEXT    NOT NULL DEFAULT '',
	item_code      TEXT    NOT NULL,
	p1             TEXT    NOT NULL DEFAULT '',
	p2             TEXT    NOT NULL DEFAULT '',
	p3             TEXT    NOT NULL DEFAULT '',
	p4             TEXT    NOT NULL DEFAULT '',
	p5             TEXT    NOT NULL DEFAULT '',
	lot_id         TEXT    NOT NULL DEFAULT '',
	quantity       NUMERIC NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS ledger_entries_item_idx ON ledger_entries (item_code, entry_date, seq);
CREATE INDEX IF NOT EXISTS ledger_entries_lot_idx  ON ledger_entries (lot_id, entry_date, seq);
CREATE INDEX IF NOT EXISTS ledger_entries_date_idx ON ledger_entries (entry_date, seq);

CREATE TABLE IF NOT EXISTS feed_configs (
	id         UUID PRIMARY KEY,
	url        TEXT        NOT NULL,
	username   TEXT        NOT NULL DEFAULT '',
	password   TEXT        NOT NULL DEFAULT '',
	is_active  BOOLEAN     NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS feed_configs_single_active ON feed_configs (is_active) WHERE is_active;
`

// EnsureSchema crea las tablas e índices si no existen.
func EnsureSchema(ctx context.Context, q Querier) error {
	if _, err := q.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
