// Package sqlite implementa el Ledger Store sobre SQLite (sqlx + go-sqlite3) para despliegues de un solo nodo.
package sqlite

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS items (
	code TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	kind TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS ledger_entries (
	seq            INTEGER PRIMARY KEY,
	entry_date     TEXT    NOT NULL,
	kind           INTEGER NOT NULL,
	voucher_number TEXT    NOT NULL DEFAULT '',
	item_code      TEXT    NOT NULL,
	p1             TEXT    NOT NULL DEFAULT '',
	p2             TEXT    NOT NULL DEFAULT '',
	p3             TEXT    NOT NULL DEFAULT '',
	p4             TEXT    NOT NULL DEFAULT '',
	p5             TEXT    NOT NULL DEFAULT '',
	lot_id         TEXT    NOT NULL DEFAULT '',
	quantity       TEXT    NOT NULL DEFAULT '0'
);

CREATE INDEX IF NOT EXISTS ledger_entries_item_idx ON ledger_entries (item_code, entry_date, seq);
CREATE INDEX IF NOT EXISTS ledger_entries_lot_idx  ON ledger_entries (lot_id, entry_date, seq);
CREATE INDEX IF NOT EXISTS ledger_entries_date_idx ON ledger_entries (entry_date, seq);

CREATE TABLE IF NOT EXISTS feed_configs (
	id         TEXT PRIMARY KEY,
	url        TEXT    NOT NULL,
	username   TEXT    NOT NULL DEFAULT '',
	password   TEXT    NOT NULL DEFAULT '',
	is_active  INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`

// Open abre la base en path. ":memory:" usa una única conexión para que todas vean la misma base.
func Open(ctx context.Context, path string) (*sqlx.DB, error) {
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000"
	}
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}
	return db, nil
}

// EnsureSchema crea tablas e índices si no existen.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
