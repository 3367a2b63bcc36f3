package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/sqlbuild"
)

var (
	_ repository.LedgerRepository     = (*Store)(nil)
	_ repository.LedgerReplacer       = (*Store)(nil)
	_ repository.ItemRepository       = (*Store)(nil)
	_ repository.FeedConfigRepository = (*Store)(nil)
)

const dateLayout = "2006-01-02"

// Store Ledger Store sobre una base SQLite.
type Store struct {
	db *sqlx.DB
}

// NewStore envuelve una conexión ya abierta (ver Open y EnsureSchema).
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

type ledgerRow struct {
	Seq           int64           `db:"seq"`
	EntryDate     string          `db:"entry_date"`
	Kind          int             `db:"kind"`
	VoucherNumber string          `db:"voucher_number"`
	ItemCode      string          `db:"item_code"`
	P1            string          `db:"p1"`
	P2            string          `db:"p2"`
	P3            string          `db:"p3"`
	P4            string          `db:"p4"`
	P5            string          `db:"p5"`
	LotID         string          `db:"lot_id"`
	Quantity      decimal.Decimal `db:"quantity"`
}

func toRow(seq int64, e entity.LedgerEntry) ledgerRow {
	return ledgerRow{
		Seq:           seq,
		EntryDate:     e.Date.UTC().Format(dateLayout),
		Kind:          int(e.Kind),
		VoucherNumber: e.VoucherNumber,
		ItemCode:      e.ItemCode,
		P1:            e.Params[0],
		P2:            e.Params[1],
		P3:            e.Params[2],
		P4:            e.Params[3],
		P5:            e.Params[4],
		LotID:         strings.TrimSpace(e.LotID),
		Quantity:      e.Quantity,
	}
}

func (r ledgerRow) entry() (entity.LedgerEntry, error) {
	date, err := time.Parse(dateLayout, r.EntryDate)
	if err != nil {
		return entity.LedgerEntry{}, fmt.Errorf("fecha inválida en seq %d: %w", r.Seq, err)
	}
	return entity.LedgerEntry{
		Seq:           r.Seq,
		Date:          date,
		Kind:          entity.VoucherKind(r.Kind),
		VoucherNumber: r.VoucherNumber,
		ItemCode:      r.ItemCode,
		Params:        [entity.ParamCount]string{r.P1, r.P2, r.P3, r.P4, r.P5},
		LotID:         r.LotID,
		Quantity:      r.Quantity,
	}, nil
}

// Query movimientos filtrados en orden (entry_date, seq).
func (s *Store) Query(ctx context.Context, filter repository.LedgerFilter) ([]entity.LedgerEntry, error) {
	query, args := sqlbuild.LedgerQuery(filter, sqlbuild.SQLite)
	for i, a := range args {
		if t, ok := a.(time.Time); ok {
			args[i] = t.UTC().Format(dateLayout)
		}
	}
	var rows []ledgerRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	out := make([]entity.LedgerEntry, 0, len(rows))
	for _, r := range rows {
		e, err := r.entry()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// LotIDs BCN distintos no vacíos.
func (s *Store) LotIDs(ctx context.Context) ([]string, error) {
	ids := []string{}
	if err := s.db.SelectContext(ctx, &ids,
		`SELECT DISTINCT lot_id FROM ledger_entries WHERE TRIM(lot_id) <> '' ORDER BY lot_id`); err != nil {
		return nil, fmt.Errorf("list lot ids: %w", err)
	}
	return ids, nil
}

// Count cantidad total de movimientos.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM ledger_entries`); err != nil {
		return 0, fmt.Errorf("count ledger: %w", err)
	}
	return n, nil
}

// ReplaceAll borra e inserta ítems y movimientos en una sola transacción.
func (s *Store) ReplaceAll(ctx context.Context, items []entity.Item, entries []entity.LedgerEntry) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM ledger_entries`); err != nil {
		return fmt.Errorf("delete ledger: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM items`); err != nil {
		return fmt.Errorf("delete items: %w", err)
	}

	itemStmt, err := tx.PrepareNamedContext(ctx,
		`INSERT OR REPLACE INTO items (code, name, kind) VALUES (:code, :name, :kind)`)
	if err != nil {
		return fmt.Errorf("prepare items: %w", err)
	}
	defer itemStmt.Close()
	for _, it := range items {
		if _, err := itemStmt.ExecContext(ctx, itemRow{Code: it.Code, Name: it.Name, Kind: it.Kind}); err != nil {
			return fmt.Errorf("insert item %s: %w", it.Code, err)
		}
	}

	entryStmt, err := tx.PrepareNamedContext(ctx, `
		INSERT INTO ledger_entries (`+sqlbuild.LedgerColumns+`)
		VALUES (:seq, :entry_date, :kind, :voucher_number, :item_code, :p1, :p2, :p3, :p4, :p5, :lot_id, :quantity)`)
	if err != nil {
		return fmt.Errorf("prepare ledger: %w", err)
	}
	defer entryStmt.Close()
	for i, e := range entries {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		seq := e.Seq
		if seq == 0 {
			seq = int64(i + 1)
		}
		if _, err := entryStmt.ExecContext(ctx, toRow(seq, e)); err != nil {
			return fmt.Errorf("insert ledger seq %d: %w", seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type itemRow struct {
	Code string `db:"code"`
	Name string `db:"name"`
	Kind string `db:"kind"`
}

// GetByCode (nil, nil) si el ítem no existe.
func (s *Store) GetByCode(ctx context.Context, code string) (*entity.Item, error) {
	var r itemRow
	err := s.db.GetContext(ctx, &r, `SELECT code, name, kind FROM items WHERE code = ?`, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return &entity.Item{Code: r.Code, Name: r.Name, Kind: r.Kind}, nil
}

// List ítems por código; kind vacío = todos.
func (s *Store) List(ctx context.Context, kind string) ([]entity.Item, error) {
	query := `SELECT code, name, kind FROM items`
	var args []any
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, kind)
	}
	return s.selectItems(ctx, query+` ORDER BY code`, args...)
}

// Search por nombre sin distinguir mayúsculas.
func (s *Store) Search(ctx context.Context, term string, limit int) ([]entity.Item, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return []entity.Item{}, nil
	}
	if limit <= 0 {
		limit = -1
	}
	return s.selectItems(ctx, `SELECT code, name, kind FROM items WHERE LOWER(name) LIKE ? ORDER BY code LIMIT ?`,
		"%"+term+"%", limit)
}

func (s *Store) selectItems(ctx context.Context, query string, args ...any) ([]entity.Item, error) {
	var rows []itemRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	out := make([]entity.Item, 0, len(rows))
	for _, r := range rows {
		out = append(out, entity.Item{Code: r.Code, Name: r.Name, Kind: r.Kind})
	}
	return out, nil
}

type feedConfigRow struct {
	ID        string    `db:"id"`
	URL       string    `db:"url"`
	Username  string    `db:"username"`
	Password  string    `db:"password"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r feedConfigRow) entity() entity.FeedConfig {
	return entity.FeedConfig{
		ID: r.ID, URL: r.URL, Username: r.Username, Password: r.Password,
		IsActive: r.IsActive, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

// Save inserta o actualiza; si queda activa desactiva las demás en la misma tx.
func (s *Store) Save(ctx context.Context, cfg *entity.FeedConfig) error {
	now := time.Now().UTC()
	if cfg.ID == "" {
		cfg.ID = uuid.New().String()
	}
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = now
	}
	cfg.UpdatedAt = now

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if cfg.IsActive {
		if _, err := tx.ExecContext(ctx, `UPDATE feed_configs SET is_active = 0 WHERE id <> ?`, cfg.ID); err != nil {
			return fmt.Errorf("deactivate feed configs: %w", err)
		}
	}
	row := feedConfigRow{
		ID: cfg.ID, URL: cfg.URL, Username: cfg.Username, Password: cfg.Password,
		IsActive: cfg.IsActive, CreatedAt: cfg.CreatedAt, UpdatedAt: cfg.UpdatedAt,
	}
	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO feed_configs (id, url, username, password, is_active, created_at, updated_at)
		VALUES (:id, :url, :username, :password, :is_active, :created_at, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			url = excluded.url, username = excluded.username, password = excluded.password,
			is_active = excluded.is_active, updated_at = excluded.updated_at`, row); err != nil {
		return fmt.Errorf("save feed config: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetActive configuración activa o (nil, nil).
func (s *Store) GetActive(ctx context.Context) (*entity.FeedConfig, error) {
	var r feedConfigRow
	err := s.db.GetContext(ctx, &r, `
		SELECT id, url, username, password, is_active, created_at, updated_at
		FROM feed_configs WHERE is_active = 1 LIMIT 1`)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get active feed config: %w", err)
	}
	c := r.entity()
	return &c, nil
}

// ListConfigs configuraciones por fecha de alta.
func (s *Store) ListConfigs(ctx context.Context) ([]entity.FeedConfig, error) {
	var rows []feedConfigRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT id, url, username, password, is_active, created_at, updated_at
		FROM feed_configs ORDER BY created_at, rowid`); err != nil {
		return nil, fmt.Errorf("list feed configs: %w", err)
	}
	out := make([]entity.FeedConfig, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.entity())
	}
	return out, nil
}
