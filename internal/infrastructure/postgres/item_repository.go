package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.ItemRepository = (*ItemRepo)(nil)

// ItemRepo maestro de ítems sobre PostgreSQL.
type ItemRepo struct {
	q Querier
}

// NewItemRepository construye el adaptador. Pasar pool o tx (Querier).
func NewItemRepository(q Querier) *ItemRepo {
	return &ItemRepo{q: q}
}

// GetByCode obtiene un ítem por código; (nil, nil) si no existe.
func (r *ItemRepo) GetByCode(ctx context.Context, code string) (*entity.Item, error) {
	var it entity.Item
	err := r.q.QueryRow(ctx, `SELECT code, name, kind FROM items WHERE code = $1`, code).
		Scan(&it.Code, &it.Name, &it.Kind)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return &it, nil
}

// List ítems ordenados por código; kind vacío = todos.
func (r *ItemRepo) List(ctx context.Context, kind string) ([]entity.Item, error) {
	query := `SELECT code, name, kind FROM items`
	var args []any
	if kind != "" {
		query += ` WHERE kind = $1`
		args = append(args, kind)
	}
	query += ` ORDER BY code`
	return r.collect(ctx, query, args...)
}

// Search por nombre (ILIKE) hasta limit resultados.
func (r *ItemRepo) Search(ctx context.Context, term string, limit int) ([]entity.Item, error) {
	if term == "" {
		return []entity.Item{}, nil
	}
	return r.collect(ctx, `SELECT code, name, kind FROM items WHERE name ILIKE $1 ORDER BY code LIMIT $2`,
		"%"+term+"%", limit)
}

func (r *ItemRepo) collect(ctx context.Context, query string, args ...any) ([]entity.Item, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()
	list := []entity.Item{}
	for rows.Next() {
		var it entity.Item
		if err := rows.Scan(&it.Code, &it.Name, &it.Kind); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		list = append(list, it)
	}
	return list, rows.Err()
}
