package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ItemRepository puerto de lectura del maestro de ítems.
type ItemRepository interface {
	// GetByCode devuelve (nil, nil) si no existe.
	GetByCode(ctx context.Context, code string) (*entity.Item, error)
	// List devuelve los ítems ordenados por código; kind vacío = todos.
	List(ctx context.Context, kind string) ([]entity.Item, error)
	// Search busca por nombre (contiene, sin distinguir mayúsculas) hasta limit resultados.
	Search(ctx context.Context, term string, limit int) ([]entity.Item, error)
}
