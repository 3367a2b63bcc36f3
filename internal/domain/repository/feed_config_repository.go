package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// FeedConfigRepository persistencia de configuraciones del origen externo.
// Guardar una configuración activa desactiva todas las demás.
type FeedConfigRepository interface {
	Save(ctx context.Context, cfg *entity.FeedConfig) error
	// GetActive devuelve (nil, nil) si no hay ninguna activa.
	GetActive(ctx context.Context) (*entity.FeedConfig, error)
	ListConfigs(ctx context.Context) ([]entity.FeedConfig, error)
}
