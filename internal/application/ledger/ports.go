// Package ledger casos de uso de reportes de stock y del ciclo de importación/reemplazo.
package ledger

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// FeedSource origen externo del maestro de ítems y de los movimientos.
type FeedSource interface {
	FetchItems(ctx context.Context, cfg entity.FeedConfig) ([]entity.Item, error)
	FetchEntries(ctx context.Context, cfg entity.FeedConfig) ([]entity.LedgerEntry, error)
}

// Locker sección crítica exclusiva del reemplazo. TryAcquire no espera: si está tomada
// devuelve domain.ErrImportInProgress. La función devuelta libera el lock.
type Locker interface {
	TryAcquire(ctx context.Context) (func(context.Context) error, error)
}
