// Package lock implementa la sección crítica del reemplazo del ledger: en proceso o distribuida vía Redis.
package lock

import (
	"context"
	"sync"

	"github.com/jhoicas/stock-ledger/internal/domain"
)

// Local lock exclusivo dentro del proceso.
type Local struct {
	mu sync.Mutex
}

// NewLocal crea un lock en proceso.
func NewLocal() *Local {
	return &Local{}
}

// TryAcquire no bloquea: si el lock está tomado devuelve domain.ErrImportInProgress.
// La función devuelta libera el lock y es idempotente.
func (l *Local) TryAcquire(_ context.Context) (func(context.Context) error, error) {
	if !l.mu.TryLock() {
		return nil, domain.ErrImportInProgress
	}
	var once sync.Once
	return func(context.Context) error {
		once.Do(l.mu.Unlock)
		return nil
	}, nil
}
