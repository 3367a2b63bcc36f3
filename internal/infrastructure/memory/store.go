// Package memory implementa el Ledger Store sobre un snapshot inmutable en memoria.
// El reemplazo construye un snapshot nuevo y lo publica con un único swap atómico, así
// las consultas concurrentes ven el ledger anterior completo o el nuevo completo, nunca uno a medias.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var (
	_ repository.LedgerRepository     = (*Store)(nil)
	_ repository.LedgerReplacer       = (*Store)(nil)
	_ repository.ItemRepository       = (*Store)(nil)
	_ repository.FeedConfigRepository = (*Store)(nil)
)

// snapshot estado inmutable del ledger; nunca se modifica después de publicarse.
type snapshot struct {
	items   map[string]entity.Item
	codes   []string // códigos ordenados
	entries []entity.LedgerEntry
	byItem  map[string][]int
	byLot   map[string][]int
	lotIDs  []string
}

// Store Ledger Store en memoria.
type Store struct {
	snap atomic.Pointer[snapshot]

	mu      sync.Mutex
	configs []entity.FeedConfig
}

// NewStore crea un store vacío.
func NewStore() *Store {
	s := &Store{}
	s.snap.Store(buildSnapshot(nil, nil))
	return s
}

func buildSnapshot(items []entity.Item, entries []entity.LedgerEntry) *snapshot {
	snap := &snapshot{
		items:  make(map[string]entity.Item, len(items)),
		byItem: make(map[string][]int),
		byLot:  make(map[string][]int),
	}
	for _, it := range items {
		if _, dup := snap.items[it.Code]; !dup {
			snap.codes = append(snap.codes, it.Code)
		}
		snap.items[it.Code] = it
	}
	sort.Strings(snap.codes)

	prepared := make([]entity.LedgerEntry, len(entries))
	for i, e := range entries {
		if e.Seq == 0 {
			e.Seq = int64(i + 1)
		}
		prepared[i] = e
	}
	snap.entries = ledger.SortEntries(prepared)

	for i, e := range snap.entries {
		snap.byItem[e.ItemCode] = append(snap.byItem[e.ItemCode], i)
		if strings.TrimSpace(e.LotID) == "" {
			continue
		}
		if _, seen := snap.byLot[e.LotID]; !seen {
			snap.lotIDs = append(snap.lotIDs, e.LotID)
		}
		snap.byLot[e.LotID] = append(snap.byLot[e.LotID], i)
	}
	sort.Strings(snap.lotIDs)
	return snap
}

// ReplaceAll publica un snapshot nuevo con un único swap atómico.
func (s *Store) ReplaceAll(ctx context.Context, items []entity.Item, entries []entity.LedgerEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.snap.Store(buildSnapshot(items, entries))
	return nil
}

// Query recorre el snapshot vigente usando el índice por ítem o por lote cuando el filtro lo permite.
func (s *Store) Query(ctx context.Context, filter repository.LedgerFilter) ([]entity.LedgerEntry, error) {
	snap := s.snap.Load()

	var candidates []int
	switch {
	case filter.ItemCode != "":
		candidates = snap.byItem[filter.ItemCode]
	case filter.LotID != "":
		candidates = snap.byLot[filter.LotID]
	}

	var out []entity.LedgerEntry
	skipped := 0
	visit := func(e entity.LedgerEntry) bool {
		if !filter.Match(e) {
			return true
		}
		if skipped < filter.Offset {
			skipped++
			return true
		}
		out = append(out, e)
		return filter.Limit <= 0 || len(out) < filter.Limit
	}

	if filter.ItemCode != "" || filter.LotID != "" {
		for _, idx := range candidates {
			if !visit(snap.entries[idx]) {
				break
			}
		}
	} else {
		for i, e := range snap.entries {
			if i%1024 == 0 {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
			}
			if !visit(e) {
				break
			}
		}
	}
	return out, nil
}

// LotIDs BCN distintos no vacíos en orden ascendente.
func (s *Store) LotIDs(_ context.Context) ([]string, error) {
	snap := s.snap.Load()
	return append([]string(nil), snap.lotIDs...), nil
}

// Count cantidad de movimientos del snapshot vigente.
func (s *Store) Count(_ context.Context) (int, error) {
	return len(s.snap.Load().entries), nil
}

// GetByCode devuelve (nil, nil) si el ítem no existe.
func (s *Store) GetByCode(_ context.Context, code string) (*entity.Item, error) {
	it, ok := s.snap.Load().items[code]
	if !ok {
		return nil, nil
	}
	return &it, nil
}

// List ítems ordenados por código, opcionalmente filtrados por tipo.
func (s *Store) List(_ context.Context, kind string) ([]entity.Item, error) {
	snap := s.snap.Load()
	out := make([]entity.Item, 0, len(snap.codes))
	for _, code := range snap.codes {
		it := snap.items[code]
		if kind != "" && it.Kind != kind {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

// Search por nombre, sin distinguir mayúsculas.
func (s *Store) Search(_ context.Context, term string, limit int) ([]entity.Item, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return []entity.Item{}, nil
	}
	snap := s.snap.Load()
	out := []entity.Item{}
	for _, code := range snap.codes {
		it := snap.items[code]
		if strings.Contains(strings.ToLower(it.Name), term) {
			out = append(out, it)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

// Save inserta o actualiza la configuración; si queda activa desactiva las demás.
func (s *Store) Save(_ context.Context, cfg *entity.FeedConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if cfg.ID == "" {
		cfg.ID = uuid.New().String()
	}
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = now
	}
	cfg.UpdatedAt = now

	replaced := false
	for i := range s.configs {
		if cfg.IsActive && s.configs[i].ID != cfg.ID {
			s.configs[i].IsActive = false
		}
		if s.configs[i].ID == cfg.ID {
			cfg.CreatedAt = s.configs[i].CreatedAt
			s.configs[i] = *cfg
			replaced = true
		}
	}
	if !replaced {
		s.configs = append(s.configs, *cfg)
	}
	return nil
}

// GetActive devuelve la configuración activa o (nil, nil).
func (s *Store) GetActive(_ context.Context) (*entity.FeedConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.configs {
		if c.IsActive {
			c := c
			return &c, nil
		}
	}
	return nil, nil
}

// ListConfigs configuraciones en orden de alta.
func (s *Store) ListConfigs(_ context.Context) ([]entity.FeedConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.FeedConfig(nil), s.configs...), nil
}
