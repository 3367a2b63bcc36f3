package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// ImportOptions comportamiento del reemplazo.
type ImportOptions struct {
	// Fallback configuración del origen cuando el store no tiene una activa (FEED_*).
	Fallback entity.FeedConfig
	// AllowEmpty permite reemplazar el ledger con un dataset vacío.
	AllowEmpty bool
	// Timeout deadline de la corrida compartida; <= 0 usa DefaultImportTimeout.
	Timeout time.Duration
}

// DefaultImportTimeout deadline de una corrida cuando ImportOptions.Timeout no se fija.
const DefaultImportTimeout = 5 * time.Minute

// ImportUseCase descarga maestro y movimientos del origen y reemplaza el ledger completo.
type ImportUseCase struct {
	source   FeedSource
	replacer repository.LedgerReplacer
	configs  repository.FeedConfigRepository
	locker   Locker
	opts     ImportOptions
	log      *logger.Logger

	group singleflight.Group
}

// NewImportUseCase construye el caso de uso de importación.
func NewImportUseCase(
	source FeedSource,
	replacer repository.LedgerReplacer,
	configs repository.FeedConfigRepository,
	locker Locker,
	opts ImportOptions,
	log *logger.Logger,
) *ImportUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &ImportUseCase{
		source:   source,
		replacer: replacer,
		configs:  configs,
		locker:   locker,
		opts:     opts,
		log:      log.Component("import"),
	}
}

// Run ejecuta una importación. Disparos concurrentes en el mismo proceso comparten la misma corrida.
// La corrida no hereda la cancelación del disparo que la inició: corre con su propio deadline
// y un disparo cancelado solo deja de esperarla.
func (uc *ImportUseCase) Run(ctx context.Context) (*dto.ImportResult, error) {
	ch := uc.group.DoChan("import", func() (any, error) {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.timeout())
		defer cancel()
		return uc.run(runCtx)
	})
	var r singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r = <-ch:
	}
	if r.Err != nil {
		return nil, r.Err
	}
	res := *r.Val.(*dto.ImportResult)
	if r.Shared {
		uc.log.Debug().Str("run_id", res.RunID).Msg("importación compartida con otro disparo")
	}
	return &res, nil
}

func (uc *ImportUseCase) timeout() time.Duration {
	if uc.opts.Timeout > 0 {
		return uc.opts.Timeout
	}
	return DefaultImportTimeout
}

func (uc *ImportUseCase) activeConfig(ctx context.Context) (entity.FeedConfig, error) {
	cfg, err := uc.configs.GetActive(ctx)
	if err != nil {
		return entity.FeedConfig{}, err
	}
	if cfg != nil {
		return *cfg, nil
	}
	if uc.opts.Fallback.URL != "" {
		return uc.opts.Fallback, nil
	}
	return entity.FeedConfig{}, domain.ErrNoActiveFeedConfig
}

func (uc *ImportUseCase) run(ctx context.Context) (*dto.ImportResult, error) {
	res := &dto.ImportResult{RunID: uuid.New().String(), StartedAt: time.Now().UTC()}
	log := uc.log.Zerolog().With().Str("run_id", res.RunID).Logger()

	cfg, err := uc.activeConfig(ctx)
	if err != nil {
		return nil, err
	}

	release, err := uc.locker.TryAcquire(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			log.Error().Err(err).Msg("no se pudo liberar el lock de importación")
		}
	}()

	var (
		items   []entity.Item
		entries []entity.LedgerEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = uc.source.FetchItems(gctx, cfg)
		if err != nil {
			return fmt.Errorf("maestro de ítems: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		entries, err = uc.source.FetchEntries(gctx, cfg)
		if err != nil {
			return fmt.Errorf("movimientos: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("importación abortada: origen sin datos")
		return nil, err
	}

	if (len(items) == 0 || len(entries) == 0) && !uc.opts.AllowEmpty {
		log.Warn().Int("items", len(items)).Int("entries", len(entries)).Msg("importación abortada: dataset vacío")
		return nil, domain.ErrEmptyFeed
	}

	prepared := PrepareDataset(items, entries)
	if err := uc.replacer.ReplaceAll(ctx, prepared.Items, prepared.Entries); err != nil {
		return nil, fmt.Errorf("reemplazo del ledger: %w", err)
	}

	res.Items = len(prepared.Items)
	res.Entries = len(prepared.Entries)
	res.Placeholders = prepared.Placeholders
	res.Skipped = prepared.Skipped
	res.FinishedAt = time.Now().UTC()
	log.Info().
		Int("items", res.Items).
		Int("entries", res.Entries).
		Int("placeholders", res.Placeholders).
		Int("skipped", res.Skipped).
		Dur("duration", res.FinishedAt.Sub(res.StartedAt)).
		Msg("ledger reemplazado")
	return res, nil
}

// Dataset ítems y movimientos listos para reemplazar el ledger.
type Dataset struct {
	Items        []entity.Item
	Entries      []entity.LedgerEntry
	Placeholders int
	Skipped      int
}

// PrepareDataset normaliza el resultado del origen:
// descarta ítems sin código (el primero de cada código gana), descarta movimientos sin ítem,
// crea ítems provisionales para códigos sin maestro y renumera Seq en el orden del origen.
func PrepareDataset(items []entity.Item, entries []entity.LedgerEntry) Dataset {
	var ds Dataset
	known := make(map[string]bool, len(items))
	for _, it := range items {
		it.Code = strings.TrimSpace(it.Code)
		if it.Code == "" || known[it.Code] {
			continue
		}
		known[it.Code] = true
		ds.Items = append(ds.Items, it)
	}

	ds.Entries = make([]entity.LedgerEntry, 0, len(entries))
	for _, e := range entries {
		e.ItemCode = strings.TrimSpace(e.ItemCode)
		if e.ItemCode == "" {
			ds.Skipped++
			continue
		}
		if !known[e.ItemCode] {
			known[e.ItemCode] = true
			ds.Items = append(ds.Items, entity.NewPlaceholderItem(e.ItemCode))
			ds.Placeholders++
		}
		e.Seq = int64(len(ds.Entries) + 1)
		ds.Entries = append(ds.Entries, e)
	}
	return ds
}
