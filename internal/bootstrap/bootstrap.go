// Package bootstrap arma el grafo de dependencias compartido por la API y la CLI.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/feed"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/lock"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/sqlite"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// Stores repositorios del backend elegido por STORE_DRIVER.
type Stores struct {
	Ledger   repository.LedgerRepository
	Replacer repository.LedgerReplacer
	Items    repository.ItemRepository
	Configs  repository.FeedConfigRepository
}

// App casos de uso listos para usar.
type App struct {
	Stores       Stores
	Report       *ledger.ReportUseCase
	Import       *ledger.ImportUseCase
	FeedConfigUC *ledger.FeedConfigUseCase

	closers []func()
}

// Close libera conexiones en orden inverso de apertura.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// New abre el store, el lock de reemplazo y el cliente del origen, y construye los casos de uso.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	app := &App{}

	stores, err := openStores(ctx, cfg, log, app)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Stores = stores

	var locker ledger.Locker = lock.NewLocal()
	if cfg.Redis.Addr != "" {
		client, err := lock.Connect(ctx, cfg.Redis.Addr)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.closers = append(app.closers, func() { _ = client.Close() })
		locker = lock.NewRedis(client, "", cfg.Redis.LockTTL)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("lock de reemplazo en Redis")
	}

	source := feed.NewClient(cfg.Feed.Timeout, log).WithItemKind(cfg.Feed.ItemKind)

	app.Report = ledger.NewReportUseCase(stores.Ledger, stores.Items, log, cfg.Engine.ReplayTimeout, cfg.Engine.ReportKind)
	app.Import = ledger.NewImportUseCase(source, stores.Replacer, stores.Configs, locker, ledger.ImportOptions{
		Fallback: entity.FeedConfig{
			URL:      cfg.Feed.URL,
			Username: cfg.Feed.Username,
			Password: cfg.Feed.Password,
			IsActive: true,
		},
		AllowEmpty: cfg.Feed.AllowEmpty,
		Timeout:    cfg.Feed.ImportTimeout,
	}, log)
	app.FeedConfigUC = ledger.NewFeedConfigUseCase(stores.Configs)
	return app, nil
}

func openStores(ctx context.Context, cfg *config.Config, log *logger.Logger, app *App) (Stores, error) {
	switch cfg.Store.Driver {
	case config.StorePostgres:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return Stores{}, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		app.closers = append(app.closers, pool.Close)
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			return Stores{}, err
		}
		log.Info().Str("driver", cfg.Store.Driver).Msg("ledger store listo")
		return Stores{
			Ledger:   postgres.NewLedgerRepository(pool),
			Replacer: postgres.NewTxRunner(pool),
			Items:    postgres.NewItemRepository(pool),
			Configs:  postgres.NewFeedConfigRepository(pool),
		}, nil

	case config.StoreSQLite:
		db, err := sqlite.Open(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return Stores{}, err
		}
		app.closers = append(app.closers, func() { _ = db.Close() })
		if err := sqlite.EnsureSchema(ctx, db); err != nil {
			return Stores{}, err
		}
		s := sqlite.NewStore(db)
		log.Info().Str("driver", cfg.Store.Driver).Str("path", cfg.Store.SQLitePath).Msg("ledger store listo")
		return Stores{Ledger: s, Replacer: s, Items: s, Configs: s}, nil

	default:
		s := memory.NewStore()
		log.Info().Str("driver", config.StoreMemory).Msg("ledger store listo")
		return Stores{Ledger: s, Replacer: s, Items: s, Configs: s}, nil
	}
}
