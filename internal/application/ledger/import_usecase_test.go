package ledger

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/lock"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
)

type fakeFeed struct {
	items   []entity.Item
	entries []entity.LedgerEntry
	err     error
	calls   atomic.Int32
	gate    chan struct{}
	lastURL atomic.Value
}

func (f *fakeFeed) FetchItems(ctx context.Context, cfg entity.FeedConfig) ([]entity.Item, error) {
	f.calls.Add(1)
	f.lastURL.Store(cfg.URL)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.items, f.err
}

func (f *fakeFeed) FetchEntries(_ context.Context, _ entity.FeedConfig) ([]entity.LedgerEntry, error) {
	return f.entries, f.err
}

func feedData() *fakeFeed {
	return &fakeFeed{
		items: []entity.Item{
			{Code: "A100", Name: "Pantalón", Kind: "6"},
			{Code: "A100", Name: "Duplicado", Kind: "6"},
			{Code: "", Name: "Sin código"},
		},
		entries: []entity.LedgerEntry{
			entry("2024-01-02", entity.KindReceipt, "A100", "L1", "5"),
			entry("2024-01-01", entity.KindOpening, "X900", "L2", "3"),
			entry("2024-01-03", entity.KindSale, "  ", "L1", "1"),
			entry("2024-01-04", entity.KindSale, "A100", "L1", "2"),
		},
	}
}

func newImport(t *testing.T, src FeedSource, opts ImportOptions) (*ImportUseCase, *memory.Store) {
	t.Helper()
	s := memory.NewStore()
	require.NoError(t, s.Save(context.Background(), &entity.FeedConfig{URL: "http://erp.local/q", IsActive: true}))
	return NewImportUseCase(src, s, s, lock.NewLocal(), opts, nil), s
}

func TestImport_ReemplazaConPlaceholders(t *testing.T) {
	src := feedData()
	uc, s := newImport(t, src, ImportOptions{})
	ctx := context.Background()

	res, err := uc.Run(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 2, res.Items)
	assert.Equal(t, 3, res.Entries)
	assert.Equal(t, 1, res.Placeholders)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, "http://erp.local/q", src.lastURL.Load())

	a, err := s.GetByCode(ctx, "A100")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, "Pantalón", a.Name)

	ph, err := s.GetByCode(ctx, "X900")
	require.NoError(t, err)
	require.NotNil(t, ph)
	assert.Equal(t, entity.NewPlaceholderItem("X900"), *ph)

	entries, err := s.Query(ctx, repository.LedgerFilter{ItemCode: "A100"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(1), entries[0].Seq)
	assert.Equal(t, int64(3), entries[1].Seq)
}

func TestImport_DatasetVacioAborta(t *testing.T) {
	src := feedData()
	src.entries = nil
	uc, s := newImport(t, src, ImportOptions{})
	require.NoError(t, s.ReplaceAll(context.Background(), []entity.Item{{Code: "OLD"}}, nil))

	_, err := uc.Run(context.Background())
	assert.ErrorIs(t, err, domain.ErrEmptyFeed)

	// Caso: el ledger anterior queda intacto
	old, err := s.GetByCode(context.Background(), "OLD")
	require.NoError(t, err)
	assert.NotNil(t, old)
}

func TestImport_DatasetVacioPermitido(t *testing.T) {
	src := &fakeFeed{}
	uc, s := newImport(t, src, ImportOptions{AllowEmpty: true})
	require.NoError(t, s.ReplaceAll(context.Background(), []entity.Item{{Code: "OLD"}}, nil))

	res, err := uc.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Entries)

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestImport_OrigenSinDatos(t *testing.T) {
	src := feedData()
	src.err = fmt.Errorf("feed: %w", domain.ErrNoFeedData)
	uc, _ := newImport(t, src, ImportOptions{})

	_, err := uc.Run(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoFeedData)
}

func TestImport_SinConfiguracionActiva(t *testing.T) {
	s := memory.NewStore()
	uc := NewImportUseCase(feedData(), s, s, lock.NewLocal(), ImportOptions{}, nil)
	_, err := uc.Run(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoActiveFeedConfig)

	src := feedData()
	withFallback := NewImportUseCase(src, s, s, lock.NewLocal(),
		ImportOptions{Fallback: entity.FeedConfig{URL: "http://fallback"}}, nil)
	_, err = withFallback.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "http://fallback", src.lastURL.Load())
}

func TestImport_LockTomado(t *testing.T) {
	s := memory.NewStore()
	require.NoError(t, s.Save(context.Background(), &entity.FeedConfig{URL: "http://erp.local/q", IsActive: true}))
	l := lock.NewLocal()
	release, err := l.TryAcquire(context.Background())
	require.NoError(t, err)
	defer func() { _ = release(context.Background()) }()

	uc := NewImportUseCase(feedData(), s, s, l, ImportOptions{}, nil)
	_, err = uc.Run(context.Background())
	assert.ErrorIs(t, err, domain.ErrImportInProgress)
}

func TestImport_DisparosConcurrentesCompartenCorrida(t *testing.T) {
	src := feedData()
	src.gate = make(chan struct{})
	uc, _ := newImport(t, src, ImportOptions{})

	const callers = 5
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		runIDs = map[string]bool{}
		errs   []error
	)
	started := make(chan struct{}, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started <- struct{}{}
			res, err := uc.Run(context.Background())
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			runIDs[res.RunID] = true
		}()
	}
	for i := 0; i < callers; i++ {
		<-started
	}
	// Los disparos que lleguen después de cerrar el gate inician otra corrida; no violan la exclusión.
	close(src.gate)
	wg.Wait()

	assert.Empty(t, errs)
	assert.LessOrEqual(t, int(src.calls.Load()), callers)
	assert.NotEmpty(t, runIDs)
}

func TestImport_DisparoCanceladoNoAbortaCorridaCompartida(t *testing.T) {
	src := feedData()
	src.gate = make(chan struct{})
	uc, s := newImport(t, src, ImportOptions{})

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := uc.Run(ctx)
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	type outcome struct {
		res *dto.ImportResult
		err error
	}
	second := make(chan outcome, 1)
	go func() {
		res, err := uc.Run(context.Background())
		second <- outcome{res, err}
	}()

	// Caso: el primer disparo se cancela; la corrida en curso sigue para el segundo.
	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)
	close(src.gate)

	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, 2, got.res.Items)
	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestImport_TimeoutDeLaCorrida(t *testing.T) {
	src := feedData()
	src.gate = make(chan struct{})
	defer close(src.gate)
	uc, _ := newImport(t, src, ImportOptions{Timeout: 20 * time.Millisecond})

	_, err := uc.Run(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, DefaultImportTimeout, (&ImportUseCase{}).timeout())
}

func TestPrepareDataset(t *testing.T) {
	ds := PrepareDataset(nil, []entity.LedgerEntry{
		entry("2024-01-01", entity.KindReceipt, "B1", "", "1"),
		entry("2024-01-01", entity.KindReceipt, "B1", "", "1"),
		entry("2024-01-01", entity.KindReceipt, "", "", "1"),
	})
	require.Len(t, ds.Items, 1)
	assert.Equal(t, "Item B1", ds.Items[0].Name)
	assert.Equal(t, 1, ds.Placeholders)
	assert.Equal(t, 1, ds.Skipped)
	assert.Equal(t, int64(2), ds.Entries[1].Seq)
}
