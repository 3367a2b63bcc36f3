package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func newStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, EnsureSchema(ctx, db))
	return NewStore(db)
}

func seed(t *testing.T, s *Store) {
	t.Helper()
	items := []entity.Item{
		{Code: "B200", Name: "Camisa Azul", Kind: "6"},
		{Code: "A100", Name: "Pantalón", Kind: "6"},
		{Code: "Z900", Name: "Item Z900", Kind: entity.PlaceholderItemKind},
	}
	entries := []entity.LedgerEntry{
		{Seq: 1, Date: day("2024-01-03"), Kind: entity.KindSale, VoucherNumber: "V-3", ItemCode: "A100", LotID: "L1", Quantity: decimal.NewFromInt(2)},
		{Seq: 2, Date: day("2024-01-01"), Kind: entity.KindOpening, VoucherNumber: "V-1", ItemCode: "A100", LotID: "L1", Quantity: decimal.NewFromInt(10)},
		{Seq: 3, Date: day("2024-01-03"), Kind: entity.KindReceipt, VoucherNumber: "V-4", ItemCode: "A100", LotID: "L2", Quantity: decimal.RequireFromString("5.25"), Params: [5]string{"RED", "M"}},
		{Seq: 4, Date: day("2024-01-02"), Kind: entity.KindReceipt, VoucherNumber: "V-2", ItemCode: "B200", Quantity: decimal.NewFromInt(1)},
	}
	require.NoError(t, s.ReplaceAll(context.Background(), items, entries))
}

func TestQuery_OrdenYConversion(t *testing.T) {
	s := newStore(t)
	seed(t, s)

	got, err := s.Query(context.Background(), repository.LedgerFilter{})
	require.NoError(t, err)
	require.Len(t, got, 4)

	var vouchers []string
	for _, e := range got {
		vouchers = append(vouchers, e.VoucherNumber)
	}
	assert.Equal(t, []string{"V-1", "V-2", "V-3", "V-4"}, vouchers)

	last := got[3]
	assert.True(t, day("2024-01-03").Equal(last.Date))
	assert.Equal(t, entity.KindReceipt, last.Kind)
	assert.Equal(t, [5]string{"RED", "M", "", "", ""}, last.Params)
	assert.True(t, decimal.RequireFromString("5.25").Equal(last.Quantity))
}

func TestQuery_FiltrosFechaYPaginado(t *testing.T) {
	s := newStore(t)
	seed(t, s)
	ctx := context.Background()
	from, to := day("2024-01-02"), day("2024-01-03")

	inRange, err := s.Query(ctx, repository.LedgerFilter{From: &from, To: &to, OnlyWithLot: true})
	require.NoError(t, err)
	assert.Len(t, inRange, 2)

	sales, err := s.Query(ctx, repository.LedgerFilter{ItemCode: "A100", Kinds: []entity.VoucherKind{entity.KindSale}})
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, "V-3", sales[0].VoucherNumber)

	search, err := s.Query(ctx, repository.LedgerFilter{Search: "red"})
	require.NoError(t, err)
	require.Len(t, search, 1)

	// Caso: OFFSET sin LIMIT
	tail, err := s.Query(ctx, repository.LedgerFilter{Offset: 3})
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, "V-4", tail[0].VoucherNumber)
}

func TestReplaceAll_ReemplazaTodo(t *testing.T) {
	s := newStore(t)
	seed(t, s)
	ctx := context.Background()

	require.NoError(t, s.ReplaceAll(ctx, []entity.Item{{Code: "C1", Name: "Nuevo"}}, []entity.LedgerEntry{
		{Date: day("2024-03-01"), Kind: entity.KindReceipt, ItemCode: "C1", LotID: " L9 ", Quantity: decimal.NewFromInt(3)},
	}))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	lots, err := s.LotIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"L9"}, lots)

	old, err := s.GetByCode(ctx, "A100")
	require.NoError(t, err)
	assert.Nil(t, old)
}

func TestItems(t *testing.T) {
	s := newStore(t)
	seed(t, s)
	ctx := context.Background()

	items, err := s.List(ctx, "6")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "A100", items[0].Code)

	found, err := s.Search(ctx, "CAMISA", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "B200", found[0].Code)

	it, err := s.GetByCode(ctx, "Z900")
	require.NoError(t, err)
	require.NotNil(t, it)
	assert.Equal(t, entity.PlaceholderItemKind, it.Kind)
}

func TestFeedConfig_SoloUnaActiva(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	none, err := s.GetActive(ctx)
	require.NoError(t, err)
	assert.Nil(t, none)

	first := &entity.FeedConfig{URL: "http://a", IsActive: true}
	require.NoError(t, s.Save(ctx, first))
	second := &entity.FeedConfig{URL: "http://b", IsActive: true}
	require.NoError(t, s.Save(ctx, second))

	active, err := s.GetActive(ctx)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, second.ID, active.ID)

	all, err := s.ListConfigs(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.False(t, all[0].IsActive)
	assert.Equal(t, "http://a", all[0].URL)
}
