package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	engine "github.com/jhoicas/stock-ledger/internal/domain/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// searchLimit máximo de resultados del autocompletado.
const searchLimit = 10

// allocationKinds únicos tipos que intervienen en la asignación de lotes.
var allocationKinds = []entity.VoucherKind{entity.KindOpening, entity.KindReceipt, entity.KindSale}

// ReportUseCase reportes de stock sobre el Ledger Store. No guarda estado entre llamadas:
// la ventana de fechas llega siempre como parámetro.
type ReportUseCase struct {
	ledger        repository.LedgerRepository
	items         repository.ItemRepository
	log           *logger.Logger
	replayTimeout time.Duration
	reportKind    string
}

// NewReportUseCase construye el caso de uso. replayTimeout <= 0 deja los recorridos sin deadline propio.
func NewReportUseCase(
	ledger repository.LedgerRepository,
	items repository.ItemRepository,
	log *logger.Logger,
	replayTimeout time.Duration,
	reportKind string,
) *ReportUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &ReportUseCase{
		ledger:        ledger,
		items:         items,
		log:           log.Component("report"),
		replayTimeout: replayTimeout,
		reportKind:    reportKind,
	}
}

func (uc *ReportUseCase) withReplayDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if uc.replayTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, uc.replayTimeout)
}

func (uc *ReportUseCase) getItem(ctx context.Context, code string) (*entity.Item, error) {
	it, err := uc.items.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if it == nil {
		return nil, fmt.Errorf("ítem %s: %w", code, domain.ErrNotFound)
	}
	return it, nil
}

// windowFilter acota la consulta al rango de la ventana; una ventana invertida no se envía al store.
func windowFilter(f repository.LedgerFilter, w engine.DateWindow) repository.LedgerFilter {
	if !w.Inverted() {
		f.From, f.To = w.From, w.To
	}
	return f
}

// ItemStock apertura, cierre y movimiento de un ítem (variante sin signo).
func (uc *ReportUseCase) ItemStock(ctx context.Context, code string, w engine.DateWindow) (*dto.ItemStockRow, error) {
	it, err := uc.getItem(ctx, code)
	if err != nil {
		return nil, err
	}
	entries, err := uc.ledger.Query(ctx, windowFilter(repository.LedgerFilter{ItemCode: code}, w))
	if err != nil {
		return nil, err
	}
	row := toItemStockRow(*it, engine.ItemAggregate(entries, w))
	return &row, nil
}

// ItemStockReport reporte de stock de todos los ítems de un tipo de maestro (vacío = tipo configurado), por código.
func (uc *ReportUseCase) ItemStockReport(ctx context.Context, kind string, w engine.DateWindow) ([]dto.ItemStockRow, error) {
	if kind == "" {
		kind = uc.reportKind
	}
	items, err := uc.items.List(ctx, kind)
	if err != nil {
		return nil, err
	}
	entries, err := uc.ledger.Query(ctx, windowFilter(repository.LedgerFilter{}, w))
	if err != nil {
		return nil, err
	}
	byItem := groupByItem(entries)

	rows := make([]dto.ItemStockRow, 0, len(items))
	for _, it := range items {
		rows = append(rows, toItemStockRow(it, engine.ItemAggregate(byItem[it.Code], w)))
	}
	return rows, nil
}

// ItemStatusReport reporte de stock por ítem encabezado por los totales por estado.
func (uc *ReportUseCase) ItemStatusReport(ctx context.Context, kind string, w engine.DateWindow) (*dto.ItemStockReport, error) {
	rows, err := uc.ItemStockReport(ctx, kind, w)
	if err != nil {
		return nil, err
	}
	closings := make([]decimal.Decimal, len(rows))
	for i, r := range rows {
		closings[i] = r.Closing
	}
	return &dto.ItemStockReport{Summary: statusSummary(closings), Rows: rows}, nil
}

func groupByItem(entries []entity.LedgerEntry) map[string][]entity.LedgerEntry {
	out := make(map[string][]entity.LedgerEntry)
	for _, e := range entries {
		out[e.ItemCode] = append(out[e.ItemCode], e)
	}
	return out
}

// ItemLotStock existencia por lote de un ítem tras reproducir compras y ventas.
func (uc *ReportUseCase) ItemLotStock(ctx context.Context, code string) (*dto.ItemLotStockResponse, error) {
	it, err := uc.getItem(ctx, code)
	if err != nil {
		return nil, err
	}
	ctx, cancel := uc.withReplayDeadline(ctx)
	defer cancel()

	entries, err := uc.ledger.Query(ctx, repository.LedgerFilter{ItemCode: code, Kinds: allocationKinds})
	if err != nil {
		return nil, err
	}
	alloc, err := engine.AllocateLots(ctx, entries)
	if err != nil {
		return nil, fmt.Errorf("asignación de lotes %s: %w", code, err)
	}
	uc.logUnmatched(code, alloc.UnmatchedSales)

	return &dto.ItemLotStockResponse{
		Item: dto.ItemLotHeader{
			Code:          it.Code,
			Name:          it.Name,
			Kind:          it.Kind,
			TotalLotStock: alloc.Total,
		},
		Lots:           toLotRows(alloc.Lots),
		UnmatchedSales: len(alloc.UnmatchedSales),
	}, nil
}

func (uc *ReportUseCase) logUnmatched(code string, sales []entity.LedgerEntry) {
	for _, s := range sales {
		uc.log.Debug().
			Str("item", code).
			Str("voucher", s.VoucherNumber).
			Str("lot", s.LotID).
			Str("quantity", s.Quantity.String()).
			Msg("venta sin lote coincidente; no se aplica")
	}
}

// ItemsWithStock todos los ítems con su existencia por lotes, en un solo recorrido del ledger.
func (uc *ReportUseCase) ItemsWithStock(ctx context.Context) ([]dto.ItemWithStockRow, error) {
	items, err := uc.items.List(ctx, "")
	if err != nil {
		return nil, err
	}
	ctx, cancel := uc.withReplayDeadline(ctx)
	defer cancel()

	entries, err := uc.ledger.Query(ctx, repository.LedgerFilter{})
	if err != nil {
		return nil, err
	}
	byItem := groupByItem(entries)

	rows := make([]dto.ItemWithStockRow, 0, len(items))
	for _, it := range items {
		own := byItem[it.Code]
		alloc, err := engine.AllocateLots(ctx, own)
		if err != nil {
			return nil, fmt.Errorf("asignación de lotes %s: %w", it.Code, err)
		}
		uc.logUnmatched(it.Code, alloc.UnmatchedSales)
		hasParams := false
		for _, e := range own {
			if e.HasParameters() {
				hasParams = true
				break
			}
		}
		rows = append(rows, dto.ItemWithStockRow{
			Code:          it.Code,
			Name:          it.Name,
			Kind:          it.Kind,
			ClosingStock:  alloc.Total,
			HasParameters: hasParams,
		})
	}
	return rows, nil
}

// LowStockItems ítems con existencia por lotes <= threshold, de menor a mayor existencia.
func (uc *ReportUseCase) LowStockItems(ctx context.Context, threshold decimal.Decimal) ([]dto.ItemWithStockRow, error) {
	all, err := uc.ItemsWithStock(ctx)
	if err != nil {
		return nil, err
	}
	low := make([]dto.ItemWithStockRow, 0)
	for _, r := range all {
		if r.ClosingStock.LessThanOrEqual(threshold) {
			low = append(low, r)
		}
	}
	sort.SliceStable(low, func(i, j int) bool {
		return low[i].ClosingStock.LessThan(low[j].ClosingStock)
	})
	return low, nil
}

// LotSummary resumen de todos los lotes (variante con signo) a partir de un único recorrido del ledger.
func (uc *ReportUseCase) LotSummary(ctx context.Context, w engine.DateWindow) ([]dto.LotSummaryRow, error) {
	ctx, cancel := uc.withReplayDeadline(ctx)
	defer cancel()

	entries, err := uc.ledger.Query(ctx, repository.LedgerFilter{OnlyWithLot: true})
	if err != nil {
		return nil, err
	}
	items, err := uc.items.List(ctx, "")
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(items))
	for _, it := range items {
		names[it.Code] = it.Name
	}

	summaries := engine.SummarizeLots(entries, w)
	rows := make([]dto.LotSummaryRow, 0, len(summaries))
	for _, s := range summaries {
		name, ok := names[s.ItemCode]
		if !ok {
			name = unknownItemName
		}
		rows = append(rows, toLotSummaryRow(s, name))
	}
	return rows, nil
}

// LotStatusReport resumen de lotes encabezado por los totales por estado.
func (uc *ReportUseCase) LotStatusReport(ctx context.Context, w engine.DateWindow) (*dto.LotSummaryReport, error) {
	rows, err := uc.LotSummary(ctx, w)
	if err != nil {
		return nil, err
	}
	closings := make([]decimal.Decimal, len(rows))
	for i, r := range rows {
		closings[i] = r.Closing
	}
	return &dto.LotSummaryReport{Summary: statusSummary(closings), Rows: rows}, nil
}

// Stats cantidad de movimientos y de lotes distintos del ledger vigente.
func (uc *ReportUseCase) Stats(ctx context.Context) (*dto.LedgerStats, error) {
	n, err := uc.ledger.Count(ctx)
	if err != nil {
		return nil, err
	}
	lots, err := uc.ledger.LotIDs(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.LedgerStats{Entries: n, Lots: len(lots)}, nil
}

// SearchItems autocompletado por nombre (máximo 10 resultados). Término vacío = sin resultados.
func (uc *ReportUseCase) SearchItems(ctx context.Context, term string) (*dto.SearchResponse, error) {
	resp := &dto.SearchResponse{Results: []dto.SearchResult{}}
	if term == "" {
		return resp, nil
	}
	items, err := uc.items.Search(ctx, term, searchLimit)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		resp.Results = append(resp.Results, dto.SearchResult{ID: it.Code, Text: it.Name})
	}
	return resp, nil
}

// ListEntries movimientos filtrados y paginados. Pide una fila de más para saber si hay otra página.
func (uc *ReportUseCase) ListEntries(ctx context.Context, filter repository.LedgerFilter) (*dto.EntryPage, error) {
	limit := filter.Limit
	if limit > 0 {
		filter.Limit = limit + 1
	}
	entries, err := uc.ledger.Query(ctx, filter)
	if err != nil {
		return nil, err
	}
	hasMore := limit > 0 && len(entries) > limit
	if hasMore {
		entries = entries[:limit]
	}
	page := &dto.EntryPage{
		Entries: make([]dto.EntryRow, 0, len(entries)),
		Page:    dto.PageResponse{Limit: limit, Offset: filter.Offset, HasMore: hasMore},
	}
	for _, e := range entries {
		page.Entries = append(page.Entries, toEntryRow(e))
	}
	return page, nil
}

// EntriesFilter traduce la query HTTP/CLI al filtro del store.
func EntriesFilter(q dto.EntriesQuery) (repository.LedgerFilter, error) {
	w, err := ParseWindow(q.WindowQuery)
	if err != nil {
		return repository.LedgerFilter{}, err
	}
	f := repository.LedgerFilter{
		ItemCode: q.Item,
		LotID:    q.Lot,
		From:     w.From,
		To:       w.To,
		Search:   q.Search,
		Limit:    q.Limit,
		Offset:   q.Offset,
	}
	if q.Kind > 0 {
		f.Kinds = []entity.VoucherKind{entity.VoucherKind(q.Kind)}
	}
	return f, nil
}
