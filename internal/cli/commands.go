// Package cli subcomandos de stockctl: importación, reportes y emisión de tokens de operador.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/bootstrap"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/export"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/jwt"
)

// Env lo que los subcomandos comparten. Open se llama una sola vez por ejecución.
type Env struct {
	Config *config.Config
	Out    io.Writer
	Err    io.Writer
	Open   func(ctx context.Context) (*bootstrap.App, error)
}

// Commands subcomandos registrados en el commander.
func Commands(env *Env) []subcommands.Command {
	if env.Out == nil {
		env.Out = os.Stdout
	}
	if env.Err == nil {
		env.Err = os.Stderr
	}
	return []subcommands.Command{
		&importCmd{env: env},
		&itemsCmd{env: env},
		&lotsCmd{env: env},
		&summaryCmd{env: env},
		&lowStockCmd{env: env},
		&entriesCmd{env: env},
		&tokenCmd{env: env},
	}
}

func (e *Env) fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(e.Err, err)
	return subcommands.ExitFailure
}

// open abre el store y, con refresh, importa antes de leer (necesario con STORE_DRIVER=memory).
func (e *Env) open(ctx context.Context, refresh bool) (*bootstrap.App, error) {
	app, err := e.Open(ctx)
	if err != nil {
		return nil, err
	}
	if refresh {
		if _, err := app.Import.Run(ctx); err != nil {
			app.Close()
			return nil, fmt.Errorf("importar: %w", err)
		}
	}
	return app, nil
}

type windowFlags struct {
	from, to, rng string
	refresh       bool
}

func (w *windowFlags) set(f *flag.FlagSet) {
	f.StringVar(&w.from, "from", "", "Fecha inicial YYYY-MM-DD (opcional).")
	f.StringVar(&w.to, "to", "", "Fecha final YYYY-MM-DD (opcional).")
	f.StringVar(&w.rng, "range", "", "Rango predefinido: today, yesterday, this_week, last_week, this_month, last_month, this_year.")
	f.BoolVar(&w.refresh, "refresh", false, "Importar desde el origen antes de calcular.")
}

func (w *windowFlags) query() dto.WindowQuery {
	return dto.WindowQuery{From: w.from, To: w.to, Range: w.rng}
}

type importCmd struct{ env *Env }

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "descarga el origen y reemplaza el ledger completo" }
func (*importCmd) Usage() string {
	return `stockctl import

  Descarga el maestro de ítems y los movimientos del origen activo y reemplaza
  el ledger en una sola operación.
`
}
func (*importCmd) SetFlags(*flag.FlagSet) {}

func (c *importCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	app, err := c.env.open(ctx, false)
	if err != nil {
		return c.env.fail(err)
	}
	defer app.Close()

	res, err := app.Import.Run(ctx)
	if err != nil {
		return c.env.fail(err)
	}
	fmt.Fprintf(c.env.Out, "run %s: %d ítems, %d movimientos, %d placeholders, %d omitidos\n",
		res.RunID, res.Items, res.Entries, res.Placeholders, res.Skipped)
	return subcommands.ExitSuccess
}

type itemsCmd struct {
	env  *Env
	win  windowFlags
	kind string
}

func (*itemsCmd) Name() string     { return "items" }
func (*itemsCmd) Synopsis() string { return "reporte de stock por ítem en CSV" }
func (*itemsCmd) Usage() string {
	return `stockctl items [-kind <tipo>] [-from YYYY-MM-DD] [-to YYYY-MM-DD | -range <rango>] [-refresh]
`
}
func (c *itemsCmd) SetFlags(f *flag.FlagSet) {
	c.win.set(f)
	f.StringVar(&c.kind, "kind", "", "MasterType de los ítems (vacío = REPORT_ITEM_KIND).")
}

func (c *itemsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	w, err := ledger.ParseWindow(c.win.query())
	if err != nil {
		return c.env.fail(err)
	}
	app, err := c.env.open(ctx, c.win.refresh)
	if err != nil {
		return c.env.fail(err)
	}
	defer app.Close()

	rows, err := app.Report.ItemStockReport(ctx, c.kind, w)
	if err != nil {
		return c.env.fail(err)
	}
	if err := export.WriteItemStock(c.env.Out, rows); err != nil {
		return c.env.fail(err)
	}
	return subcommands.ExitSuccess
}

type lotsCmd struct {
	env     *Env
	refresh bool
}

func (*lotsCmd) Name() string     { return "lots" }
func (*lotsCmd) Synopsis() string { return "existencia por lote (BCN) de un ítem" }
func (*lotsCmd) Usage() string {
	return `stockctl lots [-refresh] <código>
`
}
func (c *lotsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.refresh, "refresh", false, "Importar desde el origen antes de calcular.")
}

func (c *lotsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprint(c.env.Err, c.Usage())
		return subcommands.ExitUsageError
	}
	app, err := c.env.open(ctx, c.refresh)
	if err != nil {
		return c.env.fail(err)
	}
	defer app.Close()

	res, err := app.Report.ItemLotStock(ctx, f.Arg(0))
	if err != nil {
		return c.env.fail(err)
	}
	fmt.Fprintf(c.env.Out, "%s %s total=%s\n", res.Item.Code, res.Item.Name, res.Item.TotalLotStock.StringFixed(2))
	for _, l := range res.Lots {
		fmt.Fprintf(c.env.Out, "  %s\t%s/%s/%s\t%s\n", l.LotID, l.P1, l.P2, l.P3, l.Quantity.StringFixed(2))
	}
	if res.UnmatchedSales > 0 {
		fmt.Fprintf(c.env.Out, "  ventas sin lote: %d\n", res.UnmatchedSales)
	}
	return subcommands.ExitSuccess
}

type summaryCmd struct {
	env *Env
	win windowFlags
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "resumen de lotes en CSV" }
func (*summaryCmd) Usage() string {
	return `stockctl summary [-from YYYY-MM-DD] [-to YYYY-MM-DD | -range <rango>] [-refresh]
`
}
func (c *summaryCmd) SetFlags(f *flag.FlagSet) { c.win.set(f) }

func (c *summaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	w, err := ledger.ParseWindow(c.win.query())
	if err != nil {
		return c.env.fail(err)
	}
	app, err := c.env.open(ctx, c.win.refresh)
	if err != nil {
		return c.env.fail(err)
	}
	defer app.Close()

	rows, err := app.Report.LotSummary(ctx, w)
	if err != nil {
		return c.env.fail(err)
	}
	if err := export.WriteLotSummary(c.env.Out, rows); err != nil {
		return c.env.fail(err)
	}
	return subcommands.ExitSuccess
}

type lowStockCmd struct {
	env       *Env
	threshold string
	refresh   bool
}

func (*lowStockCmd) Name() string { return "low-stock" }
func (*lowStockCmd) Synopsis() string {
	return "ítems con existencia por lotes menor o igual al umbral"
}
func (*lowStockCmd) Usage() string {
	return `stockctl low-stock [-threshold <n>] [-refresh]
`
}
func (c *lowStockCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.threshold, "threshold", "0", "Umbral de existencia.")
	f.BoolVar(&c.refresh, "refresh", false, "Importar desde el origen antes de calcular.")
}

func (c *lowStockCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	threshold, err := decimal.NewFromString(c.threshold)
	if err != nil {
		return c.env.fail(fmt.Errorf("umbral inválido %q", c.threshold))
	}
	app, err := c.env.open(ctx, c.refresh)
	if err != nil {
		return c.env.fail(err)
	}
	defer app.Close()

	rows, err := app.Report.LowStockItems(ctx, threshold)
	if err != nil {
		return c.env.fail(err)
	}
	for _, r := range rows {
		fmt.Fprintf(c.env.Out, "%s\t%s\t%s\n", r.Code, r.Name, r.ClosingStock.StringFixed(2))
	}
	return subcommands.ExitSuccess
}

type entriesCmd struct {
	env   *Env
	win   windowFlags
	query dto.EntriesQuery
}

func (*entriesCmd) Name() string     { return "entries" }
func (*entriesCmd) Synopsis() string { return "movimientos del ledger en CSV" }
func (*entriesCmd) Usage() string {
	return `stockctl entries [-item <código>] [-lot <BCN>] [-kind <n>] [-q <texto>] [-limit <n>] [-offset <n>] [-from ...] [-to ...]
`
}
func (c *entriesCmd) SetFlags(f *flag.FlagSet) {
	c.win.set(f)
	f.StringVar(&c.query.Item, "item", "", "Código de ítem.")
	f.StringVar(&c.query.Lot, "lot", "", "BCN.")
	f.IntVar(&c.query.Kind, "kind", 0, "Tipo de comprobante (0 = todos).")
	f.StringVar(&c.query.Search, "q", "", "Búsqueda libre en comprobante, ítem, lote y parámetros.")
	f.IntVar(&c.query.Limit, "limit", 0, "Máximo de filas (0 = todas).")
	f.IntVar(&c.query.Offset, "offset", 0, "Filas a saltar.")
}

func (c *entriesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	c.query.WindowQuery = c.win.query()
	filter, err := ledger.EntriesFilter(c.query)
	if err != nil {
		return c.env.fail(err)
	}
	app, err := c.env.open(ctx, c.win.refresh)
	if err != nil {
		return c.env.fail(err)
	}
	defer app.Close()

	page, err := app.Report.ListEntries(ctx, filter)
	if err != nil {
		return c.env.fail(err)
	}
	if err := export.WriteEntries(c.env.Out, page.Entries); err != nil {
		return c.env.fail(err)
	}
	return subcommands.ExitSuccess
}

type tokenCmd struct {
	env  *Env
	user string
	role string
}

func (*tokenCmd) Name() string     { return "token" }
func (*tokenCmd) Synopsis() string { return "emite un JWT de operador firmado con JWT_SECRET" }
func (*tokenCmd) Usage() string {
	return `stockctl token [-user <id>] [-role admin|viewer]
`
}
func (c *tokenCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "operador", "Identificador del usuario.")
	f.StringVar(&c.role, "role", jwt.RoleAdmin, "Rol del token.")
}

func (c *tokenCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.role != jwt.RoleAdmin && c.role != jwt.RoleViewer {
		return c.env.fail(fmt.Errorf("rol desconocido %q", c.role))
	}
	cfg := c.env.Config
	if cfg == nil {
		return c.env.fail(errors.New("configuración no cargada"))
	}
	tok, err := jwt.Generate(cfg.JWT.Secret, c.user, c.role, cfg.JWT.Issuer, cfg.JWT.Expiration)
	if err != nil {
		return c.env.fail(err)
	}
	fmt.Fprintln(c.env.Out, tok)
	return subcommands.ExitSuccess
}
