package cli

import (
	"bytes"
	"context"
	"flag"
	"strings"
	"testing"
	"time"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/bootstrap"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/jwt"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func newEnv(t *testing.T) *Env {
	t.Helper()
	cfg := &config.Config{
		Store:  config.StoreConfig{Driver: config.StoreMemory},
		JWT:    config.JWTConfig{Secret: "s3cr3t", Issuer: "stock-ledger", Expiration: 5},
		Engine: config.EngineConfig{ReportKind: "6"},
	}
	app, err := bootstrap.New(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)

	items := []entity.Item{{Code: "A100", Name: "Pantalon", Kind: "6"}}
	entries := []entity.LedgerEntry{
		{Date: day("2024-01-01"), Kind: entity.KindOpening, VoucherNumber: "V-1", ItemCode: "A100", LotID: "L1", Params: [5]string{"RED", "M", "X"}, Quantity: decimal.NewFromInt(10)},
		{Date: day("2024-01-02"), Kind: entity.KindReceipt, VoucherNumber: "V-2", ItemCode: "A100", LotID: "L2", Params: [5]string{"BLUE", "M", "X"}, Quantity: decimal.NewFromInt(5)},
		{Date: day("2024-01-03"), Kind: entity.KindSale, VoucherNumber: "V-3", ItemCode: "A100", LotID: "L1", Params: [5]string{"RED", "M", "X"}, Quantity: decimal.NewFromInt(4)},
	}
	require.NoError(t, app.Stores.Replacer.ReplaceAll(context.Background(), items, entries))

	return &Env{
		Config: cfg,
		Open:   func(context.Context) (*bootstrap.App, error) { return app, nil },
	}
}

func run(t *testing.T, env *Env, args ...string) (subcommands.ExitStatus, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	env.Out, env.Err = &out, &errOut

	fs := flag.NewFlagSet("stockctl", flag.ContinueOnError)
	cmdr := subcommands.NewCommander(fs, "stockctl")
	for _, c := range Commands(env) {
		cmdr.Register(c, "")
	}
	require.NoError(t, fs.Parse(args))
	st := cmdr.Execute(context.Background())
	return st, out.String(), errOut.String()
}

func TestItems_CSV(t *testing.T) {
	st, out, _ := run(t, newEnv(t), "items")
	require.Equal(t, subcommands.ExitSuccess, st)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Code,Name,Kind,Opening,Movement,Closing,Status", lines[0])
	assert.Equal(t, "A100,Pantalon,6,10.00,9.00,19.00,In Stock", lines[1])
}

func TestItems_FechaInvalida(t *testing.T) {
	st, _, errOut := run(t, newEnv(t), "items", "-from", "01/01/2024")
	assert.Equal(t, subcommands.ExitFailure, st)
	assert.Contains(t, errOut, "YYYY-MM-DD")
}

func TestItems_RangoConFechasEsError(t *testing.T) {
	st, _, errOut := run(t, newEnv(t), "items", "-range", "last_month", "-from", "2024-01-01")
	assert.Equal(t, subcommands.ExitFailure, st)
	assert.Contains(t, errOut, "range")
}

func TestLots_Saldos(t *testing.T) {
	st, out, _ := run(t, newEnv(t), "lots", "A100")
	require.Equal(t, subcommands.ExitSuccess, st)
	assert.Contains(t, out, "total=11.00")
	assert.Contains(t, out, "L1\tRED/M/X\t6.00")
	assert.Contains(t, out, "L2\tBLUE/M/X\t5.00")

	// Caso: sin código
	st, _, _ = run(t, newEnv(t), "lots")
	assert.Equal(t, subcommands.ExitUsageError, st)
}

func TestEntries_FiltroPorTipo(t *testing.T) {
	st, out, _ := run(t, newEnv(t), "entries", "-kind", "9")
	require.Equal(t, subcommands.ExitSuccess, st)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "V-3")
}

func TestImport_SinOrigen(t *testing.T) {
	st, _, errOut := run(t, newEnv(t), "import")
	assert.Equal(t, subcommands.ExitFailure, st)
	assert.NotEmpty(t, errOut)
}

func TestToken_RolValido(t *testing.T) {
	env := newEnv(t)
	st, out, _ := run(t, env, "token", "-user", "ana", "-role", "viewer")
	require.Equal(t, subcommands.ExitSuccess, st)

	user, role, err := jwt.Parse(env.Config.JWT.Secret, strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "ana", user)
	assert.Equal(t, jwt.RoleViewer, role)

	// Caso: rol desconocido
	st, _, _ = run(t, env, "token", "-role", "root")
	assert.Equal(t, subcommands.ExitFailure, st)
}
