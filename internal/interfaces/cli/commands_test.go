package cli_test

import (
	"bytes"
	"context"
	"flag"
	"testing"
	"time"

	"github.com/google/subcommands"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/labstock/internal/domain/entity"
	"github.com/jhoicas/labstock/internal/infrastructure/memory"
	"github.com/jhoicas/labstock/internal/infrastructure/storage"
	"github.com/jhoicas/labstock/internal/interfaces/cli"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

func run(t *testing.T, store *memory.Store, args ...string) (subcommands.ExitStatus, string) {
	t.Helper()
	var out bytes.Buffer
	env := &cli.Env{
		Open:      func(context.Context) (*storage.Backend, error) { return storage.FromMemory(store), nil },
		Out:       &out,
		Log:       zerolog.Nop(),
		ChunkSize: 10,
	}
	fs := flag.NewFlagSet("labstock", flag.ContinueOnError)
	commander := subcommands.NewCommander(fs, "labstock")
	for _, c := range cli.Commands(env) {
		commander.Register(c, "")
	}
	require.NoError(t, fs.Parse(args))
	return commander.Execute(context.Background()), out.String()
}

func seedLegacy(t *testing.T, store *memory.Store, id, qty string) {
	t.Helper()
	updated := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.LegacyItems().Create(context.Background(), &entity.LegacyItem{
		ID:          id,
		SAPCode:     "SAP-" + id,
		Name:        "Etanol absoluto",
		ItemStatus:  "Ativo",
		LotNumber:   "LT-" + id,
		Quantity:    decimal.RequireFromString(qty),
		Warehouse:   "Almoxarifado",
		LastUpdated: &updated,
	}))
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestCLI_MigrateBalanceReconcile(t *testing.T) {
	store := memory.New()
	seedLegacy(t, store, "1", "12")
	seedLegacy(t, store, "2", "3.5")

	status, out := run(t, store, "migrate")
	require.Equal(t, subcommands.ExitSuccess, status, out)
	assert.Contains(t, out, "promovidos: 2")

	status, out = run(t, store, "migrate")
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out, "promovidos: 0", "la segunda ejecución no promueve nada")

	status, out = run(t, store, "balance", "-batch", entity.LegacyBatchID("1"))
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out, entity.DeriveLocationID("Almoxarifado"))
	assert.Contains(t, out, "12")

	status, out = run(t, store, "movements", "-type", "ENTRADA")
	require.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out, entity.LegacyBatchID("2"))

	status, out = run(t, store, "reconcile")
	assert.Equal(t, subcommands.ExitSuccess, status)
	assert.Contains(t, out, "sin diferencias")
}

func TestCLI_ErroresDeUso(t *testing.T) {
	store := memory.New()

	status, _ := run(t, store, "balance")
	assert.Equal(t, subcommands.ExitUsageError, status, "-batch es obligatorio")

	status, _ = run(t, store, "movements", "-type", "VENTA")
	assert.Equal(t, subcommands.ExitUsageError, status)

	status, _ = run(t, store, "balance", "-batch", "NOPE")
	assert.Equal(t, subcommands.ExitFailure, status)
}
