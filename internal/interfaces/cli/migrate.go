package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/jhoicas/labstock/internal/application/inventory"
	"github.com/jhoicas/labstock/internal/application/migration"
	"github.com/jhoicas/labstock/internal/infrastructure/storage"
)

type migrateCmd struct {
	env   *Env
	chunk int
}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "promueve los registros planos V1 al catálogo y al ledger" }
func (*migrateCmd) Usage() string {
	return `labstock migrate [-chunk <n>]

  Promueve cada registro V1 que aún no tiene lote enlazado. Cada registro pasa a
  ser un producto del catálogo, un lote, una ubicación y un movimiento ENTRADA
  por su cantidad. Los ya enlazados se omiten; se puede volver a ejecutar.
`
}

func (c *migrateCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.chunk, "chunk", 0, "Registros por transacción (por defecto MIGRATION_CHUNK_SIZE).")
}

func (c *migrateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	chunk := c.chunk
	if chunk <= 0 {
		chunk = c.env.ChunkSize
	}
	var failed bool
	status := c.env.withBackend(ctx, func(b *storage.Backend) error {
		ledger := inventory.NewRegisterMovementUseCase(b.TxRunner, inventory.WithLogger(c.env.Log))
		uc := migration.NewPromoteUseCase(b.TxRunner, ledger, chunk, c.env.Log)
		report, err := uc.Run(ctx)
		if report != nil {
			fmt.Fprintf(c.env.out(), "leídos: %d\npromovidos: %d\nfallidos: %d\n", report.Scanned, report.Promoted, report.Failed)
			for _, e := range report.Errors {
				fmt.Fprintf(c.env.out(), "  %s: %v\n", e.ItemID, e.Err)
			}
			failed = report.Failed > 0
		}
		return err
	})
	if status == subcommands.ExitSuccess && failed {
		return subcommands.ExitFailure
	}
	return status
}
