package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/jhoicas/labstock/internal/application/inventory"
	"github.com/jhoicas/labstock/internal/infrastructure/storage"
)

type reconcileCmd struct {
	env *Env
}

func (*reconcileCmd) Name() string     { return "reconcile" }
func (*reconcileCmd) Synopsis() string { return "reproduce el log de movimientos y lo compara con los saldos guardados" }
func (*reconcileCmd) Usage() string {
	return `labstock reconcile

  Reproduce todos los movimientos desde cero y compara el resultado con los
  saldos guardados. Solo lectura. Sale con estado 1 si encuentra diferencias.
`
}

func (*reconcileCmd) SetFlags(*flag.FlagSet) {}

func (c *reconcileCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var consistent bool
	status := c.env.withBackend(ctx, func(b *storage.Backend) error {
		rep, err := inventory.NewReconcileUseCase(b.TxRunner).Reconcile(ctx)
		if err != nil {
			return err
		}
		w := c.env.out()
		fmt.Fprintf(w, "movimientos: %d\nsaldos: %d\ncoinciden: %d\n", rep.Movements, rep.Balances, rep.Matches)
		for _, d := range rep.Mismatches {
			stored := "ausente"
			if d.Stored != nil {
				stored = d.Stored.String()
			}
			fmt.Fprintf(w, "diferencia %s (lote %s, ubicación %s): esperado %s, guardado %s\n",
				d.BalanceID, d.BatchID, d.LocationID, d.Expected.String(), stored)
		}
		for _, id := range rep.NegativeRows {
			fmt.Fprintf(w, "saldo negativo guardado %s\n", id)
		}
		for _, id := range rep.Violations {
			fmt.Fprintf(w, "el movimiento %s deja un saldo negativo al reproducir\n", id)
		}
		consistent = rep.Consistent()
		if consistent {
			fmt.Fprintln(w, "sin diferencias")
		}
		return nil
	})
	if status == subcommands.ExitSuccess && !consistent {
		return subcommands.ExitFailure
	}
	return status
}
