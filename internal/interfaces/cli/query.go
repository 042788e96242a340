package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/subcommands"

	"github.com/jhoicas/labstock/internal/application/inventory"
	"github.com/jhoicas/labstock/internal/domain/entity"
	"github.com/jhoicas/labstock/internal/domain/repository"
	"github.com/jhoicas/labstock/internal/infrastructure/storage"
)

type balanceCmd struct {
	env      *Env
	batch    string
	location string
}

func (*balanceCmd) Name() string     { return "balance" }
func (*balanceCmd) Synopsis() string { return "muestra los saldos guardados de un lote" }
func (*balanceCmd) Usage() string {
	return `labstock balance -batch <batch_id> [-location <location_id>]
`
}

func (c *balanceCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.batch, "batch", "", "ID del lote (obligatorio).")
	f.StringVar(&c.location, "location", "", "Limita a una ubicación.")
}

func (c *balanceCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.batch == "" {
		fmt.Fprintln(os.Stderr, "-batch es obligatorio")
		return subcommands.ExitUsageError
	}
	return c.env.withBackend(ctx, func(b *storage.Backend) error {
		list, err := inventory.NewLedgerQueryUseCase(b.Movements, b.Balances).
			ListBalances(ctx, repository.BalanceFilter{BatchID: c.batch, LocationID: c.location})
		if err != nil {
			return err
		}
		if len(list) == 0 {
			return errors.New("no hay saldos para ese lote")
		}
		w := tabwriter.NewWriter(c.env.out(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "UBICACIÓN\tCANTIDAD\tÚLTIMO MOVIMIENTO")
		for _, bal := range list {
			fmt.Fprintf(w, "%s\t%s\t%s\n", bal.LocationID, bal.Quantity.String(), bal.LastMovementAt.Format(time.RFC3339))
		}
		return w.Flush()
	})
}

type movementsCmd struct {
	env      *Env
	batch    string
	location string
	typ      string
	limit    int
}

func (*movementsCmd) Name() string     { return "movements" }
func (*movementsCmd) Synopsis() string { return "lista el log de movimientos en orden de inserción" }
func (*movementsCmd) Usage() string {
	return `labstock movements [-batch <batch_id>] [-location <location_id>] [-type <type>] [-limit <n>]
`
}

func (c *movementsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.batch, "batch", "", "Filtra por ID de lote.")
	f.StringVar(&c.location, "location", "", "Filtra por ubicación (origen o destino).")
	f.StringVar(&c.typ, "type", "", "Filtra por tipo (ENTRADA, SAIDA, AJUSTE, TRANSFERENCIA).")
	f.IntVar(&c.limit, "limit", 0, "Máximo de movimientos (0 = todos).")
}

func (c *movementsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	t := entity.MovementType(c.typ)
	if c.typ != "" && !t.Valid() {
		fmt.Fprintf(os.Stderr, "tipo de movimiento desconocido %q\n", c.typ)
		return subcommands.ExitUsageError
	}
	return c.env.withBackend(ctx, func(b *storage.Backend) error {
		list, err := inventory.NewLedgerQueryUseCase(b.Movements, b.Balances).ListMovements(ctx, repository.MovementFilter{
			BatchID:    c.batch,
			LocationID: c.location,
			Type:       t,
			Limit:      c.limit,
		})
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(c.env.out(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "FECHA\tTIPO\tLOTE\tORIGEN\tDESTINO\tCANTIDAD\tUSUARIO")
		for _, m := range list {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				m.CreatedAt.Format(time.RFC3339), m.Type, m.BatchID,
				dash(m.FromLocationID), dash(m.ToLocationID), m.Quantity.String(), dash(m.UserID))
		}
		return w.Flush()
	})
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
