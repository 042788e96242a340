// Package cli comandos de operación del ledger (google/subcommands).
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"
	"github.com/rs/zerolog"

	"github.com/jhoicas/labstock/internal/infrastructure/storage"
)

// Env lo que necesitan los comandos. Open se llama una vez por ejecución.
type Env struct {
	Open      func(ctx context.Context) (*storage.Backend, error)
	Out       io.Writer
	Log       zerolog.Logger
	ChunkSize int
}

// Commands devuelve los comandos a registrar en el Commander.
func Commands(env *Env) []subcommands.Command {
	return []subcommands.Command{
		&migrateCmd{env: env},
		&reconcileCmd{env: env},
		&balanceCmd{env: env},
		&movementsCmd{env: env},
	}
}

func (e *Env) out() io.Writer {
	if e.Out == nil {
		return os.Stdout
	}
	return e.Out
}

// withBackend abre el almacén, ejecuta fn y lo cierra.
func (e *Env) withBackend(ctx context.Context, fn func(b *storage.Backend) error) subcommands.ExitStatus {
	b, err := e.Open(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer b.Close()
	if err := fn(b); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
