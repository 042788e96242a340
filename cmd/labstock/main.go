package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"

	"github.com/jhoicas/labstock/internal/infrastructure/storage"
	"github.com/jhoicas/labstock/internal/interfaces/cli"
	"github.com/jhoicas/labstock/pkg/config"
	"github.com/jhoicas/labstock/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: "labstock-cli",
		Out:     os.Stderr,
	})

	env := &cli.Env{
		Open: func(ctx context.Context) (*storage.Backend, error) {
			return storage.Open(ctx, cfg.DB, log.Component("storage"))
		},
		Log:       log.Component("cli"),
		ChunkSize: cfg.Migration.ChunkSize,
	}

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	for _, c := range cli.Commands(env) {
		commander.Register(c, "ledger")
	}

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
