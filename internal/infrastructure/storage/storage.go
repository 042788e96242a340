// Package storage elige el backend de persistencia según DB_DRIVER y expone los puertos ya construidos.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/jhoicas/labstock/internal/application/inventory"
	"github.com/jhoicas/labstock/internal/application/migration"
	"github.com/jhoicas/labstock/internal/domain/repository"
	"github.com/jhoicas/labstock/internal/infrastructure/memory"
	"github.com/jhoicas/labstock/internal/infrastructure/postgres"
	"github.com/jhoicas/labstock/internal/infrastructure/sqlite"
	"github.com/jhoicas/labstock/pkg/config"
)

// TxRunner lo cumplen los tres backends.
type TxRunner interface {
	inventory.TxRunner
	migration.PromotionTxRunner
}

// Backend puertos de persistencia listos para inyectar en los casos de uso.
type Backend struct {
	Driver      string
	TxRunner    TxRunner
	Movements   repository.MovementRepository
	Balances    repository.BalanceRepository
	Catalog     repository.CatalogRepository
	LegacyItems repository.LegacyItemRepository
	close       func()
}

// Close libera conexiones. Seguro de llamar más de una vez.
func (b *Backend) Close() {
	if b.close != nil {
		b.close()
		b.close = nil
	}
}

// Open abre el backend configurado y asegura el esquema.
func Open(ctx context.Context, cfg config.DBConfig, log zerolog.Logger) (*Backend, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("esquema PostgreSQL: %w", err)
		}
		log.Info().Int32("max_conns", pool.Config().MaxConns).Msg("almacén PostgreSQL listo")
		return &Backend{
			Driver:      cfg.Driver,
			TxRunner:    postgres.NewTxRunner(pool),
			Movements:   postgres.NewMovementRepository(pool),
			Balances:    postgres.NewBalanceRepository(pool),
			Catalog:     postgres.NewCatalogRepository(pool),
			LegacyItems: postgres.NewLegacyItemRepository(pool),
			close:       pool.Close,
		}, nil

	case config.DriverSQLite:
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("directorio SQLite: %w", err)
			}
		}
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", cfg.SQLitePath).Msg("almacén SQLite listo")
		return &Backend{
			Driver:      cfg.Driver,
			TxRunner:    store,
			Movements:   store.Movements(),
			Balances:    store.Balances(),
			Catalog:     store.Catalog(),
			LegacyItems: store.LegacyItems(),
			close: func() {
				if err := store.Close(); err != nil {
					log.Error().Err(err).Msg("cerrar SQLite")
				}
			},
		}, nil

	case config.DriverMemory:
		log.Warn().Msg("almacén en memoria: los datos se pierden al reiniciar")
		return FromMemory(memory.New()), nil
	}
	return nil, fmt.Errorf("DB_DRIVER desconocido: %q", cfg.Driver)
}

// FromMemory envuelve un almacén en memoria existente.
func FromMemory(store *memory.Store) *Backend {
	return &Backend{
		Driver:      config.DriverMemory,
		TxRunner:    store,
		Movements:   store.Movements(),
		Balances:    store.Balances(),
		Catalog:     store.Catalog(),
		LegacyItems: store.LegacyItems(),
	}
}
