package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/labstock/internal/application/inventory"
	"github.com/jhoicas/labstock/internal/application/migration"
	"github.com/jhoicas/labstock/internal/domain/repository"
)

var (
	_ inventory.TxRunner          = (*TxRunner)(nil)
	_ migration.PromotionTxRunner = (*TxRunner)(nil)
)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Los saldos se bloquean con SELECT ... FOR UPDATE dentro de fn.
func (r *TxRunner) Run(ctx context.Context, fn func(
	movRepo repository.MovementRepository,
	balanceRepo repository.BalanceRepository,
) error) error {
	return r.inTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return fn(NewMovementRepository(tx), NewBalanceRepository(tx))
	})
}

// Snapshot transacción REPEATABLE READ de solo lectura: log y saldos se leen en la misma instantánea.
func (r *TxRunner) Snapshot(ctx context.Context, fn func(
	movRepo repository.MovementRepository,
	balanceRepo repository.BalanceRepository,
) error) error {
	opts := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
	return r.inTx(ctx, opts, func(tx pgx.Tx) error {
		return fn(NewMovementRepository(tx), NewBalanceRepository(tx))
	})
}

// RunPromotion inicia una transacción con repos del ledger, catálogo y registros V1 (para la migración).
func (r *TxRunner) RunPromotion(ctx context.Context, fn func(
	movRepo repository.MovementRepository,
	balanceRepo repository.BalanceRepository,
	catalogRepo repository.CatalogRepository,
	legacyRepo repository.LegacyItemRepository,
) error) error {
	return r.inTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return fn(
			NewMovementRepository(tx),
			NewBalanceRepository(tx),
			NewCatalogRepository(tx),
			NewLegacyItemRepository(tx),
		)
	})
}

func (r *TxRunner) inTx(ctx context.Context, opts pgx.TxOptions, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
