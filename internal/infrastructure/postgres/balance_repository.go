package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/labstock/internal/domain"
	"github.com/jhoicas/labstock/internal/domain/entity"
	"github.com/jhoicas/labstock/internal/domain/repository"
)

var _ repository.BalanceRepository = (*BalanceRepo)(nil)

// BalanceRepo saldos por lote y ubicación sobre PostgreSQL (usable con pool o tx).
type BalanceRepo struct {
	q Querier
}

// NewBalanceRepository construye el adaptador de saldos. Pasar pool o tx (Querier).
func NewBalanceRepository(q Querier) *BalanceRepo {
	return &BalanceRepo{q: q}
}

const balanceColumns = `id, batch_id, location_id, quantity, last_movement_at`

// Get obtiene el saldo del par; nil si la fila no existe.
func (r *BalanceRepo) Get(ctx context.Context, batchID, locationID string) (*entity.Balance, error) {
	return r.get(ctx, `SELECT `+balanceColumns+` FROM balances WHERE id = $1`, batchID, locationID)
}

// GetForUpdate obtiene el saldo y bloquea la fila para update (SELECT FOR UPDATE).
func (r *BalanceRepo) GetForUpdate(ctx context.Context, batchID, locationID string) (*entity.Balance, error) {
	return r.get(ctx, `SELECT `+balanceColumns+` FROM balances WHERE id = $1 FOR UPDATE`, batchID, locationID)
}

func (r *BalanceRepo) get(ctx context.Context, query, batchID, locationID string) (*entity.Balance, error) {
	b, err := scanBalance(r.q.QueryRow(ctx, query, entity.DeriveBalanceID(batchID, locationID)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get balance: %w", err)
	}
	return b, nil
}

// Insert crea la fila. Si otra transacción la creó antes devuelve domain.ErrConflict.
func (r *BalanceRepo) Insert(ctx context.Context, b *entity.Balance) error {
	query := `
		INSERT INTO balances (` + balanceColumns + `)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.q.Exec(ctx, query, b.ID, b.BatchID, b.LocationID, b.Quantity, b.LastMovementAt); err != nil {
		return conflictOr("insert balance", err)
	}
	return nil
}

// Update reemplaza cantidad y fecha del último movimiento.
func (r *BalanceRepo) Update(ctx context.Context, b *entity.Balance) error {
	query := `UPDATE balances SET quantity = $2, last_movement_at = $3 WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query, b.ID, b.Quantity, b.LastMovementAt)
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("update balance %s: %w", b.ID, domain.ErrNotFound)
	}
	return nil
}

// List lista saldos por lote y/o ubicación.
func (r *BalanceRepo) List(ctx context.Context, f repository.BalanceFilter) ([]*entity.Balance, error) {
	query := `SELECT ` + balanceColumns + ` FROM balances WHERE TRUE`
	var args []any
	if f.BatchID != "" {
		args = append(args, f.BatchID)
		query += fmt.Sprintf(" AND batch_id = $%d", len(args))
	}
	if f.LocationID != "" {
		args = append(args, f.LocationID)
		query += fmt.Sprintf(" AND location_id = $%d", len(args))
	}
	query += " ORDER BY batch_id, location_id"

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list balances: %w", err)
	}
	defer rows.Close()
	var list []*entity.Balance
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

func scanBalance(row pgx.Row) (*entity.Balance, error) {
	var b entity.Balance
	if err := row.Scan(&b.ID, &b.BatchID, &b.LocationID, &b.Quantity, &b.LastMovementAt); err != nil {
		return nil, err
	}
	b.LastMovementAt = b.LastMovementAt.UTC()
	return &b, nil
}
