package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/labstock/internal/domain/entity"
	"github.com/jhoicas/labstock/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo log de movimientos sobre PostgreSQL (usable con pool o tx).
// La tabla solo recibe INSERT; un trigger rechaza UPDATE y DELETE.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

const movementColumns = `id, batch_id, type, quantity, from_location_id, to_location_id, user_id, observation, created_at`

// Append agrega un movimiento al final del log.
func (r *MovementRepo) Append(ctx context.Context, m *entity.Movement) error {
	query := `
		INSERT INTO movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.BatchID, string(m.Type), m.Quantity,
		nullIfEmpty(m.FromLocationID), nullIfEmpty(m.ToLocationID),
		m.UserID, m.Observation, m.CreatedAt,
	)
	if err != nil {
		return conflictOr("append movement", err)
	}
	return nil
}

// GetByID obtiene un movimiento por ID; nil si no existe.
func (r *MovementRepo) GetByID(ctx context.Context, id string) (*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM movements WHERE id = $1`
	m, err := scanMovement(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// List consulta el log en orden de inserción (seq).
func (r *MovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM movements WHERE TRUE`
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		query += fmt.Sprintf(cond, len(args))
	}
	if f.BatchID != "" {
		add(" AND batch_id = $%d", f.BatchID)
	}
	if f.LocationID != "" {
		args = append(args, f.LocationID)
		query += fmt.Sprintf(" AND (from_location_id = $%d OR to_location_id = $%[1]d)", len(args))
	}
	if f.Type != "" {
		add(" AND type = $%d", string(f.Type))
	}
	if f.From != nil {
		add(" AND created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add(" AND created_at <= $%d", *f.To)
	}
	query += " ORDER BY seq"
	if f.Limit > 0 {
		add(" LIMIT $%d", f.Limit)
	}
	if f.Offset > 0 {
		add(" OFFSET $%d", f.Offset)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func scanMovement(row pgx.Row) (*entity.Movement, error) {
	var m entity.Movement
	var typ string
	var from, to *string
	if err := row.Scan(&m.ID, &m.BatchID, &typ, &m.Quantity, &from, &to, &m.UserID, &m.Observation, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.Type = entity.MovementType(typ)
	m.FromLocationID, m.ToLocationID = deref(from), deref(to)
	m.CreatedAt = m.CreatedAt.UTC()
	return &m, nil
}
