package repository

import (
	"context"
	"time"

	"github.com/jhoicas/labstock/internal/domain/entity"
)

// MovementFilter criterios de consulta del log. Campos vacíos no filtran.
// LocationID coincide tanto con el origen como con el destino.
type MovementFilter struct {
	BatchID    string
	LocationID string
	Type       entity.MovementType
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// MovementRepository puerto del log de movimientos. Solo agrega: no hay Update ni Delete.
// List devuelve en orden de inserción ascendente (no por CreatedAt: una carga histórica puede llevar fecha anterior).
type MovementRepository interface {
	Append(ctx context.Context, movement *entity.Movement) error
	GetByID(ctx context.Context, id string) (*entity.Movement, error)
	List(ctx context.Context, filter MovementFilter) ([]*entity.Movement, error)
}
