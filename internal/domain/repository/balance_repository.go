package repository

import (
	"context"

	"github.com/jhoicas/labstock/internal/domain/entity"
)

// BalanceFilter criterios de consulta de saldos. Campos vacíos no filtran.
type BalanceFilter struct {
	BatchID    string
	LocationID string
}

// BalanceRepository define el puerto para consultar/actualizar saldos por lote+ubicación.
// Las escrituras solo ocurren dentro de la transacción del ledger.
type BalanceRepository interface {
	// Get devuelve nil, nil si no existe la fila.
	Get(ctx context.Context, batchID, locationID string) (*entity.Balance, error)
	// GetForUpdate igual que Get pero bloquea la fila hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, batchID, locationID string) (*entity.Balance, error)
	// Insert crea la fila; domain.ErrConflict si ya existe una para la misma clave.
	Insert(ctx context.Context, balance *entity.Balance) error
	Update(ctx context.Context, balance *entity.Balance) error
	List(ctx context.Context, filter BalanceFilter) ([]*entity.Balance, error)
}
