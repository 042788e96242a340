package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/labstock/internal/domain/entity"
	"github.com/jhoicas/labstock/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción del almacén, pasando repositorios atados a esa tx.
// Garantiza atomicidad para el ledger: si fn devuelve error no queda ningún efecto visible.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		movRepo repository.MovementRepository,
		balanceRepo repository.BalanceRepository,
	) error) error

	// Snapshot ejecuta fn en una transacción de solo lectura con una vista consistente de ambos almacenes.
	Snapshot(ctx context.Context, fn func(
		movRepo repository.MovementRepository,
		balanceRepo repository.BalanceRepository,
	) error) error
}

// CatalogResolver valida la identidad de lote y ubicaciones antes de registrar un movimiento.
// Devuelve domain.ErrNotFound si alguno no existe.
type CatalogResolver interface {
	ResolveMovement(ctx context.Context, batchID string, locationIDs ...string) error
}

// MovementPublisher publica un movimiento ya confirmado (fuera de la transacción).
type MovementPublisher interface {
	Publish(ctx context.Context, movement *entity.Movement) error
}

// Recorder recibe métricas del ledger.
type Recorder interface {
	MovementCommitted(movementType entity.MovementType, elapsed time.Duration)
	MovementRejected(movementType entity.MovementType, reason string)
	PublishFailed()
}

// Clock fuente de la hora por defecto de los movimientos.
type Clock interface {
	Now() time.Time
}

// SystemClock reloj del sistema en UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, *entity.Movement) error { return nil }

type nopRecorder struct{}

func (nopRecorder) MovementCommitted(entity.MovementType, time.Duration) {}
func (nopRecorder) MovementRejected(entity.MovementType, string)        {}
func (nopRecorder) PublishFailed()                                      {}
