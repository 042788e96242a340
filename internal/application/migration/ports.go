package migration

import (
	"context"

	"github.com/jhoicas/labstock/internal/application/inventory"
	"github.com/jhoicas/labstock/internal/domain/entity"
	"github.com/jhoicas/labstock/internal/domain/repository"
)

// PromotionTxRunner inicia una transacción con los repos del ledger, del catálogo y de los registros V1.
type PromotionTxRunner interface {
	RunPromotion(ctx context.Context, fn func(
		movRepo repository.MovementRepository,
		balanceRepo repository.BalanceRepository,
		catalogRepo repository.CatalogRepository,
		legacyRepo repository.LegacyItemRepository,
	) error) error
}

// MovementRegistrar primitiva del ledger que aplica un movimiento dentro de una tx ajena.
// La implementa *inventory.RegisterMovementUseCase.
type MovementRegistrar interface {
	RegisterInTx(
		ctx context.Context,
		movRepo repository.MovementRepository,
		balanceRepo repository.BalanceRepository,
		input inventory.MovementInput,
	) (*entity.Movement, error)
}
