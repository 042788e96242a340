package inventory

import (
	"context"

	"github.com/jhoicas/labstock/internal/application/dto"
	"github.com/jhoicas/labstock/internal/domain"
	"github.com/jhoicas/labstock/internal/domain/entity"
)

// RegisterMovementFromRequest adapta el request HTTP al caso de uso RegisterMovement(ctx, MovementInput).
// userID sale del token; el request nunca puede fijar la fecha (no es una carga histórica).
func (uc *RegisterMovementUseCase) RegisterMovementFromRequest(ctx context.Context, userID string, in dto.RegisterMovementRequest) (*entity.Movement, error) {
	input := MovementInput{
		BatchID:        in.BatchID,
		Type:           entity.MovementType(in.Type),
		Quantity:       in.Quantity,
		FromLocationID: in.FromLocationID,
		ToLocationID:   in.ToLocationID,
		UserID:         userID,
		Observation:    in.Observation,
	}
	return uc.RegisterMovement(ctx, input)
}

// AdjustToTargetFromRequest adapta el request de ajuste a cantidad objetivo.
// Un target ausente es un error: tratarlo como cero vaciaría el saldo.
func (uc *RegisterMovementUseCase) AdjustToTargetFromRequest(ctx context.Context, userID string, in dto.AdjustTargetRequest) (*entity.Movement, error) {
	if in.Target == nil {
		err := domain.NewValidationError("target", "requerido")
		uc.reject(entity.MovementAjuste, err)
		return nil, err
	}
	return uc.AdjustToTarget(ctx, AdjustTargetInput{
		BatchID:     in.BatchID,
		LocationID:  in.LocationID,
		Target:      *in.Target,
		UserID:      userID,
		Observation: in.Observation,
	})
}
