package inventory

import (
	"context"
	"fmt"

	"github.com/jhoicas/labstock/internal/domain/entity"
	"github.com/jhoicas/labstock/internal/domain/repository"
)

// LedgerQueryUseCase lecturas de saldos e historial. Va directo a los almacenes, sin pasar por el ledger.
type LedgerQueryUseCase struct {
	movRepo     repository.MovementRepository
	balanceRepo repository.BalanceRepository
}

// NewLedgerQueryUseCase construye el caso de uso.
func NewLedgerQueryUseCase(movRepo repository.MovementRepository, balanceRepo repository.BalanceRepository) *LedgerQueryUseCase {
	return &LedgerQueryUseCase{movRepo: movRepo, balanceRepo: balanceRepo}
}

// GetBalance devuelve el saldo del par o nil si nunca hubo stock en esa ubicación.
func (uc *LedgerQueryUseCase) GetBalance(ctx context.Context, batchID, locationID string) (*entity.Balance, error) {
	b, err := uc.balanceRepo.Get(ctx, batchID, locationID)
	if err != nil {
		return nil, fmt.Errorf("get balance: %w", err)
	}
	return b, nil
}

// ListBalances lista saldos por lote y/o ubicación.
func (uc *LedgerQueryUseCase) ListBalances(ctx context.Context, filter repository.BalanceFilter) ([]*entity.Balance, error) {
	list, err := uc.balanceRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list balances: %w", err)
	}
	return list, nil
}

// ListMovements consulta el log en orden de inserción.
func (uc *LedgerQueryUseCase) ListMovements(ctx context.Context, filter repository.MovementFilter) ([]*entity.Movement, error) {
	if filter.Limit < 0 || filter.Offset < 0 {
		filter.Limit, filter.Offset = 0, 0
	}
	list, err := uc.movRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return list, nil
}
