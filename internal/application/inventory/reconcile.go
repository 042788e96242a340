package inventory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/labstock/internal/domain"
	"github.com/jhoicas/labstock/internal/domain/entity"
	"github.com/jhoicas/labstock/internal/domain/inventory"
	"github.com/jhoicas/labstock/internal/domain/repository"
)

// BalanceDrift diferencia entre el saldo almacenado y el reconstruido desde el log.
// Stored es nil si la fila falta en el almacén; Expected es cero si el log no la justifica.
type BalanceDrift struct {
	BalanceID  string
	BatchID    string
	LocationID string
	Expected   decimal.Decimal
	Stored     *decimal.Decimal
}

// ReconcileReport resultado de la auditoría del ledger.
type ReconcileReport struct {
	Movements    int
	Balances     int
	Matches      int
	Mismatches   []BalanceDrift
	NegativeRows []string // IDs de saldos almacenados con cantidad negativa
	Violations   []string // movimientos que en la reproducción dejarían saldo negativo
}

// Consistent indica que el almacén reproduce exactamente el log.
func (r *ReconcileReport) Consistent() bool {
	return len(r.Mismatches) == 0 && len(r.NegativeRows) == 0 && len(r.Violations) == 0
}

// ReconcileUseCase reproduce el log completo y lo compara con todos los saldos almacenados.
// Es de solo lectura: las correcciones se hacen con movimientos.
type ReconcileUseCase struct {
	txRunner TxRunner
}

// NewReconcileUseCase construye el caso de uso.
func NewReconcileUseCase(txRunner TxRunner) *ReconcileUseCase {
	return &ReconcileUseCase{txRunner: txRunner}
}

// Reconcile lee log y saldos en una misma instantánea.
func (uc *ReconcileUseCase) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	var movements []*entity.Movement
	var stored []*entity.Balance
	err := uc.txRunner.Snapshot(ctx, func(movRepo repository.MovementRepository, balanceRepo repository.BalanceRepository) error {
		var err error
		if movements, err = movRepo.List(ctx, repository.MovementFilter{}); err != nil {
			return err
		}
		stored, err = balanceRepo.List(ctx, repository.BalanceFilter{})
		return err
	})
	if err != nil {
		return nil, domain.NewTransactionError("reconcile", err)
	}

	replay := inventory.Replay(movements)
	report := &ReconcileReport{
		Movements:  len(movements),
		Balances:   len(stored),
		Violations: replay.Violations,
	}
	seen := make(map[string]bool, len(stored))
	for _, b := range stored {
		seen[b.ID] = true
		if b.Quantity.IsNegative() {
			report.NegativeRows = append(report.NegativeRows, b.ID)
		}
		want, ok := replay.Balances[b.ID]
		expected := decimal.Zero
		if ok {
			expected = want.Quantity
		}
		if ok && expected.Equal(b.Quantity) {
			report.Matches++
			continue
		}
		q := b.Quantity
		report.Mismatches = append(report.Mismatches, BalanceDrift{
			BalanceID: b.ID, BatchID: b.BatchID, LocationID: b.LocationID,
			Expected: expected, Stored: &q,
		})
	}
	for id, want := range replay.Balances {
		if seen[id] {
			continue
		}
		report.Mismatches = append(report.Mismatches, BalanceDrift{
			BalanceID: id, BatchID: want.BatchID, LocationID: want.LocationID, Expected: want.Quantity,
		})
	}
	sort.Slice(report.Mismatches, func(i, j int) bool { return report.Mismatches[i].BalanceID < report.Mismatches[j].BalanceID })
	return report, nil
}
