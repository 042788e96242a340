package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/labstock/internal/application/inventory"
	"github.com/jhoicas/labstock/internal/domain/entity"
	"github.com/jhoicas/labstock/internal/domain/repository"
)

func TestReconcile_LedgerConsistente(t *testing.T) {
	ctx := context.Background()
	uc, store := newLedger()
	_, err := uc.RegisterMovement(ctx, entrada("B1", "L1", "100"))
	require.NoError(t, err)
	_, err = uc.RegisterMovement(ctx, saida("B1", "L1", "30"))
	require.NoError(t, err)
	_, err = uc.RegisterMovement(ctx, inventory.MovementInput{
		BatchID: "B1", Type: entity.MovementTransferencia, Quantity: qty("50"), FromLocationID: "L1", ToLocationID: "L2",
	})
	require.NoError(t, err)
	_, err = uc.RegisterMovement(ctx, entrada("B2", "L2", "1.25"))
	require.NoError(t, err)

	report, err := inventory.NewReconcileUseCase(store).Reconcile(ctx)
	require.NoError(t, err)
	assert.True(t, report.Consistent())
	assert.Equal(t, 4, report.Movements)
	assert.Equal(t, 3, report.Balances)
	assert.Equal(t, 3, report.Matches)
}

func TestReconcile_DetectaDeriva(t *testing.T) {
	ctx := context.Background()
	uc, store := newLedger()
	_, err := uc.RegisterMovement(ctx, entrada("B1", "L1", "10"))
	require.NoError(t, err)

	// Corrupción directa del almacén de saldos, por fuera del ledger.
	b := balanceOf(t, store, "B1", "L1")
	b.Quantity = qty("-2")
	require.NoError(t, store.Balances().Update(ctx, b))
	orphan := entity.Balance{ID: entity.DeriveBalanceID("B9", "L9"), BatchID: "B9", LocationID: "L9", Quantity: qty("4")}
	require.NoError(t, store.Balances().Insert(ctx, &orphan))

	report, err := inventory.NewReconcileUseCase(store).Reconcile(ctx)
	require.NoError(t, err)
	assert.False(t, report.Consistent())
	assert.Equal(t, []string{b.ID}, report.NegativeRows)
	require.Len(t, report.Mismatches, 2)
	for _, d := range report.Mismatches {
		require.NotNil(t, d.Stored)
		switch d.BalanceID {
		case b.ID:
			assert.True(t, d.Expected.Equal(qty("10")))
		case orphan.ID:
			assert.True(t, d.Expected.IsZero(), "el log no justifica la fila")
		default:
			t.Fatalf("deriva inesperada %s", d.BalanceID)
		}
	}

	// La auditoría no corrige nada.
	assert.True(t, balanceOf(t, store, "B1", "L1").Quantity.Equal(qty("-2")))
}

func TestLedgerQuery_Filtros(t *testing.T) {
	ctx := context.Background()
	uc, store := newLedger()
	_, err := uc.RegisterMovement(ctx, entrada("B1", "L1", "10"))
	require.NoError(t, err)
	_, err = uc.RegisterMovement(ctx, entrada("B2", "L2", "10"))
	require.NoError(t, err)
	_, err = uc.RegisterMovement(ctx, inventory.MovementInput{
		BatchID: "B1", Type: entity.MovementTransferencia, Quantity: qty("4"), FromLocationID: "L1", ToLocationID: "L2",
	})
	require.NoError(t, err)

	q := inventory.NewLedgerQueryUseCase(store.Movements(), store.Balances())

	byLoc, err := q.ListMovements(ctx, repository.MovementFilter{LocationID: "L2"})
	require.NoError(t, err)
	assert.Len(t, byLoc, 2, "coincide con origen o destino")

	byBatch, err := q.ListMovements(ctx, repository.MovementFilter{BatchID: "B1"})
	require.NoError(t, err)
	require.Len(t, byBatch, 2)
	assert.Equal(t, entity.MovementEntrada, byBatch[0].Type, "orden de inserción")

	page, err := q.ListMovements(ctx, repository.MovementFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "B2", page[0].BatchID)

	balances, err := q.ListBalances(ctx, repository.BalanceFilter{LocationID: "L2"})
	require.NoError(t, err)
	assert.Len(t, balances, 2)

	missing, err := q.GetBalance(ctx, "B2", "L1")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
