package migration_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/labstock/internal/application/inventory"
	"github.com/jhoicas/labstock/internal/application/migration"
	"github.com/jhoicas/labstock/internal/domain/entity"
	"github.com/jhoicas/labstock/internal/domain/repository"
	"github.com/jhoicas/labstock/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

var acquired = time.Date(2023, 5, 2, 0, 0, 0, 0, time.UTC)

func seed(t *testing.T, store *memory.Store, items ...entity.LegacyItem) {
	t.Helper()
	for i := range items {
		require.NoError(t, store.LegacyItems().Create(context.Background(), &items[i]))
	}
}

func legacy(id, name, warehouse, q string) entity.LegacyItem {
	updated := acquired.Add(24 * time.Hour)
	return entity.LegacyItem{
		ID:           id,
		SAPCode:      "SAP-" + id,
		Name:         name,
		ItemStatus:   "Ativo",
		LotNumber:    "L-" + id,
		DateAcquired: &acquired,
		LastUpdated:  &updated,
		UnitCost:     decimal.RequireFromString("12.50"),
		Quantity:     decimal.RequireFromString(q),
		Warehouse:    warehouse,
		Cabinet:      "A1",
		Shelf:        "P3",
	}
}

func newPromote(store *memory.Store, chunk int, ledger migration.MovementRegistrar) *migration.PromoteUseCase {
	if ledger == nil {
		ledger = inventory.NewRegisterMovementUseCase(store)
	}
	return migration.NewPromoteUseCase(store, ledger, chunk, zerolog.Nop())
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestPromote_CreaCatalogoLoteUbicacionYSaldo(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	seed(t, store, legacy("1", "  Acetona   PA ", "Almoxarifado Central", "12"))

	report, err := newPromote(store, 0, nil).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Promoted)
	assert.Zero(t, report.Failed)

	item, err := store.LegacyItems().Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, entity.DeriveCatalogID("SAP-1", "  Acetona   PA "), item.CatalogID)
	assert.Equal(t, entity.LegacyBatchID("1"), item.BatchID)
	assert.Equal(t, entity.DeriveLocationID("Almoxarifado Central"), item.LocationID)

	product, err := store.Catalog().GetProduct(ctx, item.CatalogID)
	require.NoError(t, err)
	require.NotNil(t, product)
	assert.Equal(t, "Acetona PA", product.Name)
	assert.Equal(t, "UN", product.BaseUnit)

	batch, err := store.Catalog().GetBatch(ctx, item.BatchID)
	require.NoError(t, err)
	require.NotNil(t, batch)
	assert.Equal(t, entity.BatchStatusActive, batch.Status)
	assert.Equal(t, acquired, batch.CreatedAt)
	assert.Equal(t, "BRL", batch.Currency)

	loc, err := store.Catalog().GetLocation(ctx, item.LocationID)
	require.NoError(t, err)
	require.NotNil(t, loc)
	assert.Equal(t, "A1 P3", loc.PathString)

	bal, err := store.Balances().Get(ctx, item.BatchID, item.LocationID)
	require.NoError(t, err)
	require.NotNil(t, bal)
	assert.True(t, bal.Quantity.Equal(decimal.NewFromInt(12)))

	movs, err := store.Movements().List(ctx, repository.MovementFilter{BatchID: item.BatchID})
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, entity.MovementEntrada, movs[0].Type)
	assert.Equal(t, migration.SystemUserID, movs[0].UserID)
	assert.Equal(t, migration.MigrationNote, movs[0].Observation)
	assert.Equal(t, acquired.Add(24*time.Hour), movs[0].CreatedAt)
}

func TestPromote_EsIdempotente(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	seed(t, store, legacy("1", "Etanol", "", "5"), legacy("2", "Metanol", "", "0"))

	first, err := newPromote(store, 0, nil).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Promoted)

	second, err := newPromote(store, 0, nil).Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, second.Scanned)
	assert.Zero(t, second.Promoted)

	movs, err := store.Movements().List(ctx, repository.MovementFilter{})
	require.NoError(t, err)
	assert.Len(t, movs, 1, "cantidad cero no genera movimiento y la re-ejecución no duplica")

	item, err := store.LegacyItems().Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, entity.DeriveLocationID(entity.DefaultLocationName), item.LocationID, "sin bodega va a Geral")
}

func TestPromote_EstadosV1(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	blocked := legacy("1", "Ácido", "", "1")
	blocked.ItemStatus = "Bloqueado"
	quarantine := legacy("2", "Base", "", "1")
	quarantine.ItemStatus = "Quarentena"
	obsolete := legacy("3", "Sal", "", "1")
	obsolete.ItemStatus = "Obsoleto"
	seed(t, store, blocked, quarantine, obsolete)

	_, err := newPromote(store, 0, nil).Run(ctx)
	require.NoError(t, err)

	b1, _ := store.Catalog().GetBatch(ctx, entity.LegacyBatchID("1"))
	b2, _ := store.Catalog().GetBatch(ctx, entity.LegacyBatchID("2"))
	assert.Equal(t, entity.BatchStatusBlocked, b1.Status)
	assert.Equal(t, entity.BatchStatusQuarantine, b2.Status)
	p3, _ := store.Catalog().GetProduct(ctx, entity.DeriveCatalogID("SAP-3", "Sal"))
	require.NotNil(t, p3)
	assert.False(t, p3.IsActive)
}

// failingLedger falla para un lote concreto y delega el resto.
type failingLedger struct {
	inner   migration.MovementRegistrar
	batchID string
}

func (f failingLedger) RegisterInTx(
	ctx context.Context,
	movRepo repository.MovementRepository,
	balanceRepo repository.BalanceRepository,
	in inventory.MovementInput,
) (*entity.Movement, error) {
	if in.BatchID == f.batchID {
		return nil, errors.New("fallo simulado")
	}
	return f.inner.RegisterInTx(ctx, movRepo, balanceRepo, in)
}

func TestPromote_ItemFallidoNoBloqueaElBloque(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	for i := 1; i <= 5; i++ {
		seed(t, store, legacy(fmt.Sprintf("%02d", i), fmt.Sprintf("Reactivo %d", i), "Lab", "2"))
	}
	ledger := failingLedger{inner: inventory.NewRegisterMovementUseCase(store), batchID: entity.LegacyBatchID("02")}

	report, err := newPromote(store, 2, ledger).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, report.Promoted)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "02", report.Errors[0].ItemID)

	failed, err := store.LegacyItems().Get(ctx, "02")
	require.NoError(t, err)
	assert.Empty(t, failed.BatchID, "queda pendiente para la próxima ejecución")
	p, _ := store.Catalog().GetProduct(ctx, entity.DeriveCatalogID("SAP-02", "Reactivo 2"))
	assert.Nil(t, p, "el bloque se revirtió antes de reintentarse sin el item")

	movs, err := store.Movements().List(ctx, repository.MovementFilter{})
	require.NoError(t, err)
	assert.Len(t, movs, 4)

	// Una vez corregida la causa, la siguiente ejecución lo promueve.
	again, err := newPromote(store, 2, nil).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, again.Promoted)
}

func TestPromote_NoPisaSaldoExistente(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	item := legacy("1", "Etanol", "Lab", "5")
	seed(t, store, item)

	uc := inventory.NewRegisterMovementUseCase(store)
	_, err := uc.RegisterMovement(ctx, inventory.MovementInput{
		BatchID: entity.LegacyBatchID("1"), Type: entity.MovementEntrada,
		Quantity: decimal.NewFromInt(40), ToLocationID: entity.DeriveLocationID("Lab"),
	})
	require.NoError(t, err)

	_, err = newPromote(store, 0, nil).Run(ctx)
	require.NoError(t, err)

	bal, err := store.Balances().Get(ctx, entity.LegacyBatchID("1"), entity.DeriveLocationID("Lab"))
	require.NoError(t, err)
	assert.True(t, bal.Quantity.Equal(decimal.NewFromInt(40)))
}
