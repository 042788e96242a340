package sqlite_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/labstock/internal/application/inventory"
	"github.com/jhoicas/labstock/internal/application/migration"
	"github.com/jhoicas/labstock/internal/domain"
	"github.com/jhoicas/labstock/internal/domain/entity"
	"github.com/jhoicas/labstock/internal/domain/repository"
	"github.com/jhoicas/labstock/internal/infrastructure/sqlite"
)

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestSQLite_LedgerDeExtremoAExtremo(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	uc := inventory.NewRegisterMovementUseCase(store)

	_, err := uc.RegisterMovement(ctx, inventory.MovementInput{BatchID: "B1", Type: entity.MovementEntrada, Quantity: dec("100.5"), ToLocationID: "L1"})
	require.NoError(t, err)
	_, err = uc.RegisterMovement(ctx, inventory.MovementInput{BatchID: "B1", Type: entity.MovementTransferencia, Quantity: dec("50"), FromLocationID: "L1", ToLocationID: "L2"})
	require.NoError(t, err)
	_, err = uc.RegisterMovement(ctx, inventory.MovementInput{BatchID: "B1", Type: entity.MovementSaida, Quantity: dec("60"), FromLocationID: "L1"})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	l1, err := store.Balances().Get(ctx, "B1", "L1")
	require.NoError(t, err)
	require.NotNil(t, l1)
	assert.True(t, l1.Quantity.Equal(dec("50.5")))

	movs, err := store.Movements().List(ctx, repository.MovementFilter{LocationID: "L2"})
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, entity.MovementTransferencia, movs[0].Type)
	assert.Equal(t, "L1", movs[0].FromLocationID)

	report, err := inventory.NewReconcileUseCase(store).Reconcile(ctx)
	require.NoError(t, err)
	assert.True(t, report.Consistent())
	assert.Equal(t, 2, report.Matches)
}

func TestSQLite_InsertDuplicadoEsConflicto(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	b := entity.Balance{ID: entity.DeriveBalanceID("B1", "L1"), BatchID: "B1", LocationID: "L1", Quantity: dec("1"), LastMovementAt: time.Now()}
	require.NoError(t, store.Balances().Insert(ctx, &b))
	assert.ErrorIs(t, store.Balances().Insert(ctx, &b), domain.ErrConflict)
}

func TestSQLite_FiltroPorFechaYPaginacion(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		m := entity.Movement{
			ID: string(rune('a' + i)), BatchID: "B1", Type: entity.MovementEntrada, Quantity: dec("1"),
			ToLocationID: "L1", CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, store.Movements().Append(ctx, &m))
	}
	from := base.Add(90 * time.Minute)
	list, err := store.Movements().List(ctx, repository.MovementFilter{From: &from})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "c", list[0].ID)

	page, err := store.Movements().List(ctx, repository.MovementFilter{Offset: 4})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "e", page[0].ID)
}

func TestSQLite_PromocionIdempotente(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	acquired := time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.LegacyItems().Create(ctx, &entity.LegacyItem{
		ID: "7", SAPCode: "S7", Name: "Tolueno", ItemStatus: "Ativo", Quantity: dec("3"),
		Warehouse: "Depósito", DateAcquired: &acquired,
	}))

	promote := migration.NewPromoteUseCase(store, inventory.NewRegisterMovementUseCase(store), 10, zerolog.Nop())
	first, err := promote.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Promoted)

	second, err := promote.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, second.Promoted)

	item, err := store.LegacyItems().Get(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, entity.LegacyBatchID("7"), item.BatchID)

	batch, err := store.Catalog().GetBatch(ctx, item.BatchID)
	require.NoError(t, err)
	require.NotNil(t, batch)
	assert.Equal(t, acquired, batch.CreatedAt)

	bal, err := store.Balances().Get(ctx, item.BatchID, item.LocationID)
	require.NoError(t, err)
	assert.True(t, bal.Quantity.Equal(dec("3")))
}

func TestSQLite_PromocionRespetaEnlacesPrevios(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	require.NoError(t, store.LegacyItems().Create(ctx, &entity.LegacyItem{
		ID: "I1", SAPCode: "S1", Name: "Acetonitrilo", ItemStatus: "Ativo", Quantity: dec("4"),
		Warehouse: "Depósito", CatalogID: "CAT-EXISTENTE", LocationID: "LOC-EXISTENTE",
	}))

	report, err := migration.NewPromoteUseCase(store, inventory.NewRegisterMovementUseCase(store), 10, zerolog.Nop()).Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.Promoted)

	item, err := store.LegacyItems().Get(ctx, "I1")
	require.NoError(t, err)
	assert.Equal(t, "CAT-EXISTENTE", item.CatalogID, "el enlace de catálogo previo no se re-deriva")
	assert.Equal(t, "LOC-EXISTENTE", item.LocationID)

	bal, err := store.Balances().Get(ctx, item.BatchID, "LOC-EXISTENTE")
	require.NoError(t, err)
	require.NotNil(t, bal)
	assert.True(t, bal.Quantity.Equal(dec("4")))
}

func TestSQLite_FechaCorruptaEsError(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")
	store, err := sqlite.Open(path)
	require.NoError(t, err)
	defer store.Close()

	_, err = inventory.NewRegisterMovementUseCase(store).RegisterMovement(ctx, inventory.MovementInput{
		BatchID: "B1", Type: entity.MovementEntrada, Quantity: dec("1"), ToLocationID: "L1",
	})
	require.NoError(t, err)

	raw, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	require.NoError(t, err)
	defer raw.Close()
	_, err = raw.ExecContext(ctx, `UPDATE balances SET last_movement_at = 'ayer'`)
	require.NoError(t, err)

	_, err = store.Balances().Get(ctx, "B1", "L1")
	require.Error(t, err, "una fecha ilegible no puede convertirse en cero en silencio")
	assert.Contains(t, err.Error(), "fecha almacenada inválida")
}
