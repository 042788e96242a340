package migration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/labstock/internal/application/inventory"
	"github.com/jhoicas/labstock/internal/domain"
	"github.com/jhoicas/labstock/internal/domain/entity"
	"github.com/jhoicas/labstock/internal/domain/repository"
)

// Valores fijos de la promoción V1 -> V2.
const (
	DefaultChunkSize    = 200
	SystemUserID        = "SYSTEM"
	MigrationNote       = "Migração Automática V1->V2"
	legacyObsolete      = "Obsoleto"
	legacyBlocked       = "Bloqueado"
	legacyQuarantine    = "Quarentena"
	defaultCurrency     = "BRL"
	defaultBaseUnit     = "UN"
	defaultLocationType = "WAREHOUSE"
)

// ItemError fallo al promover un item; el item queda sin enlazar y se reintenta en la próxima ejecución.
type ItemError struct {
	ItemID string
	Err    error
}

// PromotionReport resultado de una ejecución.
type PromotionReport struct {
	Scanned  int
	Promoted int
	Failed   int
	Errors   []ItemError
}

// PromoteUseCase promueve registros planos V1 al ledger relacional. Es idempotente por item:
// solo toma items sin BatchID y al terminar escribe los enlaces derivados sobre el item.
type PromoteUseCase struct {
	txRunner  PromotionTxRunner
	ledger    MovementRegistrar
	chunkSize int
	now       func() time.Time
	log       zerolog.Logger
}

// NewPromoteUseCase construye el caso de uso. chunkSize <= 0 usa DefaultChunkSize.
func NewPromoteUseCase(txRunner PromotionTxRunner, ledger MovementRegistrar, chunkSize int, log zerolog.Logger) *PromoteUseCase {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &PromoteUseCase{
		txRunner:  txRunner,
		ledger:    ledger,
		chunkSize: chunkSize,
		now:       func() time.Time { return time.Now().UTC() },
		log:       log,
	}
}

// Run recorre los items sin enlazar en bloques. Cada bloque es una transacción: si un item falla el
// bloque se revierte, el item se aparta y el bloque se reintenta sin él.
func (uc *PromoteUseCase) Run(ctx context.Context) (*PromotionReport, error) {
	report := &PromotionReport{}
	failed := make(map[string]bool)
	cursor := ""

	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		var (
			scanned  int
			promoted int
			lastID   string
			itemErr  *ItemError
		)
		err := uc.txRunner.RunPromotion(ctx, func(
			movRepo repository.MovementRepository,
			balanceRepo repository.BalanceRepository,
			catalogRepo repository.CatalogRepository,
			legacyRepo repository.LegacyItemRepository,
		) error {
			scanned, promoted, lastID, itemErr = 0, 0, "", nil
			items, err := legacyRepo.ListUnlinked(ctx, cursor, uc.chunkSize)
			if err != nil {
				return err
			}
			for _, item := range items {
				scanned++
				lastID = item.ID
				if failed[item.ID] {
					continue
				}
				if err := uc.promoteItem(ctx, movRepo, balanceRepo, catalogRepo, legacyRepo, item); err != nil {
					itemErr = &ItemError{ItemID: item.ID, Err: err}
					return err
				}
				promoted++
			}
			return nil
		})
		if itemErr != nil {
			failed[itemErr.ItemID] = true
			report.Failed++
			report.Errors = append(report.Errors, *itemErr)
			uc.log.Error().Err(itemErr.Err).Str("item_id", itemErr.ItemID).Msg("[migración] item no promovido")
			continue
		}
		if err != nil {
			return report, fmt.Errorf("promote chunk after %q: %w", cursor, err)
		}
		report.Scanned += scanned
		report.Promoted += promoted
		if scanned < uc.chunkSize {
			break
		}
		cursor = lastID
	}

	if report.Promoted > 0 {
		uc.log.Info().Int("promoted", report.Promoted).Int("failed", report.Failed).Msg("[migración] completada")
	}
	return report, nil
}

func (uc *PromoteUseCase) promoteItem(
	ctx context.Context,
	movRepo repository.MovementRepository,
	balanceRepo repository.BalanceRepository,
	catalogRepo repository.CatalogRepository,
	legacyRepo repository.LegacyItemRepository,
	item *entity.LegacyItem,
) error {
	now := uc.now()

	catalogID := item.CatalogID
	if catalogID == "" {
		catalogID = entity.DeriveCatalogID(item.SAPCode, item.Name)
	}
	batchID := item.BatchID
	if batchID == "" {
		batchID = entity.LegacyBatchID(item.ID)
	}
	locName := entity.NormalizeName(item.Warehouse)
	if locName == "" {
		locName = entity.DefaultLocationName
	}
	locationID := item.LocationID
	if locationID == "" {
		locationID = entity.DeriveLocationID(locName)
	}

	// Catálogo: put para que la última ejecución gane.
	baseUnit := item.BaseUnit
	if baseUnit == "" {
		baseUnit = defaultBaseUnit
	}
	if err := catalogRepo.PutProduct(ctx, &entity.CatalogProduct{
		ID:            catalogID,
		SAPCode:       item.SAPCode,
		Name:          entity.NormalizeName(item.Name),
		CategoryID:    item.Category,
		BaseUnit:      baseUnit,
		CASNumber:     item.CASNumber,
		IsControlled:  item.IsControlled,
		MinStockLevel: item.MinStockLevel,
		IsActive:      item.ItemStatus != legacyObsolete,
		UpdatedAt:     now,
	}); err != nil {
		return fmt.Errorf("put product: %w", err)
	}

	currency := strings.ToUpper(strings.TrimSpace(item.Currency))
	if currency == "" {
		currency = defaultCurrency
	}
	createdAt := now
	if item.DateAcquired != nil {
		createdAt = item.DateAcquired.UTC()
	}
	if err := catalogRepo.PutBatch(ctx, &entity.Batch{
		ID:         batchID,
		CatalogID:  catalogID,
		LotNumber:  item.LotNumber,
		ExpiryDate: item.ExpiryDate,
		Status:     batchStatus(item.ItemStatus),
		UnitCost:   item.UnitCost,
		Currency:   currency,
		CreatedAt:  createdAt,
	}); err != nil {
		return fmt.Errorf("put batch: %w", err)
	}

	loc, err := catalogRepo.GetLocation(ctx, locationID)
	if err != nil {
		return fmt.Errorf("get location: %w", err)
	}
	if loc == nil {
		err := catalogRepo.CreateLocation(ctx, &entity.StorageLocation{
			ID:         locationID,
			Name:       locName,
			Type:       defaultLocationType,
			PathString: strings.TrimSpace(item.Cabinet + " " + item.Shelf),
			IsActive:   true,
		})
		if err != nil && !errors.Is(err, domain.ErrConflict) {
			return fmt.Errorf("create location: %w", err)
		}
	}

	// Saldo inicial: solo si no existe, para no pisar datos más recientes en una re-ejecución.
	if item.Quantity.IsPositive() {
		existing, err := balanceRepo.Get(ctx, batchID, locationID)
		if err != nil {
			return fmt.Errorf("get balance: %w", err)
		}
		if existing == nil {
			in := inventory.MovementInput{
				BatchID:      batchID,
				Type:         entity.MovementEntrada,
				Quantity:     item.Quantity,
				ToLocationID: locationID,
				UserID:       SystemUserID,
				Observation:  MigrationNote,
				Backfill:     true,
			}
			if item.LastUpdated != nil {
				at := *item.LastUpdated
				in.CreatedAt = &at
			}
			if _, err := uc.ledger.RegisterInTx(ctx, movRepo, balanceRepo, in); err != nil {
				return fmt.Errorf("initial movement: %w", err)
			}
		}
	}

	if err := legacyRepo.Link(ctx, item.ID, catalogID, batchID, locationID); err != nil {
		return fmt.Errorf("link item: %w", err)
	}
	return nil
}

func batchStatus(legacy string) string {
	switch legacy {
	case legacyBlocked:
		return entity.BatchStatusBlocked
	case legacyQuarantine:
		return entity.BatchStatusQuarantine
	}
	return entity.BatchStatusActive
}
