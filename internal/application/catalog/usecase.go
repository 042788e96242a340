package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Rhymond/go-money"

	"github.com/jhoicas/labstock/internal/application/dto"
	"github.com/jhoicas/labstock/internal/domain"
	"github.com/jhoicas/labstock/internal/domain/entity"
	"github.com/jhoicas/labstock/internal/domain/repository"
)

// DefaultCurrency moneda de costo de lote cuando no se indica.
const DefaultCurrency = "BRL"

// CatalogUseCase registro de productos, lotes y ubicaciones. Resuelve la identidad que los callers
// pasan al ledger; no forma parte de la transacción de movimientos.
type CatalogUseCase struct {
	repo repository.CatalogRepository
	now  func() time.Time
}

// NewCatalogUseCase construye el caso de uso.
func NewCatalogUseCase(repo repository.CatalogRepository) *CatalogUseCase {
	return &CatalogUseCase{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// CreateProduct registra (o reemplaza) un producto del catálogo.
func (uc *CatalogUseCase) CreateProduct(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, domain.NewValidationError("name", "requerido")
	}
	if in.MinStockLevel.IsNegative() {
		return nil, domain.NewValidationError("min_stock_level", "no puede ser negativo")
	}
	id := in.ID
	if id == "" {
		id = entity.DeriveCatalogID(in.SAPCode, in.Name)
	}
	p := &entity.CatalogProduct{
		ID:            id,
		SAPCode:       in.SAPCode,
		Name:          entity.NormalizeName(in.Name),
		CategoryID:    in.CategoryID,
		BaseUnit:      in.BaseUnit,
		CASNumber:     in.CASNumber,
		IsControlled:  in.IsControlled,
		MinStockLevel: in.MinStockLevel,
		IsActive:      true,
		UpdatedAt:     uc.now(),
	}
	if err := uc.repo.PutProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("put product: %w", err)
	}
	return toProductResponse(p), nil
}

// CreateBatch registra un lote de un producto existente.
func (uc *CatalogUseCase) CreateBatch(ctx context.Context, in dto.CreateBatchRequest) (*dto.BatchResponse, error) {
	if in.CatalogID == "" {
		return nil, domain.NewValidationError("catalog_id", "requerido")
	}
	if in.UnitCost.IsNegative() {
		return nil, domain.NewValidationError("unit_cost", "no puede ser negativo")
	}
	currency, err := normalizeCurrency(in.Currency)
	if err != nil {
		return nil, err
	}
	status := in.Status
	if status == "" {
		status = entity.BatchStatusActive
	}
	if status != entity.BatchStatusActive && status != entity.BatchStatusBlocked && status != entity.BatchStatusQuarantine {
		return nil, domain.NewValidationError("status", "debe ser ACTIVE, BLOCKED o QUARANTINE")
	}
	product, err := uc.repo.GetProduct(ctx, in.CatalogID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	id := in.ID
	if id == "" {
		id = "BAT-" + in.CatalogID + "-" + entity.NormalizeName(in.LotNumber)
	}
	b := &entity.Batch{
		ID:         id,
		CatalogID:  in.CatalogID,
		LotNumber:  in.LotNumber,
		ExpiryDate: in.ExpiryDate,
		Status:     status,
		UnitCost:   in.UnitCost,
		Currency:   currency,
		CreatedAt:  uc.now(),
	}
	if err := uc.repo.PutBatch(ctx, b); err != nil {
		return nil, fmt.Errorf("put batch: %w", err)
	}
	return toBatchResponse(b), nil
}

// GetBatch obtiene un lote; nil si no existe.
func (uc *CatalogUseCase) GetBatch(ctx context.Context, id string) (*dto.BatchResponse, error) {
	b, err := uc.repo.GetBatch(ctx, id)
	if err != nil || b == nil {
		return nil, err
	}
	return toBatchResponse(b), nil
}

// CreateLocation registra una ubicación. domain.ErrConflict si el ID ya existe.
func (uc *CatalogUseCase) CreateLocation(ctx context.Context, in dto.CreateLocationRequest) (*dto.LocationResponse, error) {
	name := entity.NormalizeName(in.Name)
	if name == "" {
		return nil, domain.NewValidationError("name", "requerido")
	}
	id := in.ID
	if id == "" {
		id = entity.DeriveLocationID(name)
	}
	typ := in.Type
	if typ == "" {
		typ = "WAREHOUSE"
	}
	loc := &entity.StorageLocation{ID: id, Name: name, Type: typ, PathString: in.PathString, IsActive: true}
	if err := uc.repo.CreateLocation(ctx, loc); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("create location: %w", err)
	}
	return toLocationResponse(loc), nil
}

// GetLocation obtiene una ubicación; nil si no existe.
func (uc *CatalogUseCase) GetLocation(ctx context.Context, id string) (*dto.LocationResponse, error) {
	loc, err := uc.repo.GetLocation(ctx, id)
	if err != nil || loc == nil {
		return nil, err
	}
	return toLocationResponse(loc), nil
}

// ResolveMovement implementa inventory.CatalogResolver: el lote y todas las ubicaciones deben existir,
// el lote no puede estar bloqueado y las ubicaciones deben estar activas.
func (uc *CatalogUseCase) ResolveMovement(ctx context.Context, batchID string, locationIDs ...string) error {
	b, err := uc.repo.GetBatch(ctx, batchID)
	if err != nil {
		return fmt.Errorf("resolve batch: %w", err)
	}
	if b == nil {
		return fmt.Errorf("lote %s: %w", batchID, domain.ErrNotFound)
	}
	if b.Status == entity.BatchStatusBlocked {
		return domain.NewValidationError("batch_id", "el lote está bloqueado")
	}
	for _, id := range locationIDs {
		loc, err := uc.repo.GetLocation(ctx, id)
		if err != nil {
			return fmt.Errorf("resolve location: %w", err)
		}
		if loc == nil {
			return fmt.Errorf("ubicación %s: %w", id, domain.ErrNotFound)
		}
		if !loc.IsActive {
			return domain.NewValidationError("location", "ubicación inactiva: "+id)
		}
	}
	return nil
}

// normalizeCurrency valida el código ISO 4217 contra la tabla de go-money.
func normalizeCurrency(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return DefaultCurrency, nil
	}
	if money.GetCurrency(code) == nil {
		return "", domain.NewValidationError("currency", "código de moneda desconocido: "+code)
	}
	return code, nil
}

func toProductResponse(p *entity.CatalogProduct) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID: p.ID, SAPCode: p.SAPCode, Name: p.Name, CategoryID: p.CategoryID, BaseUnit: p.BaseUnit,
		CASNumber: p.CASNumber, IsControlled: p.IsControlled, MinStockLevel: p.MinStockLevel, IsActive: p.IsActive,
	}
}

func toBatchResponse(b *entity.Batch) *dto.BatchResponse {
	return &dto.BatchResponse{
		ID: b.ID, CatalogID: b.CatalogID, LotNumber: b.LotNumber, ExpiryDate: b.ExpiryDate,
		Status: b.Status, UnitCost: b.UnitCost, Currency: b.Currency, CreatedAt: b.CreatedAt,
	}
}

func toLocationResponse(l *entity.StorageLocation) *dto.LocationResponse {
	return &dto.LocationResponse{ID: l.ID, Name: l.Name, Type: l.Type, PathString: l.PathString, IsActive: l.IsActive}
}
