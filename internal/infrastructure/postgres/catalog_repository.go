package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/labstock/internal/domain/entity"
	"github.com/jhoicas/labstock/internal/domain/repository"
)

var _ repository.CatalogRepository = (*CatalogRepo)(nil)

// CatalogRepo productos, lotes y ubicaciones sobre PostgreSQL (usable con pool o tx).
type CatalogRepo struct {
	q Querier
}

// NewCatalogRepository construye el adaptador del catálogo. Pasar pool o tx (Querier).
func NewCatalogRepository(q Querier) *CatalogRepo {
	return &CatalogRepo{q: q}
}

// PutProduct inserta o reemplaza un producto.
func (r *CatalogRepo) PutProduct(ctx context.Context, p *entity.CatalogProduct) error {
	query := `
		INSERT INTO catalog_products (id, sap_code, name, category_id, base_unit, cas_number, is_controlled, min_stock_level, is_active, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			sap_code = EXCLUDED.sap_code, name = EXCLUDED.name, category_id = EXCLUDED.category_id,
			base_unit = EXCLUDED.base_unit, cas_number = EXCLUDED.cas_number, is_controlled = EXCLUDED.is_controlled,
			min_stock_level = EXCLUDED.min_stock_level, is_active = EXCLUDED.is_active, updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.SAPCode, p.Name, p.CategoryID, p.BaseUnit, p.CASNumber,
		p.IsControlled, p.MinStockLevel, p.IsActive, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("put product: %w", err)
	}
	return nil
}

// GetProduct obtiene un producto; nil si no existe.
func (r *CatalogRepo) GetProduct(ctx context.Context, id string) (*entity.CatalogProduct, error) {
	query := `
		SELECT id, sap_code, name, category_id, base_unit, cas_number, is_controlled, min_stock_level, is_active, updated_at
		FROM catalog_products WHERE id = $1`
	var p entity.CatalogProduct
	err := r.q.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.SAPCode, &p.Name, &p.CategoryID, &p.BaseUnit, &p.CASNumber,
		&p.IsControlled, &p.MinStockLevel, &p.IsActive, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// PutBatch inserta o reemplaza un lote.
func (r *CatalogRepo) PutBatch(ctx context.Context, b *entity.Batch) error {
	query := `
		INSERT INTO batches (id, catalog_id, lot_number, expiry_date, status, unit_cost, currency, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			catalog_id = EXCLUDED.catalog_id, lot_number = EXCLUDED.lot_number, expiry_date = EXCLUDED.expiry_date,
			status = EXCLUDED.status, unit_cost = EXCLUDED.unit_cost, currency = EXCLUDED.currency`
	_, err := r.q.Exec(ctx, query,
		b.ID, b.CatalogID, b.LotNumber, b.ExpiryDate, b.Status, b.UnitCost, b.Currency, b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("put batch: %w", err)
	}
	return nil
}

// GetBatch obtiene un lote; nil si no existe.
func (r *CatalogRepo) GetBatch(ctx context.Context, id string) (*entity.Batch, error) {
	query := `
		SELECT id, catalog_id, lot_number, expiry_date, status, unit_cost, currency, created_at
		FROM batches WHERE id = $1`
	var b entity.Batch
	err := r.q.QueryRow(ctx, query, id).Scan(
		&b.ID, &b.CatalogID, &b.LotNumber, &b.ExpiryDate, &b.Status, &b.UnitCost, &b.Currency, &b.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get batch: %w", err)
	}
	return &b, nil
}

// CreateLocation inserta una ubicación; domain.ErrConflict si el ID ya existe.
func (r *CatalogRepo) CreateLocation(ctx context.Context, l *entity.StorageLocation) error {
	query := `
		INSERT INTO storage_locations (id, name, type, path_string, is_active)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.q.Exec(ctx, query, l.ID, l.Name, l.Type, l.PathString, l.IsActive); err != nil {
		return conflictOr("create location", err)
	}
	return nil
}

// GetLocation obtiene una ubicación; nil si no existe.
func (r *CatalogRepo) GetLocation(ctx context.Context, id string) (*entity.StorageLocation, error) {
	query := `SELECT id, name, type, path_string, is_active FROM storage_locations WHERE id = $1`
	var l entity.StorageLocation
	err := r.q.QueryRow(ctx, query, id).Scan(&l.ID, &l.Name, &l.Type, &l.PathString, &l.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get location: %w", err)
	}
	return &l, nil
}
