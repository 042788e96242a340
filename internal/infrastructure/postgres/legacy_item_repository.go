package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/labstock/internal/domain"
	"github.com/jhoicas/labstock/internal/domain/entity"
	"github.com/jhoicas/labstock/internal/domain/repository"
)

var _ repository.LegacyItemRepository = (*LegacyItemRepo)(nil)

// LegacyItemRepo registros planos V1 (tabla legacy_items).
type LegacyItemRepo struct {
	q Querier
}

// NewLegacyItemRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLegacyItemRepository(q Querier) *LegacyItemRepo {
	return &LegacyItemRepo{q: q}
}

const legacyColumns = `id, sap_code, name, category, base_unit, cas_number, is_controlled, min_stock_level,
	item_status, lot_number, expiry_date, date_acquired, unit_cost, currency, quantity,
	warehouse, cabinet, shelf, last_updated`

// ListUnlinked items sin batch_id, por ID ascendente a partir del cursor. Trae catalog_id y location_id
// porque un item enlazado a medias conserva esos enlaces.
func (r *LegacyItemRepo) ListUnlinked(ctx context.Context, afterID string, limit int) ([]*entity.LegacyItem, error) {
	query := `SELECT catalog_id, location_id, ` + legacyColumns + `
		FROM legacy_items WHERE batch_id IS NULL AND id > $1 ORDER BY id LIMIT $2`
	rows, err := r.q.Query(ctx, query, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list unlinked: %w", err)
	}
	defer rows.Close()
	var list []*entity.LegacyItem
	for rows.Next() {
		var it entity.LegacyItem
		var catalogID, locationID *string
		if err := rows.Scan(
			&catalogID, &locationID,
			&it.ID, &it.SAPCode, &it.Name, &it.Category, &it.BaseUnit, &it.CASNumber, &it.IsControlled, &it.MinStockLevel,
			&it.ItemStatus, &it.LotNumber, &it.ExpiryDate, &it.DateAcquired, &it.UnitCost, &it.Currency, &it.Quantity,
			&it.Warehouse, &it.Cabinet, &it.Shelf, &it.LastUpdated,
		); err != nil {
			return nil, fmt.Errorf("scan legacy item: %w", err)
		}
		it.CatalogID, it.LocationID = deref(catalogID), deref(locationID)
		list = append(list, &it)
	}
	return list, rows.Err()
}

// Link escribe las claves derivadas sobre el item.
func (r *LegacyItemRepo) Link(ctx context.Context, itemID, catalogID, batchID, locationID string) error {
	query := `UPDATE legacy_items SET catalog_id = $2, batch_id = $3, location_id = $4 WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query, itemID, catalogID, batchID, locationID)
	if err != nil {
		return fmt.Errorf("link legacy item: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("link legacy item %s: %w", itemID, domain.ErrNotFound)
	}
	return nil
}

// Create inserta un registro V1 sin enlazar (carga de datos heredados).
func (r *LegacyItemRepo) Create(ctx context.Context, it *entity.LegacyItem) error {
	query := `INSERT INTO legacy_items (` + legacyColumns + `, catalog_id, location_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`
	_, err := r.q.Exec(ctx, query,
		it.ID, it.SAPCode, it.Name, it.Category, it.BaseUnit, it.CASNumber, it.IsControlled, it.MinStockLevel,
		it.ItemStatus, it.LotNumber, it.ExpiryDate, it.DateAcquired, it.UnitCost, it.Currency, it.Quantity,
		it.Warehouse, it.Cabinet, it.Shelf, it.LastUpdated,
		nullIfEmpty(it.CatalogID), nullIfEmpty(it.LocationID),
	)
	if err != nil {
		return conflictOr("create legacy item", err)
	}
	return nil
}
