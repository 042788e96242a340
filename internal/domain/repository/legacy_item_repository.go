package repository

import (
	"context"

	"github.com/jhoicas/labstock/internal/domain/entity"
)

// LegacyItemRepository acceso a los registros planos V1 que alimentan la promoción.
type LegacyItemRepository interface {
	// ListUnlinked devuelve hasta limit items sin BatchID, ordenados por ID y posteriores a afterID.
	ListUnlinked(ctx context.Context, afterID string, limit int) ([]*entity.LegacyItem, error)
	// Link escribe las claves derivadas sobre el item de origen.
	Link(ctx context.Context, itemID, catalogID, batchID, locationID string) error
	Create(ctx context.Context, item *entity.LegacyItem) error
}
