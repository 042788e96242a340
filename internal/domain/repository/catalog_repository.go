package repository

import (
	"context"

	"github.com/jhoicas/labstock/internal/domain/entity"
)

// CatalogRepository puerto de persistencia del registro de catálogo, lotes y ubicaciones.
// Los Get devuelven nil, nil cuando no existe el registro; los Put insertan o reemplazan.
type CatalogRepository interface {
	PutProduct(ctx context.Context, product *entity.CatalogProduct) error
	GetProduct(ctx context.Context, id string) (*entity.CatalogProduct, error)
	PutBatch(ctx context.Context, batch *entity.Batch) error
	GetBatch(ctx context.Context, id string) (*entity.Batch, error)
	// CreateLocation no reemplaza: domain.ErrConflict si ya existe.
	CreateLocation(ctx context.Context, location *entity.StorageLocation) error
	GetLocation(ctx context.Context, id string) (*entity.StorageLocation, error)
}
