package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// LegacyItem registro plano de la versión anterior (V1): catálogo, lote y saldo en una sola fila.
// CatalogID/BatchID/LocationID se rellenan al promoverlo al ledger; vacíos indican que falta migrar.
type LegacyItem struct {
	ID            string
	CatalogID     string
	BatchID       string
	LocationID    string
	SAPCode       string
	Name          string
	Category      string
	BaseUnit      string
	CASNumber     string
	IsControlled  bool
	MinStockLevel decimal.Decimal
	ItemStatus    string // Ativo, Bloqueado, Quarentena, Obsoleto
	LotNumber     string
	ExpiryDate    *time.Time
	DateAcquired  *time.Time
	UnitCost      decimal.Decimal
	Currency      string
	Quantity      decimal.Decimal
	Warehouse     string
	Cabinet       string
	Shelf         string
	LastUpdated   *time.Time
}
