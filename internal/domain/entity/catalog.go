package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un lote.
const (
	BatchStatusActive     = "ACTIVE"
	BatchStatusBlocked    = "BLOCKED"
	BatchStatusQuarantine = "QUARANTINE"
)

// CatalogProduct dato maestro de un producto de laboratorio (reactivo, vidriería, repuesto).
type CatalogProduct struct {
	ID            string
	SAPCode       string
	Name          string
	CategoryID    string
	BaseUnit      string
	CASNumber     string
	IsControlled  bool
	MinStockLevel decimal.Decimal
	IsActive      bool
	UpdatedAt     time.Time
}

// Batch lote de un producto del catálogo.
type Batch struct {
	ID         string
	CatalogID  string
	LotNumber  string
	ExpiryDate *time.Time
	Status     string
	UnitCost   decimal.Decimal
	Currency   string // ISO 4217
	CreatedAt  time.Time
}

// StorageLocation ubicación física de almacenamiento (bodega, armario, estante).
type StorageLocation struct {
	ID         string
	Name       string
	Type       string
	PathString string
	IsActive   bool
}
