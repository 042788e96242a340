package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest body para POST /api/catalog/products.
type CreateProductRequest struct {
	ID            string          `json:"id,omitempty"` // vacío = se deriva de sap_code + name
	SAPCode       string          `json:"sap_code"`
	Name          string          `json:"name"`
	CategoryID    string          `json:"category_id,omitempty"`
	BaseUnit      string          `json:"base_unit"`
	CASNumber     string          `json:"cas_number,omitempty"`
	IsControlled  bool            `json:"is_controlled"`
	MinStockLevel decimal.Decimal `json:"min_stock_level"`
}

// ProductResponse producto del catálogo.
type ProductResponse struct {
	ID            string          `json:"id"`
	SAPCode       string          `json:"sap_code"`
	Name          string          `json:"name"`
	CategoryID    string          `json:"category_id,omitempty"`
	BaseUnit      string          `json:"base_unit"`
	CASNumber     string          `json:"cas_number,omitempty"`
	IsControlled  bool            `json:"is_controlled"`
	MinStockLevel decimal.Decimal `json:"min_stock_level"`
	IsActive      bool            `json:"is_active"`
}

// CreateBatchRequest body para POST /api/catalog/batches.
type CreateBatchRequest struct {
	ID         string          `json:"id,omitempty"`
	CatalogID  string          `json:"catalog_id"`
	LotNumber  string          `json:"lot_number"`
	ExpiryDate *time.Time      `json:"expiry_date,omitempty"`
	Status     string          `json:"status,omitempty"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	Currency   string          `json:"currency,omitempty"`
}

// BatchResponse lote.
type BatchResponse struct {
	ID         string          `json:"id"`
	CatalogID  string          `json:"catalog_id"`
	LotNumber  string          `json:"lot_number"`
	ExpiryDate *time.Time      `json:"expiry_date,omitempty"`
	Status     string          `json:"status"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	Currency   string          `json:"currency"`
	CreatedAt  time.Time       `json:"created_at"`
}

// CreateLocationRequest body para POST /api/catalog/locations.
type CreateLocationRequest struct {
	ID         string `json:"id,omitempty"`
	Name       string `json:"name"`
	Type       string `json:"type,omitempty"`
	PathString string `json:"path,omitempty"`
}

// LocationResponse ubicación de almacenamiento.
type LocationResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type,omitempty"`
	PathString string `json:"path,omitempty"`
	IsActive   bool   `json:"is_active"`
}
