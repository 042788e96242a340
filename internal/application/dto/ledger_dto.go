package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterMovementRequest body para POST /api/ledger/movements.
type RegisterMovementRequest struct {
	BatchID        string          `json:"batch_id"`
	Type           string          `json:"type"` // ENTRADA, SAIDA, AJUSTE, TRANSFERENCIA
	Quantity       decimal.Decimal `json:"quantity"`
	FromLocationID string          `json:"from_location_id,omitempty"`
	ToLocationID   string          `json:"to_location_id,omitempty"`
	Observation    string          `json:"observation,omitempty"`
}

// AdjustTargetRequest body para POST /api/ledger/adjustments (cantidad total deseada).
type AdjustTargetRequest struct {
	BatchID     string           `json:"batch_id"`
	LocationID  string           `json:"location_id"`
	Target      *decimal.Decimal `json:"target"` // obligatorio: nil no equivale a cero
	Observation string           `json:"observation,omitempty"`
}

// MovementResponse movimiento confirmado.
type MovementResponse struct {
	ID             string          `json:"id"`
	BatchID        string          `json:"batch_id"`
	Type           string          `json:"type"`
	Quantity       decimal.Decimal `json:"quantity"`
	FromLocationID string          `json:"from_location_id,omitempty"`
	ToLocationID   string          `json:"to_location_id,omitempty"`
	UserID         string          `json:"user_id,omitempty"`
	Observation    string          `json:"observation,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// BalanceResponse saldo por lote y ubicación.
type BalanceResponse struct {
	ID             string          `json:"id"`
	BatchID        string          `json:"batch_id"`
	LocationID     string          `json:"location_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	LastMovementAt time.Time       `json:"last_movement_at"`
}

// BalanceDriftResponse diferencia detectada por la conciliación.
type BalanceDriftResponse struct {
	BalanceID  string           `json:"balance_id"`
	BatchID    string           `json:"batch_id"`
	LocationID string           `json:"location_id"`
	Expected   decimal.Decimal  `json:"expected"`
	Stored     *decimal.Decimal `json:"stored"` // null = fila inexistente
}

// ReconcileResponse resultado de GET /api/ledger/reconciliation.
type ReconcileResponse struct {
	Consistent   bool                   `json:"consistent"`
	Movements    int                    `json:"movements"`
	Balances     int                    `json:"balances"`
	Matches      int                    `json:"matches"`
	Mismatches   []BalanceDriftResponse `json:"mismatches"`
	NegativeRows []string               `json:"negative_rows"`
	Violations   []string               `json:"violations"`
}

// MovementListResponse página del historial.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// MovementQuery parámetros de GET /api/ledger/movements.
type MovementQuery struct {
	Limit      int    `query:"limit"`
	Offset     int    `query:"offset"`
	BatchID    string `query:"batch_id"`
	LocationID string `query:"location_id"`
	Type       string `query:"type"`
	From       string `query:"from"` // RFC3339
	To         string `query:"to"`   // RFC3339
}

// Page paginación con valores por defecto aplicados.
func (q MovementQuery) Page() PageRequest {
	p := PageRequest{Limit: q.Limit, Offset: q.Offset}
	p.DefaultPage()
	return p
}
