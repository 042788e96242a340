package entity

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Balance saldo actual de un lote en una ubicación. Es una caché derivada del log de movimientos:
// Quantity debe ser igual a la suma neta de los movimientos del par y nunca negativa.
type Balance struct {
	ID             string
	BatchID        string
	LocationID     string
	Quantity       decimal.Decimal
	LastMovementAt time.Time
}

// DeriveBalanceID deriva el ID del saldo a partir de la clave compuesta (lote, ubicación).
// El prefijo de longitud evita colisiones del tipo ("ab","c") vs ("a","bc").
func DeriveBalanceID(batchID, locationID string) string {
	return "BAL-" + shortHash(strconv.Itoa(len(batchID))+":"+batchID+"|"+locationID)
}

// BalanceKey clave compuesta de un saldo.
type BalanceKey struct {
	BatchID    string
	LocationID string
}

// ID devuelve el ID derivado de la clave.
func (k BalanceKey) ID() string { return DeriveBalanceID(k.BatchID, k.LocationID) }
