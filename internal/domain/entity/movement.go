package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType tipo de movimiento del ledger.
type MovementType string

// Tipos de movimiento de stock.
const (
	MovementEntrada       MovementType = "ENTRADA"       // recepción
	MovementSaida         MovementType = "SAIDA"         // salida / consumo
	MovementAjuste        MovementType = "AJUSTE"        // ajuste (ganancia con to, pérdida con from)
	MovementTransferencia MovementType = "TRANSFERENCIA" // traslado entre ubicaciones
)

// QuantityScale decimales que persisten los almacenes (NUMERIC(18,4) en PostgreSQL).
const QuantityScale = 4

// maxQuantity cota superior exclusiva de NUMERIC(18,4): 14 dígitos enteros.
var maxQuantity = decimal.New(1, 18-QuantityScale)

// FitsStorage indica si q se almacena sin redondeo: como mucho QuantityScale decimales y dentro del rango
// de la columna. Se compara el valor, no la representación ("1.50000" cabe).
func FitsStorage(q decimal.Decimal) bool {
	return q.Equal(q.Truncate(QuantityScale)) && q.Abs().LessThan(maxQuantity)
}

// Valid indica si el tipo es uno de los cuatro conocidos.
func (t MovementType) Valid() bool {
	switch t {
	case MovementEntrada, MovementSaida, MovementAjuste, MovementTransferencia:
		return true
	}
	return false
}

// Movement hecho inmutable del log de movimientos. Una vez agregado nunca se modifica ni se borra.
// Quantity es siempre positiva; la dirección la dan FromLocationID/ToLocationID.
type Movement struct {
	ID             string
	BatchID        string
	Type           MovementType
	Quantity       decimal.Decimal
	FromLocationID string // SAIDA, TRANSFERENCIA, AJUSTE de pérdida
	ToLocationID   string // ENTRADA, TRANSFERENCIA, AJUSTE de ganancia
	UserID         string
	Observation    string
	CreatedAt      time.Time
}
