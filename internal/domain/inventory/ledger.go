package inventory

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/labstock/internal/domain/entity"
)

// Effect variación con signo que un movimiento aplica sobre un par (lote, ubicación).
type Effect struct {
	Key   entity.BalanceKey
	Delta decimal.Decimal
}

// Effects devuelve los efectos de un movimiento, en el orden en que se aplican (salida antes que entrada).
// Un AJUSTE con ToLocationID es ganancia; con FromLocationID, pérdida.
func Effects(m *entity.Movement) []Effect {
	q := m.Quantity
	out := func(loc string) Effect {
		return Effect{Key: entity.BalanceKey{BatchID: m.BatchID, LocationID: loc}, Delta: q.Neg()}
	}
	in := func(loc string) Effect {
		return Effect{Key: entity.BalanceKey{BatchID: m.BatchID, LocationID: loc}, Delta: q}
	}
	switch m.Type {
	case entity.MovementEntrada:
		return []Effect{in(m.ToLocationID)}
	case entity.MovementSaida:
		return []Effect{out(m.FromLocationID)}
	case entity.MovementTransferencia:
		return []Effect{out(m.FromLocationID), in(m.ToLocationID)}
	case entity.MovementAjuste:
		if m.ToLocationID != "" {
			return []Effect{in(m.ToLocationID)}
		}
		if m.FromLocationID != "" {
			return []Effect{out(m.FromLocationID)}
		}
	}
	return nil
}

// ApplyIncrement suma qty a existing. Si existing es nil construye el saldo nuevo.
// No modifica existing; devuelve el valor resultante y si es una fila nueva.
func ApplyIncrement(existing *entity.Balance, key entity.BalanceKey, qty decimal.Decimal, at time.Time) (entity.Balance, bool) {
	if existing == nil {
		return entity.Balance{
			ID:             key.ID(),
			BatchID:        key.BatchID,
			LocationID:     key.LocationID,
			Quantity:       qty,
			LastMovementAt: at,
		}, true
	}
	next := *existing
	next.Quantity = existing.Quantity.Add(qty)
	next.LastMovementAt = at
	return next, false
}

// ApplyDecrement resta qty de existing. ok=false si no hay fila o si el resultado sería negativo;
// en ese caso el saldo devuelto no debe persistirse.
func ApplyDecrement(existing *entity.Balance, qty decimal.Decimal, at time.Time) (next entity.Balance, ok bool) {
	if existing == nil {
		return entity.Balance{}, false
	}
	newQty := existing.Quantity.Sub(qty)
	if newQty.IsNegative() {
		return *existing, false
	}
	next = *existing
	next.Quantity = newQty
	next.LastMovementAt = at
	return next, true
}

// ReplayResult saldos reconstruidos desde el log.
type ReplayResult struct {
	Balances map[string]entity.Balance // por ID derivado
	// Violations movimientos que habrían dejado un saldo negativo o sin fila, en orden de aparición.
	Violations []string
}

// Replay reconstruye todos los saldos aplicando los movimientos en el orden dado sobre un estado vacío.
// Un movimiento que violaría la no-negatividad se registra en Violations y se aplica igualmente,
// para que la comparación con el almacén muestre la deriva real.
func Replay(movements []*entity.Movement) ReplayResult {
	res := ReplayResult{Balances: make(map[string]entity.Balance)}
	for _, m := range movements {
		for _, eff := range Effects(m) {
			id := eff.Key.ID()
			cur, found := res.Balances[id]
			var existing *entity.Balance
			if found {
				existing = &cur
			}
			if eff.Delta.IsPositive() {
				next, _ := ApplyIncrement(existing, eff.Key, eff.Delta, m.CreatedAt)
				res.Balances[id] = next
				continue
			}
			next, ok := ApplyDecrement(existing, eff.Delta.Neg(), m.CreatedAt)
			if !ok {
				res.Violations = append(res.Violations, m.ID)
				if existing == nil {
					next, _ = ApplyIncrement(nil, eff.Key, eff.Delta, m.CreatedAt)
				} else {
					next = *existing
					next.Quantity = existing.Quantity.Add(eff.Delta)
					next.LastMovementAt = m.CreatedAt
				}
			}
			res.Balances[id] = next
		}
	}
	return res
}

// LockOrder devuelve las claves sin duplicados ordenadas por ID derivado.
// Bloquear siempre en este orden evita interbloqueos entre transferencias cruzadas.
func LockOrder(keys []entity.BalanceKey) []entity.BalanceKey {
	seen := make(map[string]bool, len(keys))
	out := make([]entity.BalanceKey, 0, len(keys))
	for _, k := range keys {
		if seen[k.ID()] {
			continue
		}
		seen[k.ID()] = true
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}
