package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/labstock/internal/domain"
	"github.com/jhoicas/labstock/internal/domain/entity"
	"github.com/jhoicas/labstock/internal/domain/repository"
)

// MovementRepo log de movimientos en memoria.
type MovementRepo binding

func (r *MovementRepo) Append(_ context.Context, m *entity.Movement) error {
	return binding(*r).write(func(t *tx) error {
		if _, ok := t.s.movIndex[m.ID]; ok {
			return fmt.Errorf("movimiento %s: %w", m.ID, domain.ErrConflict)
		}
		for _, p := range t.movements {
			if p.ID == m.ID {
				return fmt.Errorf("movimiento %s: %w", m.ID, domain.ErrConflict)
			}
		}
		t.movements = append(t.movements, *m)
		return nil
	})
}

func (r *MovementRepo) GetByID(_ context.Context, id string) (*entity.Movement, error) {
	var out *entity.Movement
	err := binding(*r).read(func(t *tx) error {
		for i := range t.movements {
			if t.movements[i].ID == id {
				m := t.movements[i]
				out = &m
				return nil
			}
		}
		if i, ok := t.s.movIndex[id]; ok {
			m := t.s.movements[i]
			out = &m
		}
		return nil
	})
	return out, err
}

func (r *MovementRepo) List(_ context.Context, f repository.MovementFilter) ([]*entity.Movement, error) {
	var out []*entity.Movement
	err := binding(*r).read(func(t *tx) error {
		all := make([]entity.Movement, 0, len(t.s.movements)+len(t.movements))
		all = append(all, t.s.movements...)
		all = append(all, t.movements...)
		skipped := 0
		for i := range all {
			if !matchMovement(f, &all[i]) {
				continue
			}
			if skipped < f.Offset {
				skipped++
				continue
			}
			m := all[i]
			out = append(out, &m)
			if f.Limit > 0 && len(out) == f.Limit {
				break
			}
		}
		return nil
	})
	return out, err
}

func matchMovement(f repository.MovementFilter, m *entity.Movement) bool {
	switch {
	case f.BatchID != "" && m.BatchID != f.BatchID:
		return false
	case f.LocationID != "" && m.FromLocationID != f.LocationID && m.ToLocationID != f.LocationID:
		return false
	case f.Type != "" && m.Type != f.Type:
		return false
	case f.From != nil && m.CreatedAt.Before(*f.From):
		return false
	case f.To != nil && m.CreatedAt.After(*f.To):
		return false
	}
	return true
}

// BalanceRepo saldos en memoria. GetForUpdate equivale a Get: la tx ya tiene el lock exclusivo.
type BalanceRepo binding

func (t *tx) balance(id string) (entity.Balance, bool) {
	if b, ok := t.balances[id]; ok {
		return b, true
	}
	b, ok := t.s.balances[id]
	return b, ok
}

func (r *BalanceRepo) Get(_ context.Context, batchID, locationID string) (*entity.Balance, error) {
	var out *entity.Balance
	err := binding(*r).read(func(t *tx) error {
		if b, ok := t.balance(entity.DeriveBalanceID(batchID, locationID)); ok {
			out = &b
		}
		return nil
	})
	return out, err
}

func (r *BalanceRepo) GetForUpdate(ctx context.Context, batchID, locationID string) (*entity.Balance, error) {
	return r.Get(ctx, batchID, locationID)
}

func (r *BalanceRepo) Insert(_ context.Context, b *entity.Balance) error {
	return binding(*r).write(func(t *tx) error {
		if _, ok := t.balance(b.ID); ok {
			return fmt.Errorf("saldo %s: %w", b.ID, domain.ErrConflict)
		}
		t.balances[b.ID] = *b
		return nil
	})
}

func (r *BalanceRepo) Update(_ context.Context, b *entity.Balance) error {
	return binding(*r).write(func(t *tx) error {
		if _, ok := t.balance(b.ID); !ok {
			return fmt.Errorf("saldo %s: %w", b.ID, domain.ErrNotFound)
		}
		t.balances[b.ID] = *b
		return nil
	})
}

func (r *BalanceRepo) List(_ context.Context, f repository.BalanceFilter) ([]*entity.Balance, error) {
	var out []*entity.Balance
	err := binding(*r).read(func(t *tx) error {
		seen := make(map[string]struct{}, len(t.s.balances)+len(t.balances))
		add := func(b entity.Balance) {
			if _, ok := seen[b.ID]; ok {
				return
			}
			seen[b.ID] = struct{}{}
			if (f.BatchID != "" && b.BatchID != f.BatchID) || (f.LocationID != "" && b.LocationID != f.LocationID) {
				return
			}
			out = append(out, &b)
		}
		for _, b := range t.balances {
			add(b)
		}
		for _, b := range t.s.balances {
			add(b)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].BatchID != out[j].BatchID {
			return out[i].BatchID < out[j].BatchID
		}
		return out[i].LocationID < out[j].LocationID
	})
	return out, err
}

// CatalogRepo catálogo, lotes y ubicaciones en memoria.
type CatalogRepo binding

func (r *CatalogRepo) PutProduct(_ context.Context, p *entity.CatalogProduct) error {
	return binding(*r).write(func(t *tx) error {
		t.products[p.ID] = *p
		return nil
	})
}

func (r *CatalogRepo) GetProduct(_ context.Context, id string) (*entity.CatalogProduct, error) {
	var out *entity.CatalogProduct
	err := binding(*r).read(func(t *tx) error {
		if p, ok := t.products[id]; ok {
			out = &p
		} else if p, ok := t.s.products[id]; ok {
			out = &p
		}
		return nil
	})
	return out, err
}

func (r *CatalogRepo) PutBatch(_ context.Context, b *entity.Batch) error {
	return binding(*r).write(func(t *tx) error {
		t.batches[b.ID] = *b
		return nil
	})
}

func (r *CatalogRepo) GetBatch(_ context.Context, id string) (*entity.Batch, error) {
	var out *entity.Batch
	err := binding(*r).read(func(t *tx) error {
		if b, ok := t.batches[id]; ok {
			out = &b
		} else if b, ok := t.s.batches[id]; ok {
			out = &b
		}
		return nil
	})
	return out, err
}

func (r *CatalogRepo) CreateLocation(_ context.Context, l *entity.StorageLocation) error {
	return binding(*r).write(func(t *tx) error {
		_, staged := t.locations[l.ID]
		_, stored := t.s.locations[l.ID]
		if staged || stored {
			return fmt.Errorf("ubicación %s: %w", l.ID, domain.ErrConflict)
		}
		t.locations[l.ID] = *l
		return nil
	})
}

func (r *CatalogRepo) GetLocation(_ context.Context, id string) (*entity.StorageLocation, error) {
	var out *entity.StorageLocation
	err := binding(*r).read(func(t *tx) error {
		if l, ok := t.locations[id]; ok {
			out = &l
		} else if l, ok := t.s.locations[id]; ok {
			out = &l
		}
		return nil
	})
	return out, err
}

// LegacyItemRepo registros V1 en memoria.
type LegacyItemRepo binding

func (t *tx) legacyItem(id string) (entity.LegacyItem, bool) {
	if it, ok := t.legacy[id]; ok {
		return it, true
	}
	it, ok := t.s.legacy[id]
	return it, ok
}

func (r *LegacyItemRepo) ListUnlinked(_ context.Context, afterID string, limit int) ([]*entity.LegacyItem, error) {
	var out []*entity.LegacyItem
	err := binding(*r).read(func(t *tx) error {
		ids := make(map[string]struct{}, len(t.s.legacy)+len(t.legacy))
		for id := range t.s.legacy {
			ids[id] = struct{}{}
		}
		for id := range t.legacy {
			ids[id] = struct{}{}
		}
		sorted := make([]string, 0, len(ids))
		for id := range ids {
			if id > afterID {
				sorted = append(sorted, id)
			}
		}
		sort.Strings(sorted)
		for _, id := range sorted {
			it, _ := t.legacyItem(id)
			if it.BatchID != "" {
				continue
			}
			out = append(out, &it)
			if limit > 0 && len(out) == limit {
				break
			}
		}
		return nil
	})
	return out, err
}

func (r *LegacyItemRepo) Link(_ context.Context, itemID, catalogID, batchID, locationID string) error {
	return binding(*r).write(func(t *tx) error {
		it, ok := t.legacyItem(itemID)
		if !ok {
			return fmt.Errorf("item %s: %w", itemID, domain.ErrNotFound)
		}
		it.CatalogID, it.BatchID, it.LocationID = catalogID, batchID, locationID
		t.legacy[itemID] = it
		return nil
	})
}

func (r *LegacyItemRepo) Create(_ context.Context, it *entity.LegacyItem) error {
	return binding(*r).write(func(t *tx) error {
		if _, ok := t.legacyItem(it.ID); ok {
			return fmt.Errorf("item %s: %w", it.ID, domain.ErrConflict)
		}
		t.legacy[it.ID] = *it
		return nil
	})
}

// Get devuelve el registro V1 (tests y CLI).
func (r *LegacyItemRepo) Get(_ context.Context, id string) (*entity.LegacyItem, error) {
	var out *entity.LegacyItem
	err := binding(*r).read(func(t *tx) error {
		if it, ok := t.legacyItem(id); ok {
			out = &it
		}
		return nil
	})
	return out, err
}
