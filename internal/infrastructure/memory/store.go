// Package memory implementa los puertos de persistencia en memoria (desarrollo y tests).
//
// Cada transacción de escritura toma el lock exclusivo del almacén durante toda su duración, lo que
// la hace serializable; las escrituras se acumulan en la tx y solo se vuelcan al confirmar.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/jhoicas/labstock/internal/application/inventory"
	"github.com/jhoicas/labstock/internal/application/migration"
	"github.com/jhoicas/labstock/internal/domain/entity"
	"github.com/jhoicas/labstock/internal/domain/repository"
)

var (
	_ inventory.TxRunner           = (*Store)(nil)
	_ migration.PromotionTxRunner  = (*Store)(nil)
	_ repository.CatalogRepository = (*CatalogRepo)(nil)
)

var errReadOnly = errors.New("memory: escritura en transacción de solo lectura")

// Store almacén en memoria.
type Store struct {
	mu        sync.RWMutex
	movements []entity.Movement
	movIndex  map[string]int
	balances  map[string]entity.Balance
	products  map[string]entity.CatalogProduct
	batches   map[string]entity.Batch
	locations map[string]entity.StorageLocation
	legacy    map[string]entity.LegacyItem

	commitErr error // se devuelve (una vez) en el próximo commit; solo tests
}

// New crea un almacén vacío.
func New() *Store {
	return &Store{
		movIndex:  make(map[string]int),
		balances:  make(map[string]entity.Balance),
		products:  make(map[string]entity.CatalogProduct),
		batches:   make(map[string]entity.Batch),
		locations: make(map[string]entity.StorageLocation),
		legacy:    make(map[string]entity.LegacyItem),
	}
}

// FailNextCommit hace que el próximo commit falle con err, sin aplicar nada.
func (s *Store) FailNextCommit(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitErr = err
}

// tx escrituras pendientes sobre el estado base.
type tx struct {
	s         *Store
	readOnly  bool
	movements []entity.Movement
	balances  map[string]entity.Balance
	products  map[string]entity.CatalogProduct
	batches   map[string]entity.Batch
	locations map[string]entity.StorageLocation
	legacy    map[string]entity.LegacyItem
}

func (s *Store) newTx(readOnly bool) *tx {
	return &tx{
		s:         s,
		readOnly:  readOnly,
		balances:  make(map[string]entity.Balance),
		products:  make(map[string]entity.CatalogProduct),
		batches:   make(map[string]entity.Batch),
		locations: make(map[string]entity.StorageLocation),
		legacy:    make(map[string]entity.LegacyItem),
	}
}

// commit vuelca la tx sobre el estado base. Se llama con el lock exclusivo tomado.
func (t *tx) commit() error {
	s := t.s
	if s.commitErr != nil {
		err := s.commitErr
		s.commitErr = nil
		return err
	}
	for _, m := range t.movements {
		s.movIndex[m.ID] = len(s.movements)
		s.movements = append(s.movements, m)
	}
	for k, v := range t.balances {
		s.balances[k] = v
	}
	for k, v := range t.products {
		s.products[k] = v
	}
	for k, v := range t.batches {
		s.batches[k] = v
	}
	for k, v := range t.locations {
		s.locations[k] = v
	}
	for k, v := range t.legacy {
		s.legacy[k] = v
	}
	return nil
}

func (s *Store) write(fn func(t *tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.newTx(false)
	if err := fn(t); err != nil {
		return err
	}
	return t.commit()
}

func (s *Store) read(fn func(t *tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.newTx(true))
}

// Run ejecuta fn en una transacción de escritura serializable.
func (s *Store) Run(ctx context.Context, fn func(
	movRepo repository.MovementRepository,
	balanceRepo repository.BalanceRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.write(func(t *tx) error {
		return fn(&MovementRepo{t: t}, &BalanceRepo{t: t})
	})
}

// Snapshot ejecuta fn con una vista consistente de solo lectura.
func (s *Store) Snapshot(ctx context.Context, fn func(
	movRepo repository.MovementRepository,
	balanceRepo repository.BalanceRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.read(func(t *tx) error {
		return fn(&MovementRepo{t: t}, &BalanceRepo{t: t})
	})
}

// RunPromotion transacción con los repos del ledger, catálogo y registros V1.
func (s *Store) RunPromotion(ctx context.Context, fn func(
	movRepo repository.MovementRepository,
	balanceRepo repository.BalanceRepository,
	catalogRepo repository.CatalogRepository,
	legacyRepo repository.LegacyItemRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.write(func(t *tx) error {
		return fn(&MovementRepo{t: t}, &BalanceRepo{t: t}, &CatalogRepo{t: t}, &LegacyItemRepo{t: t})
	})
}

// Repositorios fuera de transacción: cada llamada es su propia tx (autocommit).

// Movements repositorio del log para lecturas directas.
func (s *Store) Movements() *MovementRepo { return &MovementRepo{s: s} }

// Balances repositorio de saldos para lecturas directas.
func (s *Store) Balances() *BalanceRepo { return &BalanceRepo{s: s} }

// Catalog repositorio del catálogo.
func (s *Store) Catalog() *CatalogRepo { return &CatalogRepo{s: s} }

// LegacyItems repositorio de registros V1.
func (s *Store) LegacyItems() *LegacyItemRepo { return &LegacyItemRepo{s: s} }

// binding resuelve si un repo trabaja sobre una tx existente o en autocommit.
type binding struct {
	s *Store
	t *tx
}

func (b binding) read(fn func(t *tx) error) error {
	if b.t != nil {
		return fn(b.t)
	}
	return b.s.read(fn)
}

func (b binding) write(fn func(t *tx) error) error {
	if b.t != nil {
		if b.t.readOnly {
			return errReadOnly
		}
		return fn(b.t)
	}
	return b.s.write(fn)
}
