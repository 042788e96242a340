// Package sqlite implementa los puertos del ledger sobre SQLite (go-sqlite3), para instalaciones de un
// solo nodo y para la CLI.
//
// La base se abre en modo WAL con _txlock=immediate: cada transacción de escritura toma el lock de
// escritura al empezar, así que las transacciones del ledger quedan serializadas y GetForUpdate es un
// SELECT normal.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jhoicas/labstock/internal/application/inventory"
	"github.com/jhoicas/labstock/internal/application/migration"
	"github.com/jhoicas/labstock/internal/domain/repository"
)

var (
	_ inventory.TxRunner          = (*Store)(nil)
	_ migration.PromotionTxRunner = (*Store)(nil)
)

// querier lo cumplen *sql.DB y *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store base SQLite del ledger.
type Store struct {
	db *sql.DB
}

// Open abre (o crea) la base en path y aplica el esquema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Un único escritor: evita SQLITE_BUSY entre conexiones del mismo proceso.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return s, nil
}

// Close cierra la base.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(schema)
	return err
}

// Run transacción de escritura con los repos del ledger.
func (s *Store) Run(ctx context.Context, fn func(
	movRepo repository.MovementRepository,
	balanceRepo repository.BalanceRepository,
) error) error {
	return s.inTx(ctx, nil, func(tx *sql.Tx) error {
		return fn(&MovementRepo{q: tx}, &BalanceRepo{q: tx})
	})
}

// Snapshot transacción de solo lectura con vista consistente.
func (s *Store) Snapshot(ctx context.Context, fn func(
	movRepo repository.MovementRepository,
	balanceRepo repository.BalanceRepository,
) error) error {
	return s.inTx(ctx, &sql.TxOptions{ReadOnly: true}, func(tx *sql.Tx) error {
		return fn(&MovementRepo{q: tx}, &BalanceRepo{q: tx})
	})
}

// RunPromotion transacción con repos del ledger, catálogo y registros V1.
func (s *Store) RunPromotion(ctx context.Context, fn func(
	movRepo repository.MovementRepository,
	balanceRepo repository.BalanceRepository,
	catalogRepo repository.CatalogRepository,
	legacyRepo repository.LegacyItemRepository,
) error) error {
	return s.inTx(ctx, nil, func(tx *sql.Tx) error {
		return fn(&MovementRepo{q: tx}, &BalanceRepo{q: tx}, &CatalogRepo{q: tx}, &LegacyItemRepo{q: tx})
	})
}

func (s *Store) inTx(ctx context.Context, opts *sql.TxOptions, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Movements repositorio del log fuera de transacción.
func (s *Store) Movements() *MovementRepo { return &MovementRepo{q: s.db} }

// Balances repositorio de saldos fuera de transacción.
func (s *Store) Balances() *BalanceRepo { return &BalanceRepo{q: s.db} }

// Catalog repositorio del catálogo.
func (s *Store) Catalog() *CatalogRepo { return &CatalogRepo{q: s.db} }

// LegacyItems repositorio de registros V1.
func (s *Store) LegacyItems() *LegacyItemRepo { return &LegacyItemRepo{q: s.db} }

const schema = `
CREATE TABLE IF NOT EXISTS catalog_products (
	id TEXT PRIMARY KEY,
	sap_code TEXT NOT NULL DEFAULT '',
	name TEXT NOT NULL,
	category_id TEXT NOT NULL DEFAULT '',
	base_unit TEXT NOT NULL DEFAULT '',
	cas_number TEXT NOT NULL DEFAULT '',
	is_controlled INTEGER NOT NULL DEFAULT 0,
	min_stock_level TEXT NOT NULL DEFAULT '0',
	is_active INTEGER NOT NULL DEFAULT 1,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS batches (
	id TEXT PRIMARY KEY,
	catalog_id TEXT NOT NULL REFERENCES catalog_products(id),
	lot_number TEXT NOT NULL DEFAULT '',
	expiry_date TEXT,
	status TEXT NOT NULL,
	unit_cost TEXT NOT NULL DEFAULT '0',
	currency TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS storage_locations (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	type TEXT NOT NULL,
	path_string TEXT NOT NULL DEFAULT '',
	is_active INTEGER NOT NULL DEFAULT 1
);

-- Cantidades como TEXT decimal: SQLite no tiene NUMERIC exacto.
CREATE TABLE IF NOT EXISTS balances (
	id TEXT PRIMARY KEY,
	batch_id TEXT NOT NULL,
	location_id TEXT NOT NULL,
	quantity TEXT NOT NULL,
	last_movement_at TEXT NOT NULL,
	UNIQUE (batch_id, location_id)
);

-- Append-only: seq fija el orden de inserción.
CREATE TABLE IF NOT EXISTS movements (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	batch_id TEXT NOT NULL,
	type TEXT NOT NULL,
	quantity TEXT NOT NULL,
	from_location_id TEXT,
	to_location_id TEXT,
	user_id TEXT NOT NULL DEFAULT '',
	observation TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_movements_batch ON movements(batch_id, seq);

CREATE TRIGGER IF NOT EXISTS trg_movements_no_update BEFORE UPDATE ON movements
BEGIN SELECT RAISE(ABORT, 'movements es append-only'); END;
CREATE TRIGGER IF NOT EXISTS trg_movements_no_delete BEFORE DELETE ON movements
BEGIN SELECT RAISE(ABORT, 'movements es append-only'); END;

CREATE TABLE IF NOT EXISTS legacy_items (
	id TEXT PRIMARY KEY,
	catalog_id TEXT,
	batch_id TEXT,
	location_id TEXT,
	sap_code TEXT NOT NULL DEFAULT '',
	name TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT '',
	base_unit TEXT NOT NULL DEFAULT '',
	cas_number TEXT NOT NULL DEFAULT '',
	is_controlled INTEGER NOT NULL DEFAULT 0,
	min_stock_level TEXT NOT NULL DEFAULT '0',
	item_status TEXT NOT NULL DEFAULT '',
	lot_number TEXT NOT NULL DEFAULT '',
	expiry_date TEXT,
	date_acquired TEXT,
	unit_cost TEXT NOT NULL DEFAULT '0',
	currency TEXT NOT NULL DEFAULT '',
	quantity TEXT NOT NULL DEFAULT '0',
	warehouse TEXT NOT NULL DEFAULT '',
	cabinet TEXT NOT NULL DEFAULT '',
	shelf TEXT NOT NULL DEFAULT '',
	last_updated TEXT
);
`
