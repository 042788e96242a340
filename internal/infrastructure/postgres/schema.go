package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema crea las tablas del ledger si no existen. movements es append-only: el trigger rechaza
// UPDATE y DELETE y seq fija el orden de inserción.
const schema = `
CREATE TABLE IF NOT EXISTS catalog_products (
	id              TEXT PRIMARY KEY,
	sap_code        TEXT NOT NULL DEFAULT '',
	name            TEXT NOT NULL,
	category_id     TEXT NOT NULL DEFAULT '',
	base_unit       TEXT NOT NULL DEFAULT '',
	cas_number      TEXT NOT NULL DEFAULT '',
	is_controlled   BOOLEAN NOT NULL DEFAULT FALSE,
	min_stock_level NUMERIC(18,4) NOT NULL DEFAULT 0,
	is_active       BOOLEAN NOT NULL DEFAULT TRUE,
	updated_at      TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS batches (
	id          TEXT PRIMARY KEY,
	catalog_id  TEXT NOT NULL REFERENCES catalog_products(id),
	lot_number  TEXT NOT NULL DEFAULT '',
	expiry_date TIMESTAMPTZ,
	status      TEXT NOT NULL,
	unit_cost   NUMERIC(18,4) NOT NULL DEFAULT 0,
	currency    CHAR(3) NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS storage_locations (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	type        TEXT NOT NULL,
	path_string TEXT NOT NULL DEFAULT '',
	is_active   BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS balances (
	id               TEXT PRIMARY KEY,
	batch_id         TEXT NOT NULL,
	location_id      TEXT NOT NULL,
	quantity         NUMERIC(18,4) NOT NULL CHECK (quantity >= 0),
	last_movement_at TIMESTAMPTZ NOT NULL,
	UNIQUE (batch_id, location_id)
);
CREATE INDEX IF NOT EXISTS idx_balances_location ON balances(location_id);

CREATE TABLE IF NOT EXISTS movements (
	seq              BIGSERIAL UNIQUE,
	id               TEXT PRIMARY KEY,
	batch_id         TEXT NOT NULL,
	type             TEXT NOT NULL CHECK (type IN ('ENTRADA', 'SAIDA', 'AJUSTE', 'TRANSFERENCIA')),
	quantity         NUMERIC(18,4) NOT NULL CHECK (quantity > 0),
	from_location_id TEXT,
	to_location_id   TEXT,
	user_id          TEXT NOT NULL DEFAULT '',
	observation      TEXT NOT NULL DEFAULT '',
	created_at       TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_movements_batch ON movements(batch_id, seq);
CREATE INDEX IF NOT EXISTS idx_movements_created_at ON movements(created_at);

CREATE OR REPLACE FUNCTION movements_append_only() RETURNS trigger AS $$
BEGIN
	RAISE EXCEPTION 'movements es append-only';
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS trg_movements_append_only ON movements;
CREATE TRIGGER trg_movements_append_only BEFORE UPDATE OR DELETE ON movements
	FOR EACH ROW EXECUTE FUNCTION movements_append_only();

CREATE TABLE IF NOT EXISTS legacy_items (
	id              TEXT PRIMARY KEY,
	catalog_id      TEXT,
	batch_id        TEXT,
	location_id     TEXT,
	sap_code        TEXT NOT NULL DEFAULT '',
	name            TEXT NOT NULL DEFAULT '',
	category        TEXT NOT NULL DEFAULT '',
	base_unit       TEXT NOT NULL DEFAULT '',
	cas_number      TEXT NOT NULL DEFAULT '',
	is_controlled   BOOLEAN NOT NULL DEFAULT FALSE,
	min_stock_level NUMERIC(18,4) NOT NULL DEFAULT 0,
	item_status     TEXT NOT NULL DEFAULT '',
	lot_number      TEXT NOT NULL DEFAULT '',
	expiry_date     TIMESTAMPTZ,
	date_acquired   TIMESTAMPTZ,
	unit_cost       NUMERIC(18,4) NOT NULL DEFAULT 0,
	currency        TEXT NOT NULL DEFAULT '',
	quantity        NUMERIC(18,4) NOT NULL DEFAULT 0,
	warehouse       TEXT NOT NULL DEFAULT '',
	cabinet         TEXT NOT NULL DEFAULT '',
	shelf           TEXT NOT NULL DEFAULT '',
	last_updated    TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_legacy_items_unlinked ON legacy_items(id) WHERE batch_id IS NULL;
`

// EnsureSchema aplica el esquema (idempotente).
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
