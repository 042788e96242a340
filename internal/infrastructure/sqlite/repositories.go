package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/jhoicas/labstock/internal/domain"
	"github.com/jhoicas/labstock/internal/domain/entity"
	"github.com/jhoicas/labstock/internal/domain/repository"
)

var (
	_ repository.MovementRepository   = (*MovementRepo)(nil)
	_ repository.BalanceRepository    = (*BalanceRepo)(nil)
	_ repository.CatalogRepository    = (*CatalogRepo)(nil)
	_ repository.LegacyItemRepository = (*LegacyItemRepo)(nil)
)

// Las fechas se guardan como TEXT en UTC con ancho fijo, para que el orden de texto sea el cronológico.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

// parseTime falla ante una fecha mal guardada: un cero silencioso alteraría filtros y orden.
func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("fecha almacenada inválida %q: %w", s, err)
	}
	return t, nil
}

func parseTimePtr(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func conflictOr(op string, err error) error {
	var se sqlite3.Error
	if errors.As(err, &se) && se.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("%s: %w", op, domain.ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// ── Movimientos ───────────────────────────────────────────────────────────────

// MovementRepo log de movimientos.
type MovementRepo struct{ q querier }

const movementColumns = `id, batch_id, type, quantity, from_location_id, to_location_id, user_id, observation, created_at`

func (r *MovementRepo) Append(ctx context.Context, m *entity.Movement) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO movements (`+movementColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.BatchID, string(m.Type), m.Quantity.String(),
		nullIfEmpty(m.FromLocationID), nullIfEmpty(m.ToLocationID),
		m.UserID, m.Observation, formatTime(m.CreatedAt),
	)
	if err != nil {
		return conflictOr("append movement", err)
	}
	return nil
}

func (r *MovementRepo) GetByID(ctx context.Context, id string) (*entity.Movement, error) {
	m, err := scanMovement(r.q.QueryRowContext(ctx, `SELECT `+movementColumns+` FROM movements WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

func (r *MovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM movements WHERE 1 = 1`
	var args []any
	if f.BatchID != "" {
		query += " AND batch_id = ?"
		args = append(args, f.BatchID)
	}
	if f.LocationID != "" {
		query += " AND (from_location_id = ? OR to_location_id = ?)"
		args = append(args, f.LocationID, f.LocationID)
	}
	if f.Type != "" {
		query += " AND type = ?"
		args = append(args, string(f.Type))
	}
	if f.From != nil {
		query += " AND created_at >= ?"
		args = append(args, formatTime(*f.From))
	}
	if f.To != nil {
		query += " AND created_at <= ?"
		args = append(args, formatTime(*f.To))
	}
	query += " ORDER BY seq"
	if f.Limit > 0 || f.Offset > 0 {
		limit := f.Limit
		if limit <= 0 {
			limit = -1
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, f.Offset)
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMovement(row scanner) (*entity.Movement, error) {
	var m entity.Movement
	var typ, createdAt string
	var from, to sql.NullString
	if err := row.Scan(&m.ID, &m.BatchID, &typ, &m.Quantity, &from, &to, &m.UserID, &m.Observation, &createdAt); err != nil {
		return nil, err
	}
	m.Type = entity.MovementType(typ)
	m.FromLocationID, m.ToLocationID = from.String, to.String
	var err error
	if m.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("movimiento %s: %w", m.ID, err)
	}
	return &m, nil
}

// ── Saldos ────────────────────────────────────────────────────────────────────

// BalanceRepo saldos por lote y ubicación.
type BalanceRepo struct{ q querier }

const balanceColumns = `id, batch_id, location_id, quantity, last_movement_at`

func (r *BalanceRepo) Get(ctx context.Context, batchID, locationID string) (*entity.Balance, error) {
	b, err := scanBalance(r.q.QueryRowContext(ctx,
		`SELECT `+balanceColumns+` FROM balances WHERE id = ?`, entity.DeriveBalanceID(batchID, locationID)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get balance: %w", err)
	}
	return b, nil
}

// GetForUpdate la transacción ya tiene el lock de escritura (BEGIN IMMEDIATE).
func (r *BalanceRepo) GetForUpdate(ctx context.Context, batchID, locationID string) (*entity.Balance, error) {
	return r.Get(ctx, batchID, locationID)
}

func (r *BalanceRepo) Insert(ctx context.Context, b *entity.Balance) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO balances (`+balanceColumns+`) VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.BatchID, b.LocationID, b.Quantity.String(), formatTime(b.LastMovementAt),
	)
	if err != nil {
		return conflictOr("insert balance", err)
	}
	return nil
}

func (r *BalanceRepo) Update(ctx context.Context, b *entity.Balance) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE balances SET quantity = ?, last_movement_at = ? WHERE id = ?`,
		b.Quantity.String(), formatTime(b.LastMovementAt), b.ID,
	)
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update balance %s: %w", b.ID, domain.ErrNotFound)
	}
	return nil
}

func (r *BalanceRepo) List(ctx context.Context, f repository.BalanceFilter) ([]*entity.Balance, error) {
	query := `SELECT ` + balanceColumns + ` FROM balances WHERE 1 = 1`
	var args []any
	if f.BatchID != "" {
		query += " AND batch_id = ?"
		args = append(args, f.BatchID)
	}
	if f.LocationID != "" {
		query += " AND location_id = ?"
		args = append(args, f.LocationID)
	}
	query += " ORDER BY batch_id, location_id"

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list balances: %w", err)
	}
	defer rows.Close()
	var list []*entity.Balance
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

func scanBalance(row scanner) (*entity.Balance, error) {
	var b entity.Balance
	var at string
	if err := row.Scan(&b.ID, &b.BatchID, &b.LocationID, &b.Quantity, &at); err != nil {
		return nil, err
	}
	var err error
	if b.LastMovementAt, err = parseTime(at); err != nil {
		return nil, fmt.Errorf("saldo %s: %w", b.ID, err)
	}
	return &b, nil
}

// ── Catálogo ──────────────────────────────────────────────────────────────────

// CatalogRepo productos, lotes y ubicaciones.
type CatalogRepo struct{ q querier }

// PutProduct usa UPSERT y no INSERT OR REPLACE: el REPLACE borra la fila y los lotes la referencian.
func (r *CatalogRepo) PutProduct(ctx context.Context, p *entity.CatalogProduct) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO catalog_products
			(id, sap_code, name, category_id, base_unit, cas_number, is_controlled, min_stock_level, is_active, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			sap_code = excluded.sap_code, name = excluded.name, category_id = excluded.category_id,
			base_unit = excluded.base_unit, cas_number = excluded.cas_number, is_controlled = excluded.is_controlled,
			min_stock_level = excluded.min_stock_level, is_active = excluded.is_active, updated_at = excluded.updated_at`,
		p.ID, p.SAPCode, p.Name, p.CategoryID, p.BaseUnit, p.CASNumber,
		p.IsControlled, p.MinStockLevel.String(), p.IsActive, formatTime(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put product: %w", err)
	}
	return nil
}

func (r *CatalogRepo) GetProduct(ctx context.Context, id string) (*entity.CatalogProduct, error) {
	var p entity.CatalogProduct
	var updated string
	err := r.q.QueryRowContext(ctx, `
		SELECT id, sap_code, name, category_id, base_unit, cas_number, is_controlled, min_stock_level, is_active, updated_at
		FROM catalog_products WHERE id = ?`, id).Scan(
		&p.ID, &p.SAPCode, &p.Name, &p.CategoryID, &p.BaseUnit, &p.CASNumber,
		&p.IsControlled, &p.MinStockLevel, &p.IsActive, &updated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if p.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, fmt.Errorf("get product %s: %w", p.ID, err)
	}
	return &p, nil
}

func (r *CatalogRepo) PutBatch(ctx context.Context, b *entity.Batch) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO batches (id, catalog_id, lot_number, expiry_date, status, unit_cost, currency, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			catalog_id = excluded.catalog_id, lot_number = excluded.lot_number, expiry_date = excluded.expiry_date,
			status = excluded.status, unit_cost = excluded.unit_cost, currency = excluded.currency`,
		b.ID, b.CatalogID, b.LotNumber, formatTimePtr(b.ExpiryDate), b.Status, b.UnitCost.String(), b.Currency, formatTime(b.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("put batch: %w", err)
	}
	return nil
}

func (r *CatalogRepo) GetBatch(ctx context.Context, id string) (*entity.Batch, error) {
	var b entity.Batch
	var expiry sql.NullString
	var created string
	err := r.q.QueryRowContext(ctx, `
		SELECT id, catalog_id, lot_number, expiry_date, status, unit_cost, currency, created_at
		FROM batches WHERE id = ?`, id).Scan(
		&b.ID, &b.CatalogID, &b.LotNumber, &expiry, &b.Status, &b.UnitCost, &b.Currency, &created,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get batch: %w", err)
	}
	if b.ExpiryDate, err = parseTimePtr(expiry); err != nil {
		return nil, fmt.Errorf("get batch %s: %w", b.ID, err)
	}
	if b.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("get batch %s: %w", b.ID, err)
	}
	return &b, nil
}

func (r *CatalogRepo) CreateLocation(ctx context.Context, l *entity.StorageLocation) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO storage_locations (id, name, type, path_string, is_active) VALUES (?, ?, ?, ?, ?)`,
		l.ID, l.Name, l.Type, l.PathString, l.IsActive,
	)
	if err != nil {
		return conflictOr("create location", err)
	}
	return nil
}

func (r *CatalogRepo) GetLocation(ctx context.Context, id string) (*entity.StorageLocation, error) {
	var l entity.StorageLocation
	err := r.q.QueryRowContext(ctx,
		`SELECT id, name, type, path_string, is_active FROM storage_locations WHERE id = ?`, id,
	).Scan(&l.ID, &l.Name, &l.Type, &l.PathString, &l.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get location: %w", err)
	}
	return &l, nil
}

// ── Registros V1 ──────────────────────────────────────────────────────────────

// LegacyItemRepo registros planos V1.
type LegacyItemRepo struct{ q querier }

const legacyColumns = `id, sap_code, name, category, base_unit, cas_number, is_controlled, min_stock_level,
	item_status, lot_number, expiry_date, date_acquired, unit_cost, currency, quantity,
	warehouse, cabinet, shelf, last_updated`

// ListUnlinked incluye catalog_id y location_id: un item puede venir enlazado a medias y esos enlaces se respetan.
func (r *LegacyItemRepo) ListUnlinked(ctx context.Context, afterID string, limit int) ([]*entity.LegacyItem, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT catalog_id, location_id, `+legacyColumns+`
		FROM legacy_items WHERE batch_id IS NULL AND id > ? ORDER BY id LIMIT ?`, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list unlinked: %w", err)
	}
	defer rows.Close()
	var list []*entity.LegacyItem
	for rows.Next() {
		var catalogID, locationID sql.NullString
		it, err := scanLegacy(rows, &catalogID, &locationID)
		if err != nil {
			return nil, fmt.Errorf("scan legacy item: %w", err)
		}
		it.CatalogID, it.LocationID = catalogID.String, locationID.String
		list = append(list, it)
	}
	return list, rows.Err()
}

func (r *LegacyItemRepo) Link(ctx context.Context, itemID, catalogID, batchID, locationID string) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE legacy_items SET catalog_id = ?, batch_id = ?, location_id = ? WHERE id = ?`,
		catalogID, batchID, locationID, itemID,
	)
	if err != nil {
		return fmt.Errorf("link legacy item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("link legacy item %s: %w", itemID, domain.ErrNotFound)
	}
	return nil
}

func (r *LegacyItemRepo) Create(ctx context.Context, it *entity.LegacyItem) error {
	_, err := r.q.ExecContext(ctx, `INSERT INTO legacy_items (catalog_id, location_id, `+legacyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullIfEmpty(it.CatalogID), nullIfEmpty(it.LocationID),
		it.ID, it.SAPCode, it.Name, it.Category, it.BaseUnit, it.CASNumber, it.IsControlled, it.MinStockLevel.String(),
		it.ItemStatus, it.LotNumber, formatTimePtr(it.ExpiryDate), formatTimePtr(it.DateAcquired),
		it.UnitCost.String(), it.Currency, it.Quantity.String(),
		it.Warehouse, it.Cabinet, it.Shelf, formatTimePtr(it.LastUpdated),
	)
	if err != nil {
		return conflictOr("create legacy item", err)
	}
	return nil
}

// Get devuelve un registro V1 con sus enlaces; nil si no existe.
func (r *LegacyItemRepo) Get(ctx context.Context, id string) (*entity.LegacyItem, error) {
	var catalogID, batchID, locationID sql.NullString
	row := r.q.QueryRowContext(ctx, `SELECT catalog_id, batch_id, location_id, `+legacyColumns+` FROM legacy_items WHERE id = ?`, id)
	it, err := scanLegacy(row, &catalogID, &batchID, &locationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get legacy item: %w", err)
	}
	it.CatalogID, it.BatchID, it.LocationID = catalogID.String, batchID.String, locationID.String
	return it, nil
}

// scanLegacy lee legacyColumns; prefix son destinos extra que preceden a esas columnas.
func scanLegacy(row scanner, prefix ...any) (*entity.LegacyItem, error) {
	var it entity.LegacyItem
	var expiry, acquired, updated sql.NullString
	dest := append(prefix,
		&it.ID, &it.SAPCode, &it.Name, &it.Category, &it.BaseUnit, &it.CASNumber, &it.IsControlled, &it.MinStockLevel,
		&it.ItemStatus, &it.LotNumber, &expiry, &acquired, &it.UnitCost, &it.Currency, &it.Quantity,
		&it.Warehouse, &it.Cabinet, &it.Shelf, &updated,
	)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	var err error
	for _, f := range []struct {
		dst **time.Time
		src sql.NullString
	}{{&it.ExpiryDate, expiry}, {&it.DateAcquired, acquired}, {&it.LastUpdated, updated}} {
		if *f.dst, err = parseTimePtr(f.src); err != nil {
			return nil, fmt.Errorf("item %s: %w", it.ID, err)
		}
	}
	return &it, nil
}
