package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/labstock/internal/application/dto"
	"github.com/jhoicas/labstock/internal/application/inventory"
	"github.com/jhoicas/labstock/internal/domain"
	"github.com/jhoicas/labstock/internal/domain/entity"
	"github.com/jhoicas/labstock/internal/domain/repository"
)

// maxPageLimit tope de movimientos por página.
const maxPageLimit = 500

// LedgerHandler maneja movimientos, saldos y conciliación.
type LedgerHandler struct {
	registerUC  *inventory.RegisterMovementUseCase
	queryUC     *inventory.LedgerQueryUseCase
	reconcileUC *inventory.ReconcileUseCase
}

// NewLedgerHandler construye el handler.
func NewLedgerHandler(registerUC *inventory.RegisterMovementUseCase, queryUC *inventory.LedgerQueryUseCase, reconcileUC *inventory.ReconcileUseCase) *LedgerHandler {
	return &LedgerHandler{registerUC: registerUC, queryUC: queryUC, reconcileUC: reconcileUC}
}

// RegisterMovement registra un movimiento y actualiza los saldos en la misma transacción.
// @Summary      Registrar movimiento
// @Description  Tipos: ENTRADA (to), SAIDA (from), TRANSFERENCIA (from y to), AJUSTE (exactamente uno).
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      dto.RegisterMovementRequest  true  "Movimiento"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/ledger/movements [post]
func (h *LedgerHandler) RegisterMovement(c *fiber.Ctx) error {
	var req dto.RegisterMovementRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	mov, err := h.registerUC.RegisterMovementFromRequest(c.UserContext(), GetUserID(c), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResponse(mov))
}

// AdjustToTarget ajusta el saldo de un par lote/ubicación a una cantidad total.
// @Summary      Ajuste a cantidad objetivo
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      dto.AdjustTargetRequest  true  "Ajuste"
// @Success      201   {object}  dto.MovementResponse
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/ledger/adjustments [post]
func (h *LedgerHandler) AdjustToTarget(c *fiber.Ctx) error {
	var req dto.AdjustTargetRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	mov, err := h.registerUC.AdjustToTargetFromRequest(c.UserContext(), GetUserID(c), req)
	if err != nil {
		return writeError(c, err)
	}
	if mov == nil {
		return c.JSON(fiber.Map{"message": "sin cambios"})
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResponse(mov))
}

// ListMovements consulta el log en orden de inserción.
// @Summary      Historial de movimientos
// @Tags         ledger
// @Produce      json
// @Security     BearerAuth
// @Param        batch_id     query  string  false  "Lote"
// @Param        location_id  query  string  false  "Ubicación (origen o destino)"
// @Param        type         query  string  false  "Tipo"
// @Param        from         query  string  false  "Desde (RFC3339)"
// @Param        to           query  string  false  "Hasta (RFC3339)"
// @Param        limit        query  int     false  "Límite"
// @Param        offset       query  int     false  "Offset"
// @Success      200  {object}  dto.MovementListResponse
// @Router       /api/ledger/movements [get]
func (h *LedgerHandler) ListMovements(c *fiber.Ctx) error {
	var q dto.MovementQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: err.Error()})
	}
	page := q.Page()
	if page.Limit > maxPageLimit {
		page.Limit = maxPageLimit
	}
	filter := repository.MovementFilter{
		BatchID:    q.BatchID,
		LocationID: q.LocationID,
		Type:       entity.MovementType(q.Type),
		Limit:      page.Limit,
		Offset:     page.Offset,
	}
	if q.Type != "" && !filter.Type.Valid() {
		return writeError(c, domain.NewValidationError("type", "tipo desconocido: "+q.Type))
	}
	var err error
	if filter.From, err = parseTimeParam("from", q.From); err != nil {
		return writeError(c, err)
	}
	if filter.To, err = parseTimeParam("to", q.To); err != nil {
		return writeError(c, err)
	}
	list, err := h.queryUC.ListMovements(c.UserContext(), filter)
	if err != nil {
		return writeError(c, err)
	}
	items := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		items = append(items, *toMovementResponse(m))
	}
	return c.JSON(dto.MovementListResponse{Items: items, Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset}})
}

// ListBalances lista saldos filtrando por lote y/o ubicación.
// @Summary      Saldos
// @Tags         ledger
// @Produce      json
// @Security     BearerAuth
// @Param        batch_id     query  string  false  "Lote"
// @Param        location_id  query  string  false  "Ubicación"
// @Success      200  {array}  dto.BalanceResponse
// @Router       /api/ledger/balances [get]
func (h *LedgerHandler) ListBalances(c *fiber.Ctx) error {
	list, err := h.queryUC.ListBalances(c.UserContext(), repository.BalanceFilter{
		BatchID:    c.Query("batch_id"),
		LocationID: c.Query("location_id"),
	})
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.BalanceResponse, 0, len(list))
	for _, b := range list {
		out = append(out, toBalanceResponse(b))
	}
	return c.JSON(out)
}

// GetBalance saldo de un par lote/ubicación.
// @Summary      Saldo por lote y ubicación
// @Tags         ledger
// @Produce      json
// @Security     BearerAuth
// @Param        batchId     path  string  true  "Lote"
// @Param        locationId  path  string  true  "Ubicación"
// @Success      200  {object}  dto.BalanceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/ledger/balances/{batchId}/{locationId} [get]
func (h *LedgerHandler) GetBalance(c *fiber.Ctx) error {
	b, err := h.queryUC.GetBalance(c.UserContext(), c.Params("batchId"), c.Params("locationId"))
	if err != nil {
		return writeError(c, err)
	}
	if b == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "sin saldo para ese lote en esa ubicación"})
	}
	return c.JSON(toBalanceResponse(b))
}

// Reconcile reproduce el log y lo compara con los saldos almacenados.
// @Summary      Conciliación del ledger
// @Tags         ledger
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.ReconcileResponse
// @Router       /api/ledger/reconciliation [get]
func (h *LedgerHandler) Reconcile(c *fiber.Ctx) error {
	rep, err := h.reconcileUC.Reconcile(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toReconcileResponse(rep))
}

func parseTimeParam(field, v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, domain.NewValidationError(field, "fecha RFC3339 inválida")
	}
	return &t, nil
}

func toMovementResponse(m *entity.Movement) *dto.MovementResponse {
	return &dto.MovementResponse{
		ID:             m.ID,
		BatchID:        m.BatchID,
		Type:           string(m.Type),
		Quantity:       m.Quantity,
		FromLocationID: m.FromLocationID,
		ToLocationID:   m.ToLocationID,
		UserID:         m.UserID,
		Observation:    m.Observation,
		CreatedAt:      m.CreatedAt,
	}
}

func toBalanceResponse(b *entity.Balance) dto.BalanceResponse {
	return dto.BalanceResponse{
		ID:             b.ID,
		BatchID:        b.BatchID,
		LocationID:     b.LocationID,
		Quantity:       b.Quantity,
		LastMovementAt: b.LastMovementAt,
	}
}

func toReconcileResponse(r *inventory.ReconcileReport) dto.ReconcileResponse {
	out := dto.ReconcileResponse{
		Consistent:   r.Consistent(),
		Movements:    r.Movements,
		Balances:     r.Balances,
		Matches:      r.Matches,
		Mismatches:   make([]dto.BalanceDriftResponse, 0, len(r.Mismatches)),
		NegativeRows: append([]string{}, r.NegativeRows...),
		Violations:   append([]string{}, r.Violations...),
	}
	for _, d := range r.Mismatches {
		out.Mismatches = append(out.Mismatches, dto.BalanceDriftResponse{
			BalanceID:  d.BalanceID,
			BatchID:    d.BatchID,
			LocationID: d.LocationID,
			Expected:   d.Expected,
			Stored:     d.Stored,
		})
	}
	return out
}
