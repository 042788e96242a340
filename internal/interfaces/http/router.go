package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/labstock/internal/application/catalog"
	"github.com/jhoicas/labstock/internal/application/inventory"
	"github.com/jhoicas/labstock/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	RegisterMovement *inventory.RegisterMovementUseCase
	LedgerQuery      *inventory.LedgerQueryUseCase
	Reconcile        *inventory.ReconcileUseCase
	CatalogUC        *catalog.CatalogUseCase
	JWTSecret        string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Ledger: cualquier usuario autenticado; el actor sale del token
	ledger := protected.Group("/ledger")
	ledgerHandler := NewLedgerHandler(deps.RegisterMovement, deps.LedgerQuery, deps.Reconcile)
	ledger.Post("/movements", ledgerHandler.RegisterMovement)
	ledger.Get("/movements", ledgerHandler.ListMovements)
	ledger.Post("/adjustments", ledgerHandler.AdjustToTarget)
	ledger.Get("/balances", ledgerHandler.ListBalances)
	ledger.Get("/balances/:batchId/:locationId", ledgerHandler.GetBalance)
	ledger.Get("/reconciliation", ledgerHandler.Reconcile)

	// Catálogo: lectura libre, escritura solo admin
	cat := protected.Group("/catalog")
	catalogHandler := NewCatalogHandler(deps.CatalogUC)
	adminOnly := RequireRole(jwt.RoleAdmin)
	cat.Post("/products", adminOnly, catalogHandler.CreateProduct)
	cat.Post("/batches", adminOnly, catalogHandler.CreateBatch)
	cat.Get("/batches/:id", catalogHandler.GetBatch)
	cat.Post("/locations", adminOnly, catalogHandler.CreateLocation)
	cat.Get("/locations/:id", catalogHandler.GetLocation)
}
