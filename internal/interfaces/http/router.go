package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/lotes-pos/internal/application/auth"
	"github.com/tu-usuario/lotes-pos/internal/application/inventory"
	"github.com/tu-usuario/lotes-pos/internal/application/usecase"
	"github.com/tu-usuario/lotes-pos/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC     *auth.AuthUseCase
	ProductUC  *usecase.ProductUseCase
	LocationUC *usecase.LocationUseCase
	ReceiveUC  *inventory.ReceiveUseCase
	PlanUC     *inventory.PlanUseCase
	ConsumeUC  *inventory.ConsumeUseCase
	TransferUC *inventory.TransferUseCase
	ReturnUC   *inventory.ReturnUseCase
	AdjustUC   *inventory.AdjustUseCase
	StockUC    *inventory.StockUseCase
	JWTSecret  string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Catálogo (protegido)
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Post("/", RequireRole(entity.RoleAdmin, entity.RoleBodeguero), productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", RequireRole(entity.RoleAdmin, entity.RoleBodeguero), productHandler.Update)

	// Ubicaciones (protegido)
	locations := protected.Group("/locations")
	locationHandler := NewLocationHandler(deps.LocationUC)
	locations.Post("/", RequireRole(entity.RoleAdmin), locationHandler.Create)
	locations.Get("/", locationHandler.List)
	locations.Get("/:id", locationHandler.GetByID)
	locations.Put("/:id", RequireRole(entity.RoleAdmin), locationHandler.Update)

	// Inventario por lotes (protegido)
	invGroup := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.ReceiveUC, deps.PlanUC, deps.ConsumeUC, deps.StockUC)
	invGroup.Post("/batches", RequireRole(entity.RoleAdmin, entity.RoleBodeguero), inventoryHandler.ReceiveBatch)
	invGroup.Get("/batches", inventoryHandler.ListBatches)
	invGroup.Get("/batches/:id/ledger", inventoryHandler.BatchLedger)
	invGroup.Get("/batches/:id/audit", inventoryHandler.AuditBatch)
	invGroup.Post("/plan", inventoryHandler.Plan)
	invGroup.Post("/consume", inventoryHandler.Consume)
	invGroup.Get("/stock", inventoryHandler.Stock)

	// Traslados (protegido)
	transfers := protected.Group("/transfers")
	transferHandler := NewTransferHandler(deps.TransferUC, deps.StockUC)
	transfers.Post("/", RequireRole(entity.RoleAdmin, entity.RoleBodeguero), transferHandler.Create)
	transfers.Get("/", transferHandler.List)
	transfers.Get("/:id", transferHandler.GetByID)

	// Devoluciones (protegido)
	returns := protected.Group("/returns")
	returnHandler := NewReturnHandler(deps.ReturnUC, deps.StockUC)
	returns.Post("/", returnHandler.Request)
	returns.Get("/:id", returnHandler.GetByID)
	returns.Post("/:id/approve", RequireRole(entity.RoleAdmin, entity.RoleBodeguero), returnHandler.Approve)
	returns.Post("/:id/reject", RequireRole(entity.RoleAdmin, entity.RoleBodeguero), returnHandler.Reject)

	// Ajustes manuales (protegido)
	adjustments := protected.Group("/adjustments")
	adjustmentHandler := NewAdjustmentHandler(deps.AdjustUC)
	adjustments.Post("/", RequireRole(entity.RoleAdmin, entity.RoleBodeguero), adjustmentHandler.Create)
}
