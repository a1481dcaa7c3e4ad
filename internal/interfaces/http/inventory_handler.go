package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/lotes-pos/internal/application/dto"
	"github.com/tu-usuario/lotes-pos/internal/application/inventory"
	"github.com/tu-usuario/lotes-pos/internal/domain/allocation"
	"github.com/tu-usuario/lotes-pos/internal/domain/entity"
)

// InventoryHandler operaciones sobre lotes: recepción, planificación FIFO,
// consumo y consultas de existencias y ledger (protegido).
type InventoryHandler struct {
	receiveUC *inventory.ReceiveUseCase
	planUC    *inventory.PlanUseCase
	consumeUC *inventory.ConsumeUseCase
	stockUC   *inventory.StockUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(
	receiveUC *inventory.ReceiveUseCase,
	planUC *inventory.PlanUseCase,
	consumeUC *inventory.ConsumeUseCase,
	stockUC *inventory.StockUseCase,
) *InventoryHandler {
	return &InventoryHandler{receiveUC: receiveUC, planUC: planUC, consumeUC: consumeUC, stockUC: stockUC}
}

// ReceiveBatch godoc
// @Summary      Recibir lote de compra
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReceiveBatchRequest  true  "Lote recibido"
// @Success      201   {object}  dto.BatchDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/batches [post]
func (h *InventoryHandler) ReceiveBatch(c *fiber.Ctx) error {
	var in dto.ReceiveBatchRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.ProductID == "" || in.LocationID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "product_id y location_id son requeridos"})
	}
	batch, err := h.receiveUC.Receive(c.Context(), inventory.ReceiveInput{
		ProductID:      in.ProductID,
		LocationID:     in.LocationID,
		Quantity:       in.Quantity,
		ExpirationDate: in.ExpirationDate,
		UnitCost:       in.UnitCost,
		UserID:         GetUserID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toBatchDTO(batch))
}

// Plan godoc
// @Summary      Planificar consumo FIFO (solo lectura)
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.PlanRequest  true  "Cantidad a planificar"
// @Success      200   {object}  dto.PlanResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/plan [post]
func (h *InventoryHandler) Plan(c *fiber.Ctx) error {
	var in dto.PlanRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	plan, err := h.planUC.Plan(c.Context(), in.ProductID, in.LocationID, in.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toPlanResponse(plan))
}

// Consume godoc
// @Summary      Consumir stock según un plan (venta POS)
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ConsumeRequest  true  "Plan a aplicar"
// @Success      204   "Sin contenido"
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      429   {object}  dto.ErrorResponse
// @Router       /api/inventory/consume [post]
func (h *InventoryHandler) Consume(c *fiber.Ctx) error {
	var in dto.ConsumeRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.Reason == "" {
		in.Reason = entity.LedgerReasonSale
	}
	plan := &allocation.Plan{
		ProductID:  in.ProductID,
		LocationID: in.LocationID,
		Requested:  in.Quantity,
	}
	for _, l := range in.Lines {
		plan.Lines = append(plan.Lines, allocation.Line{
			BatchID:      l.BatchID,
			Quantity:     l.Quantity,
			BatchVersion: l.BatchVersion,
		})
	}
	err := h.consumeUC.Consume(c.Context(), inventory.ConsumeInput{
		Plan:           plan,
		Reason:         in.Reason,
		ReferenceID:    in.ReferenceID,
		IdempotencyKey: in.IdempotencyKey,
		UserID:         GetUserID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Stock godoc
// @Summary      Existencia total de un producto en una ubicación
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id   query  string  true  "ID del producto"
// @Param        location_id  query  string  true  "ID de la ubicación"
// @Success      200  {object}  dto.StockResponse
// @Router       /api/inventory/stock [get]
func (h *InventoryHandler) Stock(c *fiber.Ctx) error {
	productID := c.Query("product_id")
	locationID := c.Query("location_id")
	if productID == "" || locationID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "product_id y location_id son requeridos"})
	}
	qty, err := h.stockUC.StockLevel(c.Context(), productID, locationID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.StockResponse{ProductID: productID, LocationID: locationID, Quantity: qty})
}

// ListBatches godoc
// @Summary      Listar lotes en orden FIFO
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id   query  string  true   "ID del producto"
// @Param        location_id  query  string  true   "ID de la ubicación"
// @Param        only_open    query  bool    false  "Solo lotes con existencias"  default(true)
// @Success      200  {array}  dto.BatchDTO
// @Router       /api/inventory/batches [get]
func (h *InventoryHandler) ListBatches(c *fiber.Ctx) error {
	productID := c.Query("product_id")
	locationID := c.Query("location_id")
	if productID == "" || locationID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "product_id y location_id son requeridos"})
	}
	onlyOpen := c.QueryBool("only_open", true)
	batches, err := h.stockUC.ListBatches(c.Context(), productID, locationID, onlyOpen)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.BatchDTO, 0, len(batches))
	for i := range batches {
		out = append(out, toBatchDTO(&batches[i]))
	}
	return c.JSON(out)
}

// BatchLedger godoc
// @Summary      Ledger de un lote (más recientes primero)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id      path   string  true   "ID del lote"
// @Param        limit   query  int     false  "Límite"  default(20)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200  {array}  dto.LedgerEntryDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/batches/{id}/ledger [get]
func (h *InventoryHandler) BatchLedger(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_ID", Message: "id es requerido"})
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "paginación inválida"})
	}
	page.DefaultPage()
	entries, err := h.stockUC.BatchLedger(c.Context(), id, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.LedgerEntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.LedgerEntryDTO{
			ID:          e.ID,
			BatchID:     e.BatchID,
			Delta:       e.Delta,
			Reason:      e.Reason,
			ReferenceID: e.ReferenceID,
			CreatedAt:   e.CreatedAt,
		})
	}
	return c.JSON(out)
}

// AuditBatch godoc
// @Summary      Auditar conservación de un lote
// @Description  Verifica quantity_on_hand = initial_quantity + Σ deltas del ledger.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del lote"
// @Success      200  {object}  map[string]bool
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/batches/{id}/audit [get]
func (h *InventoryHandler) AuditBatch(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_ID", Message: "id es requerido"})
	}
	ok, err := h.stockUC.AuditBatch(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"batch_id": id, "consistent": ok})
}

func toBatchDTO(b *entity.Batch) dto.BatchDTO {
	return dto.BatchDTO{
		ID:              b.ID,
		ProductID:       b.ProductID,
		LocationID:      b.LocationID,
		QuantityOnHand:  b.QuantityOnHand,
		InitialQuantity: b.InitialQuantity,
		ExpirationDate:  b.ExpirationDate,
		UnitCost:        b.UnitCost,
		ReceivedAt:      b.ReceivedAt,
		SourceKind:      b.SourceKind,
	}
}

func toPlanResponse(p *allocation.Plan) dto.PlanResponse {
	out := dto.PlanResponse{
		ProductID:  p.ProductID,
		LocationID: p.LocationID,
		Requested:  p.Requested,
	}
	for _, l := range p.Lines {
		out.Lines = append(out.Lines, dto.PlanLineDTO{
			BatchID:      l.BatchID,
			Quantity:     l.Quantity,
			BatchVersion: l.BatchVersion,
		})
	}
	return out
}
