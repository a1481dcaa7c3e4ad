package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/lotes-pos/internal/application/dto"
	"github.com/tu-usuario/lotes-pos/internal/application/inventory"
	"github.com/tu-usuario/lotes-pos/internal/domain/entity"
)

// TransferHandler traslados atómicos entre ubicaciones (protegido).
type TransferHandler struct {
	transferUC *inventory.TransferUseCase
	stockUC    *inventory.StockUseCase
}

// NewTransferHandler construye el handler.
func NewTransferHandler(transferUC *inventory.TransferUseCase, stockUC *inventory.StockUseCase) *TransferHandler {
	return &TransferHandler{transferUC: transferUC, stockUC: stockUC}
}

// Create godoc
// @Summary      Trasladar stock entre ubicaciones
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferRequest  true  "Traslado"
// @Success      201   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      429   {object}  dto.ErrorResponse
// @Router       /api/transfers [post]
func (h *TransferHandler) Create(c *fiber.Ctx) error {
	var in dto.TransferRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.ProductID == "" || in.SourceLocationID == "" || in.DestLocationID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "product_id, source_location_id y dest_location_id son requeridos"})
	}
	transfer, err := h.transferUC.Transfer(c.Context(), inventory.TransferInput{
		ProductID:        in.ProductID,
		SourceLocationID: in.SourceLocationID,
		DestLocationID:   in.DestLocationID,
		Quantity:         in.Quantity,
		UserID:           GetUserID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toTransferResponse(transfer))
}

// GetByID godoc
// @Summary      Obtener traslado por ID
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del traslado"
// @Success      200  {object}  dto.TransferResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id} [get]
func (h *TransferHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_ID", Message: "id es requerido"})
	}
	transfer, err := h.stockUC.GetTransfer(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toTransferResponse(transfer))
}

// List godoc
// @Summary      Listar traslados
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.TransferResponse
// @Router       /api/transfers [get]
func (h *TransferHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "paginación inválida"})
	}
	page.DefaultPage()
	transfers, err := h.stockUC.ListTransfers(c.Context(), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.TransferResponse, 0, len(transfers))
	for i := range transfers {
		out = append(out, toTransferResponse(&transfers[i]))
	}
	return c.JSON(out)
}

func toTransferResponse(t *entity.Transfer) dto.TransferResponse {
	out := dto.TransferResponse{
		ID:               t.ID,
		ProductID:        t.ProductID,
		SourceLocationID: t.SourceLocationID,
		DestLocationID:   t.DestLocationID,
		Quantity:         t.Quantity,
		Status:           t.Status,
		CreatedAt:        t.CreatedAt,
	}
	for _, it := range t.LineItems {
		out.LineItems = append(out.LineItems, dto.TransferLineItemDTO{
			SourceBatchID:  it.SourceBatchID,
			DestBatchID:    it.DestBatchID,
			Quantity:       it.Quantity,
			UnitCost:       it.UnitCost,
			ExpirationDate: it.ExpirationDate,
			Merged:         it.Merged,
		})
	}
	return out
}
