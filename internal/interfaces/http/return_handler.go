package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/lotes-pos/internal/application/dto"
	"github.com/tu-usuario/lotes-pos/internal/application/inventory"
	"github.com/tu-usuario/lotes-pos/internal/domain/entity"
)

// ReturnHandler devoluciones en dos fases (protegido).
type ReturnHandler struct {
	returnUC *inventory.ReturnUseCase
	stockUC  *inventory.StockUseCase
}

// NewReturnHandler construye el handler.
func NewReturnHandler(returnUC *inventory.ReturnUseCase, stockUC *inventory.StockUseCase) *ReturnHandler {
	return &ReturnHandler{returnUC: returnUC, stockUC: stockUC}
}

// Request godoc
// @Summary      Registrar solicitud de devolución (sin efecto en stock)
// @Tags         returns
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RequestReturnRequest  true  "Solicitud"
// @Success      201   {object}  dto.ReturnResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/returns [post]
func (h *ReturnHandler) Request(c *fiber.Ctx) error {
	var in dto.RequestReturnRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.OriginalReference == "" || len(in.Items) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "original_reference e items son requeridos"})
	}
	input := inventory.RequestReturnInput{
		OriginalReference: in.OriginalReference,
		UserID:            GetUserID(c),
	}
	for _, it := range in.Items {
		input.Items = append(input.Items, inventory.ReturnItemInput{
			ProductID:       it.ProductID,
			LocationID:      it.LocationID,
			Quantity:        it.Quantity,
			OriginalBatchID: it.OriginalBatchID,
		})
	}
	ret, err := h.returnUC.Request(c.Context(), input)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toReturnResponse(ret))
}

// Approve godoc
// @Summary      Aprobar devolución (restaura el stock)
// @Tags         returns
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la solicitud"
// @Success      200  {object}  dto.ReturnResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/returns/{id}/approve [post]
func (h *ReturnHandler) Approve(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_ID", Message: "id es requerido"})
	}
	ret, err := h.returnUC.Approve(c.Context(), id, GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toReturnResponse(ret))
}

// Reject godoc
// @Summary      Rechazar devolución (sin efecto en stock)
// @Tags         returns
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la solicitud"
// @Success      200  {object}  dto.ReturnResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/returns/{id}/reject [post]
func (h *ReturnHandler) Reject(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_ID", Message: "id es requerido"})
	}
	ret, err := h.returnUC.Reject(c.Context(), id, GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toReturnResponse(ret))
}

// GetByID godoc
// @Summary      Obtener devolución por ID
// @Tags         returns
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la solicitud"
// @Success      200  {object}  dto.ReturnResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/returns/{id} [get]
func (h *ReturnHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_ID", Message: "id es requerido"})
	}
	ret, err := h.stockUC.GetReturn(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toReturnResponse(ret))
}

func toReturnResponse(r *entity.ReturnRequest) dto.ReturnResponse {
	out := dto.ReturnResponse{
		ID:                r.ID,
		OriginalReference: r.OriginalReference,
		Status:            r.Status,
		CreatedAt:         r.CreatedAt,
		ResolvedAt:        r.ResolvedAt,
	}
	for _, it := range r.Items {
		out.Items = append(out.Items, dto.ReturnItemDTO{
			ProductID:       it.ProductID,
			LocationID:      it.LocationID,
			Quantity:        it.Quantity,
			OriginalBatchID: it.OriginalBatchID,
			RestockBatchID:  it.RestockBatchID,
		})
	}
	return out
}
