package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/lotes-pos/internal/application/dto"
	"github.com/tu-usuario/lotes-pos/internal/application/inventory"
)

// AdjustmentHandler ajustes manuales de stock (protegido, solo admin/bodeguero).
type AdjustmentHandler struct {
	adjustUC *inventory.AdjustUseCase
}

// NewAdjustmentHandler construye el handler.
func NewAdjustmentHandler(adjustUC *inventory.AdjustUseCase) *AdjustmentHandler {
	return &AdjustmentHandler{adjustUC: adjustUC}
}

// Create godoc
// @Summary      Ajustar stock de un lote (merma, daño, conteo físico)
// @Tags         adjustments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustmentRequest  true  "Ajuste"
// @Success      201   {object}  dto.AdjustmentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/adjustments [post]
func (h *AdjustmentHandler) Create(c *fiber.Ctx) error {
	var in dto.AdjustmentRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.BatchID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "batch_id es requerido"})
	}
	record, err := h.adjustUC.Adjust(c.Context(), inventory.AdjustInput{
		BatchID: in.BatchID,
		Delta:   in.Delta,
		Reason:  in.Reason,
		UserID:  GetUserID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.AdjustmentResponse{
		ID:          record.ID,
		BatchID:     record.BatchID,
		Delta:       record.Delta,
		Reason:      record.Reason,
		PerformedAt: record.PerformedAt,
	})
}
