package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// AdjustmentRequest body para POST /api/adjustments. El motivo es obligatorio.
type AdjustmentRequest struct {
	BatchID string          `json:"batch_id"`
	Delta   decimal.Decimal `json:"delta"`
	Reason  string          `json:"reason"`
}

// AdjustmentResponse ajuste aplicado.
type AdjustmentResponse struct {
	ID          string          `json:"id"`
	BatchID     string          `json:"batch_id"`
	Delta       decimal.Decimal `json:"delta"`
	Reason      string          `json:"reason"`
	PerformedAt time.Time       `json:"performed_at"`
}
