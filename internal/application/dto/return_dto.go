package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReturnItemRequest un renglón de la solicitud de devolución.
type ReturnItemRequest struct {
	ProductID       string          `json:"product_id"`
	LocationID      string          `json:"location_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	OriginalBatchID string          `json:"original_batch_id,omitempty"`
}

// RequestReturnRequest body para POST /api/returns.
type RequestReturnRequest struct {
	OriginalReference string              `json:"original_reference"`
	Items             []ReturnItemRequest `json:"items"`
}

// ReturnItemDTO renglón de devolución en respuestas.
type ReturnItemDTO struct {
	ProductID       string          `json:"product_id"`
	LocationID      string          `json:"location_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	OriginalBatchID string          `json:"original_batch_id,omitempty"`
	RestockBatchID  string          `json:"restock_batch_id,omitempty"`
}

// ReturnResponse solicitud de devolución con sus items.
type ReturnResponse struct {
	ID                string          `json:"id"`
	OriginalReference string          `json:"original_reference"`
	Status            string          `json:"status"`
	Items             []ReturnItemDTO `json:"items"`
	CreatedAt         time.Time       `json:"created_at"`
	ResolvedAt        *time.Time      `json:"resolved_at,omitempty"`
}
