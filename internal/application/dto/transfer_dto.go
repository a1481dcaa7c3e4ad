package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferRequest body para POST /api/transfers.
type TransferRequest struct {
	ProductID        string          `json:"product_id"`
	SourceLocationID string          `json:"source_location_id"`
	DestLocationID   string          `json:"dest_location_id"`
	Quantity         decimal.Decimal `json:"quantity"`
}

// TransferLineItemDTO porción del traslado: lote origen -> lote destino.
type TransferLineItemDTO struct {
	SourceBatchID  string          `json:"source_batch_id"`
	DestBatchID    string          `json:"dest_batch_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
	ExpirationDate *time.Time      `json:"expiration_date,omitempty"`
	Merged         bool            `json:"merged"`
}

// TransferResponse traslado con sus line items.
type TransferResponse struct {
	ID               string                `json:"id"`
	ProductID        string                `json:"product_id"`
	SourceLocationID string                `json:"source_location_id"`
	DestLocationID   string                `json:"dest_location_id"`
	Quantity         decimal.Decimal       `json:"quantity"`
	Status           string                `json:"status"`
	LineItems        []TransferLineItemDTO `json:"line_items,omitempty"`
	CreatedAt        time.Time             `json:"created_at"`
}
