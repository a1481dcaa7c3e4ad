package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReceiveBatchRequest body para POST /api/inventory/batches (recepción de compra).
type ReceiveBatchRequest struct {
	ProductID      string          `json:"product_id"`
	LocationID     string          `json:"location_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	ExpirationDate *time.Time      `json:"expiration_date,omitempty"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
}

// PlanRequest body para POST /api/inventory/plan.
type PlanRequest struct {
	ProductID  string          `json:"product_id"`
	LocationID string          `json:"location_id"`
	Quantity   decimal.Decimal `json:"quantity"`
}

// PlanLineDTO una porción del plan propuesto.
type PlanLineDTO struct {
	BatchID      string          `json:"batch_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	BatchVersion int64           `json:"batch_version"`
}

// PlanResponse plan FIFO propuesto, todavía sin aplicar.
type PlanResponse struct {
	ProductID  string          `json:"product_id"`
	LocationID string          `json:"location_id"`
	Requested  decimal.Decimal `json:"requested"`
	Lines      []PlanLineDTO   `json:"lines"`
}

// ConsumeRequest body para POST /api/inventory/consume. El plan viene de una
// llamada previa a /plan; idempotency_key permite reintentar sin doble descuento.
type ConsumeRequest struct {
	ProductID      string          `json:"product_id"`
	LocationID     string          `json:"location_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	Lines          []PlanLineDTO   `json:"lines"`
	Reason         string          `json:"reason"` // sale
	ReferenceID    string          `json:"reference_id"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
}

// BatchDTO lote en respuestas.
type BatchDTO struct {
	ID              string          `json:"id"`
	ProductID       string          `json:"product_id"`
	LocationID      string          `json:"location_id"`
	QuantityOnHand  decimal.Decimal `json:"quantity_on_hand"`
	InitialQuantity decimal.Decimal `json:"initial_quantity"`
	ExpirationDate  *time.Time      `json:"expiration_date,omitempty"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	ReceivedAt      time.Time       `json:"received_at"`
	SourceKind      string          `json:"source_kind"`
}

// StockResponse existencia total de un producto en una ubicación.
type StockResponse struct {
	ProductID  string          `json:"product_id"`
	LocationID string          `json:"location_id"`
	Quantity   decimal.Decimal `json:"quantity"`
}

// LedgerEntryDTO entrada del ledger en respuestas.
type LedgerEntryDTO struct {
	ID          string          `json:"id"`
	BatchID     string          `json:"batch_id"`
	Delta       decimal.Decimal `json:"delta"`
	Reason      string          `json:"reason"`
	ReferenceID string          `json:"reference_id"`
	CreatedAt   time.Time       `json:"created_at"`
}
