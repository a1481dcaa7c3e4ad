package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un traslado entre ubicaciones.
const (
	TransferStatusPending   = "pending"
	TransferStatusCompleted = "completed"
	TransferStatusFailed    = "failed"
)

// Transfer representa un traslado de stock de una ubicación a otra.
// Los line items registran qué lotes de origen se consumieron y qué lote
// de destino recibió cada porción (creado nuevo o fusionado).
type Transfer struct {
	ID               string
	ProductID        string
	SourceLocationID string
	DestLocationID   string
	Quantity         decimal.Decimal
	Status           string // pending, completed, failed
	LineItems        []TransferLineItem
	CreatedBy        string
	CreatedAt        time.Time
}

// TransferLineItem una porción del traslado: lote origen -> lote destino.
type TransferLineItem struct {
	ID             string
	TransferID     string
	SourceBatchID  string
	DestBatchID    string
	Quantity       decimal.Decimal
	UnitCost       decimal.Decimal
	ExpirationDate *time.Time
	Merged         bool // true si se fusionó en un lote destino existente
}
