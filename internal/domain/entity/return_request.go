package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una solicitud de devolución. pending -> approved | rejected (terminales).
const (
	ReturnStatusPending  = "pending"
	ReturnStatusApproved = "approved"
	ReturnStatusRejected = "rejected"
)

// ReturnRequest solicitud de devolución en dos fases: registrar y aprobar/rechazar.
// Mientras está pending ningún item afecta el stock.
type ReturnRequest struct {
	ID                string
	OriginalReference string // venta/factura original
	Status            string // pending, approved, rejected
	Items             []ReturnLineItem
	CreatedBy         string
	CreatedAt         time.Time
	ResolvedAt        *time.Time
	ResolvedBy        string
}

// IsTerminal indica si la solicitud ya fue aprobada o rechazada.
func (r *ReturnRequest) IsTerminal() bool {
	return r.Status != ReturnStatusPending
}

// ReturnLineItem cantidad devuelta de un producto. Si el lote original es
// identificable, ExpirationDate y UnitCost se copian de él al registrar la
// solicitud para poder preservarlos aunque el lote desaparezca después.
type ReturnLineItem struct {
	ID              string
	ReturnID        string
	ProductID       string
	LocationID      string
	Quantity        decimal.Decimal
	OriginalBatchID string // vacío si no se pudo identificar el lote de la venta
	ExpirationDate  *time.Time
	UnitCost        decimal.Decimal
	RestockBatchID  string // lote al que se restauró el stock al aprobar
}
