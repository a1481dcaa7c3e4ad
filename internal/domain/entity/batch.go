package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Origen de un lote (source_kind).
const (
	BatchSourcePurchase   = "purchase"    // recepción de compra
	BatchSourceTransferIn = "transfer_in" // entrada por traslado
	BatchSourceReturn     = "return"      // devolución aprobada
)

// Batch representa un lote fechado y costeado de un producto en una ubicación.
// Los lotes nunca se borran: al agotarse quedan en cantidad 0 como rastro de auditoría.
// QuantityOnHand = InitialQuantity + Σ deltas del ledger del lote.
type Batch struct {
	ID              string
	ProductID       string
	LocationID      string
	QuantityOnHand  decimal.Decimal
	InitialQuantity decimal.Decimal // cantidad recibida al crear el lote (0 si entra vía ledger)
	ExpirationDate  *time.Time      // nil = sin vencimiento, ordena al final
	UnitCost        decimal.Decimal
	ReceivedAt      time.Time
	SourceKind      string // purchase, transfer_in, return
	Version         int64  // se incrementa en cada mutación; detecta planes obsoletos
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsOpen indica si el lote todavía tiene existencias disponibles.
func (b *Batch) IsOpen() bool {
	return b.QuantityOnHand.IsPositive()
}

// SameLot indica si otro vencimiento/costo corresponde al mismo lote lógico
// (política de fusión en traslados: mismo vencimiento y mismo costo unitario).
func (b *Batch) SameLot(expiration *time.Time, unitCost decimal.Decimal) bool {
	if !b.UnitCost.Equal(unitCost) {
		return false
	}
	if b.ExpirationDate == nil || expiration == nil {
		return b.ExpirationDate == nil && expiration == nil
	}
	return b.ExpirationDate.Equal(*expiration)
}
