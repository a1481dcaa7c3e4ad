package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Causas de movimiento en el ledger (reason).
const (
	LedgerReasonSale        = "sale"
	LedgerReasonTransferOut = "transfer_out"
	LedgerReasonTransferIn  = "transfer_in"
	LedgerReasonReturn      = "return"
	LedgerReasonAdjustment  = "adjustment"
)

// LedgerEntry registra un cambio de cantidad sobre un lote y su causa.
// Append-only: nunca se actualiza ni se borra.
type LedgerEntry struct {
	ID             string
	BatchID        string
	ProductID      string
	LocationID     string
	Delta          decimal.Decimal // negativo para salidas, positivo para entradas
	Reason         string          // sale, transfer_out, transfer_in, return, adjustment
	ReferenceID    string          // venta, traslado, devolución o ajuste que originó el cambio
	IdempotencyKey string          // clave del cliente para reintentos seguros; vacía si no aplica
	CreatedBy      string
	CreatedAt      time.Time
}
