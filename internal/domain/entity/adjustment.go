package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// AdjustmentRecord ajuste manual sobre un lote (merma, daño, conteo físico).
// El motivo es obligatorio; el delta nunca deja el lote en negativo.
type AdjustmentRecord struct {
	ID          string
	BatchID     string
	Delta       decimal.Decimal
	Reason      string
	PerformedBy string
	PerformedAt time.Time
}
