package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto o SKU del catálogo (entidad de referencia,
// propiedad del subsistema de catálogo; el núcleo solo la consulta).
type Product struct {
	ID          string
	SKU         string // código único
	Name        string
	Description string
	Price       decimal.Decimal // precio de venta
	UnitMeasure string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
