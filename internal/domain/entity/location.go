package entity

import "time"

// Tipos de ubicación.
const (
	LocationTypeWarehouse = "warehouse" // bodega
	LocationTypeStore     = "store"     // punto de venta
)

// Location representa una bodega o punto de venta donde se almacena inventario.
type Location struct {
	ID        string
	Name      string
	Type      string // warehouse, store
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
