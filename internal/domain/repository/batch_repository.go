package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/lotes-pos/internal/domain/entity"
)

// BatchRepository define el puerto de persistencia para lotes.
// Los métodos *ForUpdate bloquean las filas (SELECT FOR UPDATE) y solo tienen
// sentido dentro de una transacción.
type BatchRepository interface {
	Create(ctx context.Context, batch *entity.Batch) error
	GetByID(ctx context.Context, id string) (*entity.Batch, error)
	GetByIDForUpdate(ctx context.Context, id string) (*entity.Batch, error)
	// List devuelve todos los lotes de un producto en una ubicación, incluidos
	// los agotados (cantidad 0), en orden FIFO.
	List(ctx context.Context, productID, locationID string) ([]entity.Batch, error)
	// ListOpen devuelve solo lotes con existencias, en orden FIFO.
	ListOpen(ctx context.Context, productID, locationID string) ([]entity.Batch, error)
	ListOpenForUpdate(ctx context.Context, productID, locationID string) ([]entity.Batch, error)
	// FindOpenMatchForUpdate busca un lote abierto con el mismo vencimiento y
	// costo unitario (política de fusión de traslados). Devuelve nil si no hay.
	FindOpenMatchForUpdate(ctx context.Context, productID, locationID string, expiration *time.Time, unitCost decimal.Decimal) (*entity.Batch, error)
	// ApplyDelta suma delta a quantity_on_hand e incrementa version. Falla con
	// ErrInvalidQuantity si el resultado quedaría negativo y con ErrNotFound si
	// el lote no existe.
	ApplyDelta(ctx context.Context, batchID string, delta decimal.Decimal) error
	// StockLevel devuelve la existencia total: Σ quantity_on_hand de los lotes.
	StockLevel(ctx context.Context, productID, locationID string) (decimal.Decimal, error)
}
