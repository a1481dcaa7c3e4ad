package repository

import (
	"context"
	"time"

	"github.com/tu-usuario/lotes-pos/internal/domain/entity"
)

// ReturnRepository define el puerto de persistencia para devoluciones.
type ReturnRepository interface {
	// Create persiste la solicitud con sus items (estado pending).
	Create(ctx context.Context, ret *entity.ReturnRequest) error
	GetByID(ctx context.Context, id string) (*entity.ReturnRequest, error)
	// GetByIDForUpdate bloquea la fila de la solicitud para la transición de estado.
	GetByIDForUpdate(ctx context.Context, id string) (*entity.ReturnRequest, error)
	UpdateStatus(ctx context.Context, id, status, resolvedBy string, resolvedAt time.Time) error
	// SetItemRestockBatch registra en qué lote quedó restaurado el stock del item.
	SetItemRestockBatch(ctx context.Context, itemID, batchID string) error
}
