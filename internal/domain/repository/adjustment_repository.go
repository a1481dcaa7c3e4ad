package repository

import (
	"context"

	"github.com/tu-usuario/lotes-pos/internal/domain/entity"
)

// AdjustmentRepository define el puerto de persistencia para ajustes manuales.
type AdjustmentRepository interface {
	Create(ctx context.Context, adj *entity.AdjustmentRecord) error
	ListByBatch(ctx context.Context, batchID string) ([]entity.AdjustmentRecord, error)
}
