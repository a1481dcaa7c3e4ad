package repository

import (
	"context"

	"github.com/tu-usuario/lotes-pos/internal/domain/entity"
)

// TransferRepository define el puerto de persistencia para traslados.
type TransferRepository interface {
	// Create persiste el traslado con sus line items.
	Create(ctx context.Context, transfer *entity.Transfer) error
	GetByID(ctx context.Context, id string) (*entity.Transfer, error)
	List(ctx context.Context, limit, offset int) ([]entity.Transfer, error)
}
