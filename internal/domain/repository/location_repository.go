package repository

import (
	"context"

	"github.com/tu-usuario/lotes-pos/internal/domain/entity"
)

// LocationRepository define el puerto de persistencia para ubicaciones
// (bodegas y puntos de venta).
type LocationRepository interface {
	Create(ctx context.Context, location *entity.Location) error
	GetByID(ctx context.Context, id string) (*entity.Location, error)
	List(ctx context.Context, limit, offset int) ([]entity.Location, error)
	Update(ctx context.Context, location *entity.Location) error
}
