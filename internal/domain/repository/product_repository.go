package repository

import (
	"context"

	"github.com/tu-usuario/lotes-pos/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para productos (catálogo).
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	GetBySKU(ctx context.Context, sku string) (*entity.Product, error)
	List(ctx context.Context, limit, offset int) ([]entity.Product, error)
	Update(ctx context.Context, product *entity.Product) error
}
