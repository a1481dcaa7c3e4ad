package inventory

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/lotes-pos/internal/domain"
	"github.com/tu-usuario/lotes-pos/internal/domain/allocation"
	"github.com/tu-usuario/lotes-pos/internal/domain/repository"
)

// PlanUseCase planificación FIFO de solo lectura: propone de qué lotes tomar
// una cantidad sin tocar nada, para que reglas de negocio aguas arriba
// (validar el pago, por ejemplo) corran antes de comprometer stock.
type PlanUseCase struct {
	batchRepo    repository.BatchRepository
	productRepo  repository.ProductRepository
	locationRepo repository.LocationRepository
}

// NewPlanUseCase construye el caso de uso.
func NewPlanUseCase(
	batchRepo repository.BatchRepository,
	productRepo repository.ProductRepository,
	locationRepo repository.LocationRepository,
) *PlanUseCase {
	return &PlanUseCase{batchRepo: batchRepo, productRepo: productRepo, locationRepo: locationRepo}
}

// Plan lee los lotes abiertos de (producto, ubicación) y arma el plan FIFO.
// No adquiere locks: el plan es una propuesta que Consume revalida al aplicar.
// Devuelve InsufficientStockError con el faltante si no alcanza el stock.
func (uc *PlanUseCase) Plan(ctx context.Context, productID, locationID string, quantity decimal.Decimal) (*allocation.Plan, error) {
	if !quantity.IsPositive() {
		return nil, domain.ErrInvalidQuantity
	}
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	location, err := uc.locationRepo.GetByID(ctx, locationID)
	if err != nil {
		return nil, err
	}
	if location == nil {
		return nil, domain.ErrNotFound
	}

	batches, err := uc.batchRepo.ListOpen(ctx, productID, locationID)
	if err != nil {
		return nil, err
	}
	return allocation.BuildPlan(productID, locationID, batches, quantity)
}
