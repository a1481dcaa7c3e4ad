package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/lotes-pos/internal/domain"
	"github.com/tu-usuario/lotes-pos/internal/domain/entity"
	"github.com/tu-usuario/lotes-pos/internal/domain/repository"
)

// ReceiveInput entrada para registrar la recepción de un lote de compra.
type ReceiveInput struct {
	ProductID      string
	LocationID     string
	Quantity       decimal.Decimal
	ExpirationDate *time.Time
	UnitCost       decimal.Decimal
	UserID         string
}

// ReceiveUseCase efecto "lote recibido" del flujo de compras: crea un lote
// nuevo con source_kind = purchase. El workflow de órdenes de compra vive
// fuera del núcleo; aquí solo se consume su resultado.
type ReceiveUseCase struct {
	batchRepo    repository.BatchRepository
	productRepo  repository.ProductRepository
	locationRepo repository.LocationRepository
}

// NewReceiveUseCase construye el caso de uso.
func NewReceiveUseCase(
	batchRepo repository.BatchRepository,
	productRepo repository.ProductRepository,
	locationRepo repository.LocationRepository,
) *ReceiveUseCase {
	return &ReceiveUseCase{batchRepo: batchRepo, productRepo: productRepo, locationRepo: locationRepo}
}

// Receive crea el lote. La cantidad recibida queda como InitialQuantity (la
// base del invariante de conservación); las compras no pasan por el ledger.
func (uc *ReceiveUseCase) Receive(ctx context.Context, in ReceiveInput) (*entity.Batch, error) {
	if !in.Quantity.IsPositive() {
		return nil, domain.ErrInvalidQuantity
	}
	if in.UnitCost.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	product, err := uc.productRepo.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	location, err := uc.locationRepo.GetByID(ctx, in.LocationID)
	if err != nil {
		return nil, err
	}
	if location == nil {
		return nil, domain.ErrNotFound
	}

	now := time.Now()
	batch := &entity.Batch{
		ID:              uuid.New().String(),
		ProductID:       in.ProductID,
		LocationID:      in.LocationID,
		QuantityOnHand:  in.Quantity,
		InitialQuantity: in.Quantity,
		ExpirationDate:  in.ExpirationDate,
		UnitCost:        in.UnitCost,
		ReceivedAt:      now,
		SourceKind:      entity.BatchSourcePurchase,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := uc.batchRepo.Create(ctx, batch); err != nil {
		return nil, err
	}
	return batch, nil
}
