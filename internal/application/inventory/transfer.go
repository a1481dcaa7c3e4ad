package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/lotes-pos/internal/domain"
	"github.com/tu-usuario/lotes-pos/internal/domain/allocation"
	"github.com/tu-usuario/lotes-pos/internal/domain/entity"
	"github.com/tu-usuario/lotes-pos/internal/domain/repository"
)

// TransferInput entrada para un traslado entre ubicaciones.
type TransferInput struct {
	ProductID        string
	SourceLocationID string
	DestLocationID   string
	Quantity         decimal.Decimal
	UserID           string
}

// TransferUseCase orquesta un traslado como una sola unidad atómica: consumo
// FIFO en origen y creación/fusión de lotes en destino conservando vencimiento
// y costo unitario de cada lote de origen. Si el destino falla, el descuento
// del origen se revierte con el rollback; nunca se observa un traslado parcial.
type TransferUseCase struct {
	txRunner     TxRunner
	locker       Locker
	transferRepo repository.TransferRepository
	productRepo  repository.ProductRepository
	locationRepo repository.LocationRepository
}

// NewTransferUseCase construye el caso de uso.
func NewTransferUseCase(
	txRunner TxRunner,
	locker Locker,
	transferRepo repository.TransferRepository,
	productRepo repository.ProductRepository,
	locationRepo repository.LocationRepository,
) *TransferUseCase {
	return &TransferUseCase{
		txRunner:     txRunner,
		locker:       locker,
		transferRepo: transferRepo,
		productRepo:  productRepo,
		locationRepo: locationRepo,
	}
}

// Transfer ejecuta el traslado. Los locks de (producto, origen) y (producto,
// destino) se toman en orden canónico para no bloquearse con un traslado en
// dirección contraria. Si la transacción falla se registra un traslado en
// estado failed como rastro de auditoría (best-effort, fuera de la tx).
func (uc *TransferUseCase) Transfer(ctx context.Context, in TransferInput) (*entity.Transfer, error) {
	if !in.Quantity.IsPositive() {
		return nil, domain.ErrInvalidQuantity
	}
	if in.SourceLocationID == in.DestLocationID {
		return nil, domain.ErrInvalidInput
	}
	product, err := uc.productRepo.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	for _, locID := range []string{in.SourceLocationID, in.DestLocationID} {
		loc, err := uc.locationRepo.GetByID(ctx, locID)
		if err != nil {
			return nil, err
		}
		if loc == nil {
			return nil, domain.ErrNotFound
		}
	}

	release, err := uc.locker.Acquire(ctx,
		lockKey(in.ProductID, in.SourceLocationID),
		lockKey(in.ProductID, in.DestLocationID),
	)
	if err != nil {
		return nil, err
	}
	defer release()

	now := time.Now()
	transfer := &entity.Transfer{
		ID:               uuid.New().String(),
		ProductID:        in.ProductID,
		SourceLocationID: in.SourceLocationID,
		DestLocationID:   in.DestLocationID,
		Quantity:         in.Quantity,
		Status:           entity.TransferStatusCompleted,
		CreatedBy:        in.UserID,
		CreatedAt:        now,
	}

	err = uc.txRunner.RunFull(ctx, func(
		batchRepo repository.BatchRepository,
		ledgerRepo repository.LedgerRepository,
		transferRepo repository.TransferRepository,
		_ repository.ReturnRepository,
		_ repository.AdjustmentRepository,
	) error {
		// Consumo FIFO en origen con las filas bloqueadas.
		batches, err := batchRepo.ListOpenForUpdate(ctx, in.ProductID, in.SourceLocationID)
		if err != nil {
			return err
		}
		plan, err := allocation.BuildPlan(in.ProductID, in.SourceLocationID, batches, in.Quantity)
		if err != nil {
			return err
		}
		byID := make(map[string]*entity.Batch, len(batches))
		for i := range batches {
			byID[batches[i].ID] = &batches[i]
		}

		for _, line := range plan.Lines {
			source := byID[line.BatchID]
			if err := batchRepo.ApplyDelta(ctx, line.BatchID, line.Quantity.Neg()); err != nil {
				if errors.Is(err, domain.ErrInvalidQuantity) {
					return domain.ErrConflict
				}
				return err
			}
			if err := ledgerRepo.Append(ctx, &entity.LedgerEntry{
				ID:          uuid.New().String(),
				BatchID:     line.BatchID,
				ProductID:   in.ProductID,
				LocationID:  in.SourceLocationID,
				Delta:       line.Quantity.Neg(),
				Reason:      entity.LedgerReasonTransferOut,
				ReferenceID: transfer.ID,
				CreatedBy:   in.UserID,
				CreatedAt:   now,
			}); err != nil {
				return err
			}

			destBatchID, merged, err := landInDest(ctx, batchRepo, source, in.DestLocationID, line.Quantity, now)
			if err != nil {
				return err
			}
			if err := ledgerRepo.Append(ctx, &entity.LedgerEntry{
				ID:          uuid.New().String(),
				BatchID:     destBatchID,
				ProductID:   in.ProductID,
				LocationID:  in.DestLocationID,
				Delta:       line.Quantity,
				Reason:      entity.LedgerReasonTransferIn,
				ReferenceID: transfer.ID,
				CreatedBy:   in.UserID,
				CreatedAt:   now,
			}); err != nil {
				return err
			}

			transfer.LineItems = append(transfer.LineItems, entity.TransferLineItem{
				ID:             uuid.New().String(),
				TransferID:     transfer.ID,
				SourceBatchID:  line.BatchID,
				DestBatchID:    destBatchID,
				Quantity:       line.Quantity,
				UnitCost:       source.UnitCost,
				ExpirationDate: source.ExpirationDate,
				Merged:         merged,
			})
		}
		return transferRepo.Create(ctx, transfer)
	})

	if err != nil {
		// El rollback ya dejó los lotes intactos; solo queda el rastro del intento.
		uc.recordFailed(ctx, transfer, in)
		return nil, err
	}
	return transfer, nil
}

// landInDest fusiona la porción en un lote destino abierto con el mismo
// vencimiento y costo, o crea un lote nuevo con source_kind = transfer_in.
// Los lotes nuevos nacen en 0 para que la entrada quede asentada por ledger.
func landInDest(
	ctx context.Context,
	batchRepo repository.BatchRepository,
	source *entity.Batch,
	destLocationID string,
	quantity decimal.Decimal,
	now time.Time,
) (destBatchID string, merged bool, err error) {
	match, err := batchRepo.FindOpenMatchForUpdate(ctx, source.ProductID, destLocationID, source.ExpirationDate, source.UnitCost)
	if err != nil {
		return "", false, err
	}
	if match != nil {
		if err := batchRepo.ApplyDelta(ctx, match.ID, quantity); err != nil {
			return "", false, err
		}
		return match.ID, true, nil
	}

	dest := &entity.Batch{
		ID:              uuid.New().String(),
		ProductID:       source.ProductID,
		LocationID:      destLocationID,
		QuantityOnHand:  decimal.Zero,
		InitialQuantity: decimal.Zero,
		ExpirationDate:  source.ExpirationDate,
		UnitCost:        source.UnitCost,
		ReceivedAt:      now,
		SourceKind:      entity.BatchSourceTransferIn,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := batchRepo.Create(ctx, dest); err != nil {
		return "", false, err
	}
	if err := batchRepo.ApplyDelta(ctx, dest.ID, quantity); err != nil {
		return "", false, err
	}
	return dest.ID, false, nil
}

func (uc *TransferUseCase) recordFailed(ctx context.Context, transfer *entity.Transfer, in TransferInput) {
	failed := &entity.Transfer{
		ID:               transfer.ID,
		ProductID:        in.ProductID,
		SourceLocationID: in.SourceLocationID,
		DestLocationID:   in.DestLocationID,
		Quantity:         in.Quantity,
		Status:           entity.TransferStatusFailed,
		CreatedBy:        in.UserID,
		CreatedAt:        transfer.CreatedAt,
	}
	_ = uc.transferRepo.Create(ctx, failed)
}
