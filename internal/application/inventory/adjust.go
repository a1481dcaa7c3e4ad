package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/lotes-pos/internal/domain"
	"github.com/tu-usuario/lotes-pos/internal/domain/entity"
	"github.com/tu-usuario/lotes-pos/internal/domain/repository"
)

// AdjustInput entrada para un ajuste manual sobre un lote.
type AdjustInput struct {
	BatchID string
	Delta   decimal.Decimal
	Reason  string
	UserID  string
}

// AdjustUseCase ajustes manuales (merma, daño, conteo físico) con motivo
// obligatorio. El delta y la entrada de ledger se aplican en una sola
// transacción; un delta que dejaría el lote en negativo se rechaza.
type AdjustUseCase struct {
	txRunner  TxRunner
	locker    Locker
	batchRepo repository.BatchRepository
}

// NewAdjustUseCase construye el caso de uso.
func NewAdjustUseCase(txRunner TxRunner, locker Locker, batchRepo repository.BatchRepository) *AdjustUseCase {
	return &AdjustUseCase{txRunner: txRunner, locker: locker, batchRepo: batchRepo}
}

// Adjust aplica el delta. La validación del motivo ocurre antes de tomar
// cualquier lock; los errores de entrada nunca llegan a la base.
func (uc *AdjustUseCase) Adjust(ctx context.Context, in AdjustInput) (*entity.AdjustmentRecord, error) {
	if strings.TrimSpace(in.Reason) == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.Delta.IsZero() {
		return nil, domain.ErrInvalidQuantity
	}

	// Lectura sin lock solo para conocer la clave (producto, ubicación).
	batch, err := uc.batchRepo.GetByID(ctx, in.BatchID)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, domain.ErrNotFound
	}

	release, err := uc.locker.Acquire(ctx, lockKey(batch.ProductID, batch.LocationID))
	if err != nil {
		return nil, err
	}
	defer release()

	now := time.Now()
	record := &entity.AdjustmentRecord{
		ID:          uuid.New().String(),
		BatchID:     in.BatchID,
		Delta:       in.Delta,
		Reason:      strings.TrimSpace(in.Reason),
		PerformedBy: in.UserID,
		PerformedAt: now,
	}

	err = uc.txRunner.RunFull(ctx, func(
		batchRepo repository.BatchRepository,
		ledgerRepo repository.LedgerRepository,
		_ repository.TransferRepository,
		_ repository.ReturnRepository,
		adjustmentRepo repository.AdjustmentRepository,
	) error {
		locked, err := batchRepo.GetByIDForUpdate(ctx, in.BatchID)
		if err != nil {
			return err
		}
		if locked == nil {
			return domain.ErrNotFound
		}
		if locked.QuantityOnHand.Add(in.Delta).IsNegative() {
			return domain.ErrInvalidQuantity
		}
		if err := batchRepo.ApplyDelta(ctx, in.BatchID, in.Delta); err != nil {
			return err
		}
		if err := ledgerRepo.Append(ctx, &entity.LedgerEntry{
			ID:          uuid.New().String(),
			BatchID:     in.BatchID,
			ProductID:   locked.ProductID,
			LocationID:  locked.LocationID,
			Delta:       in.Delta,
			Reason:      entity.LedgerReasonAdjustment,
			ReferenceID: record.ID,
			CreatedBy:   in.UserID,
			CreatedAt:   now,
		}); err != nil {
			return err
		}
		return adjustmentRepo.Create(ctx, record)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}
