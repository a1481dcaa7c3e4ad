package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tu-usuario/lotes-pos/internal/domain"
	"github.com/tu-usuario/lotes-pos/internal/domain/allocation"
	"github.com/tu-usuario/lotes-pos/internal/domain/entity"
	"github.com/tu-usuario/lotes-pos/internal/domain/repository"
)

// ConsumeInput entrada para aplicar un plan de asignación.
type ConsumeInput struct {
	Plan           *allocation.Plan
	Reason         string // sale o transfer_out
	ReferenceID    string // id de la venta u operación que consume
	IdempotencyKey string // clave del cliente; un reintento con la misma clave es no-op
	UserID         string
}

// ConsumeUseCase aplica un plan de asignación de forma atómica: bloquea la
// clave (producto, ubicación), revalida el plan contra el estado actual,
// descuenta cada lote y agrega una entrada de ledger por lote, todo en una
// sola transacción.
type ConsumeUseCase struct {
	txRunner TxRunner
	locker   Locker
}

// NewConsumeUseCase construye el caso de uso.
func NewConsumeUseCase(txRunner TxRunner, locker Locker) *ConsumeUseCase {
	return &ConsumeUseCase{txRunner: txRunner, locker: locker}
}

// Consume ejecuta el plan. Si algún lote cambió desde la planificación,
// replanifica una única vez sobre la foto bloqueada; si aun así no se puede
// aplicar devuelve ErrConflict. Si el lock no se consigue en la espera
// acotada devuelve ErrBusy. Todo o nada: un error deja el estado intacto.
func (uc *ConsumeUseCase) Consume(ctx context.Context, in ConsumeInput) error {
	if in.Plan == nil || len(in.Plan.Lines) == 0 {
		return domain.ErrInvalidInput
	}
	// El plan puede venir del cliente: cantidades no positivas invertirían el
	// descuento (ApplyDelta con el negado sumaría stock). Se rechazan antes
	// de tomar el lock.
	if !in.Plan.Requested.IsPositive() {
		return domain.ErrInvalidQuantity
	}
	for _, line := range in.Plan.Lines {
		if !line.Quantity.IsPositive() {
			return domain.ErrInvalidQuantity
		}
	}
	switch in.Reason {
	case entity.LedgerReasonSale, entity.LedgerReasonTransferOut:
	default:
		return domain.ErrInvalidInput
	}
	if in.ReferenceID == "" {
		return domain.ErrInvalidInput
	}

	release, err := uc.locker.Acquire(ctx, lockKey(in.Plan.ProductID, in.Plan.LocationID))
	if err != nil {
		return err
	}
	defer release()

	return uc.txRunner.Run(ctx, func(
		batchRepo repository.BatchRepository,
		ledgerRepo repository.LedgerRepository,
	) error {
		return applyPlan(ctx, batchRepo, ledgerRepo, in)
	})
}

// applyPlan revalida y aplica un plan dentro de una transacción ya abierta.
// TransferUseCase no pasa por aquí: intercala el descuento en origen con el
// aterrizaje en destino lote por lote.
func applyPlan(
	ctx context.Context,
	batchRepo repository.BatchRepository,
	ledgerRepo repository.LedgerRepository,
	in ConsumeInput,
) error {
	// Reintento del cliente con la misma clave: ya se aplicó, no-op exitoso.
	if in.IdempotencyKey != "" {
		done, err := ledgerRepo.ExistsByIdempotencyKey(ctx, in.IdempotencyKey)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}

	// Foto fresca con las filas bloqueadas: a partir de aquí nadie más muta
	// estos lotes hasta el commit.
	batches, err := batchRepo.ListOpenForUpdate(ctx, in.Plan.ProductID, in.Plan.LocationID)
	if err != nil {
		return err
	}

	plan := in.Plan
	if !plan.Validate(batches) {
		// El estado cambió desde la planificación: replanificar una única vez.
		replanned, err := allocation.BuildPlan(plan.ProductID, plan.LocationID, batches, plan.Requested)
		if err != nil {
			return err
		}
		if !replanned.Validate(batches) {
			return domain.ErrConflict
		}
		plan = replanned
	}

	now := time.Now()
	for _, line := range plan.Lines {
		if err := batchRepo.ApplyDelta(ctx, line.BatchID, line.Quantity.Neg()); err != nil {
			// La fila cambió pese a la validación: plan obsoleto.
			if errors.Is(err, domain.ErrInvalidQuantity) {
				return domain.ErrConflict
			}
			return err
		}
		entry := &entity.LedgerEntry{
			ID:             uuid.New().String(),
			BatchID:        line.BatchID,
			ProductID:      plan.ProductID,
			LocationID:     plan.LocationID,
			Delta:          line.Quantity.Neg(),
			Reason:         in.Reason,
			ReferenceID:    in.ReferenceID,
			IdempotencyKey: in.IdempotencyKey,
			CreatedBy:      in.UserID,
			CreatedAt:      now,
		}
		if err := ledgerRepo.Append(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}
