package inventory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/lotes-pos/internal/domain"
	"github.com/tu-usuario/lotes-pos/internal/domain/entity"
	"github.com/tu-usuario/lotes-pos/internal/domain/repository"
)

// ReturnItemInput un renglón de la solicitud de devolución.
type ReturnItemInput struct {
	ProductID       string
	LocationID      string
	Quantity        decimal.Decimal
	OriginalBatchID string // opcional: lote del que salió la venta original
}

// RequestReturnInput entrada para registrar una devolución.
type RequestReturnInput struct {
	OriginalReference string
	Items             []ReturnItemInput
	UserID            string
}

// ReturnUseCase devoluciones en dos fases: registrar (sin efecto en stock) y
// aprobar o rechazar (transición terminal). Al aprobar, el stock se restaura
// al lote original si todavía existe; si no, se crea un lote nuevo con
// source_kind = return conservando vencimiento y costo de la venta original.
type ReturnUseCase struct {
	txRunner     TxRunner
	locker       Locker
	returnRepo   repository.ReturnRepository
	batchRepo    repository.BatchRepository
	productRepo  repository.ProductRepository
	locationRepo repository.LocationRepository
}

// NewReturnUseCase construye el caso de uso.
func NewReturnUseCase(
	txRunner TxRunner,
	locker Locker,
	returnRepo repository.ReturnRepository,
	batchRepo repository.BatchRepository,
	productRepo repository.ProductRepository,
	locationRepo repository.LocationRepository,
) *ReturnUseCase {
	return &ReturnUseCase{
		txRunner:     txRunner,
		locker:       locker,
		returnRepo:   returnRepo,
		batchRepo:    batchRepo,
		productRepo:  productRepo,
		locationRepo: locationRepo,
	}
}

// Request registra la solicitud en estado pending. Ningún item toca el stock
// todavía. Si el lote original es identificable, su vencimiento y costo se
// copian al item para poder preservarlos aunque el lote desaparezca después.
func (uc *ReturnUseCase) Request(ctx context.Context, in RequestReturnInput) (*entity.ReturnRequest, error) {
	if in.OriginalReference == "" || len(in.Items) == 0 {
		return nil, domain.ErrInvalidInput
	}

	now := time.Now()
	ret := &entity.ReturnRequest{
		ID:                uuid.New().String(),
		OriginalReference: in.OriginalReference,
		Status:            entity.ReturnStatusPending,
		CreatedBy:         in.UserID,
		CreatedAt:         now,
	}
	for _, it := range in.Items {
		if !it.Quantity.IsPositive() {
			return nil, domain.ErrInvalidQuantity
		}
		product, err := uc.productRepo.GetByID(ctx, it.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, domain.ErrNotFound
		}
		location, err := uc.locationRepo.GetByID(ctx, it.LocationID)
		if err != nil {
			return nil, err
		}
		if location == nil {
			return nil, domain.ErrNotFound
		}

		item := entity.ReturnLineItem{
			ID:              uuid.New().String(),
			ReturnID:        ret.ID,
			ProductID:       it.ProductID,
			LocationID:      it.LocationID,
			Quantity:        it.Quantity,
			OriginalBatchID: it.OriginalBatchID,
		}
		if it.OriginalBatchID != "" {
			batch, err := uc.batchRepo.GetByID(ctx, it.OriginalBatchID)
			if err != nil {
				return nil, err
			}
			if batch == nil {
				return nil, domain.ErrNotFound
			}
			item.ExpirationDate = batch.ExpirationDate
			item.UnitCost = batch.UnitCost
		}
		ret.Items = append(ret.Items, item)
	}

	if err := uc.returnRepo.Create(ctx, ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// Approve restaura el stock de cada item y marca la solicitud como approved.
// Falla con ErrInvalidState si ya fue aprobada o rechazada.
func (uc *ReturnUseCase) Approve(ctx context.Context, returnID, userID string) (*entity.ReturnRequest, error) {
	ret, err := uc.returnRepo.GetByID(ctx, returnID)
	if err != nil {
		return nil, err
	}
	if ret == nil {
		return nil, domain.ErrNotFound
	}
	if ret.IsTerminal() {
		return nil, domain.ErrInvalidState
	}

	release, err := uc.locker.Acquire(ctx, itemLockKeys(ret.Items)...)
	if err != nil {
		return nil, err
	}
	defer release()

	now := time.Now()
	err = uc.txRunner.RunFull(ctx, func(
		batchRepo repository.BatchRepository,
		ledgerRepo repository.LedgerRepository,
		_ repository.TransferRepository,
		returnRepo repository.ReturnRepository,
		_ repository.AdjustmentRepository,
	) error {
		locked, err := returnRepo.GetByIDForUpdate(ctx, returnID)
		if err != nil {
			return err
		}
		if locked == nil {
			return domain.ErrNotFound
		}
		// Revalidar con la fila bloqueada: una aprobación concurrente pudo ganar.
		if locked.IsTerminal() {
			return domain.ErrInvalidState
		}

		for i := range locked.Items {
			item := &locked.Items[i]
			batchID, err := restockItem(ctx, batchRepo, item, now)
			if err != nil {
				return err
			}
			if err := ledgerRepo.Append(ctx, &entity.LedgerEntry{
				ID:          uuid.New().String(),
				BatchID:     batchID,
				ProductID:   item.ProductID,
				LocationID:  item.LocationID,
				Delta:       item.Quantity,
				Reason:      entity.LedgerReasonReturn,
				ReferenceID: locked.ID,
				CreatedBy:   userID,
				CreatedAt:   now,
			}); err != nil {
				return err
			}
			if err := returnRepo.SetItemRestockBatch(ctx, item.ID, batchID); err != nil {
				return err
			}
			item.RestockBatchID = batchID
		}
		ret = locked
		return returnRepo.UpdateStatus(ctx, returnID, entity.ReturnStatusApproved, userID, now)
	})
	if err != nil {
		return nil, err
	}
	ret.Status = entity.ReturnStatusApproved
	ret.ResolvedAt = &now
	ret.ResolvedBy = userID
	return ret, nil
}

// Reject marca la solicitud como rejected sin tocar el stock.
func (uc *ReturnUseCase) Reject(ctx context.Context, returnID, userID string) (*entity.ReturnRequest, error) {
	now := time.Now()
	var ret *entity.ReturnRequest
	err := uc.txRunner.RunFull(ctx, func(
		_ repository.BatchRepository,
		_ repository.LedgerRepository,
		_ repository.TransferRepository,
		returnRepo repository.ReturnRepository,
		_ repository.AdjustmentRepository,
	) error {
		locked, err := returnRepo.GetByIDForUpdate(ctx, returnID)
		if err != nil {
			return err
		}
		if locked == nil {
			return domain.ErrNotFound
		}
		if locked.IsTerminal() {
			return domain.ErrInvalidState
		}
		ret = locked
		return returnRepo.UpdateStatus(ctx, returnID, entity.ReturnStatusRejected, userID, now)
	})
	if err != nil {
		return nil, err
	}
	ret.Status = entity.ReturnStatusRejected
	ret.ResolvedAt = &now
	ret.ResolvedBy = userID
	return ret, nil
}

// restockItem devuelve la cantidad al lote original si todavía existe; si no,
// crea un lote nuevo source_kind = return con el vencimiento y costo copiados
// al registrar la solicitud. Nace en 0 para que la entrada quede en el ledger.
func restockItem(
	ctx context.Context,
	batchRepo repository.BatchRepository,
	item *entity.ReturnLineItem,
	now time.Time,
) (string, error) {
	if item.OriginalBatchID != "" {
		original, err := batchRepo.GetByIDForUpdate(ctx, item.OriginalBatchID)
		if err != nil {
			return "", err
		}
		if original != nil {
			if err := batchRepo.ApplyDelta(ctx, original.ID, item.Quantity); err != nil {
				return "", err
			}
			return original.ID, nil
		}
	}

	batch := &entity.Batch{
		ID:              uuid.New().String(),
		ProductID:       item.ProductID,
		LocationID:      item.LocationID,
		QuantityOnHand:  decimal.Zero,
		InitialQuantity: decimal.Zero,
		ExpirationDate:  item.ExpirationDate,
		UnitCost:        item.UnitCost,
		ReceivedAt:      now,
		SourceKind:      entity.BatchSourceReturn,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := batchRepo.Create(ctx, batch); err != nil {
		return "", err
	}
	if err := batchRepo.ApplyDelta(ctx, batch.ID, item.Quantity); err != nil {
		return "", err
	}
	return batch.ID, nil
}

// itemLockKeys claves de lock únicas y ordenadas para los items de la solicitud.
func itemLockKeys(items []entity.ReturnLineItem) []string {
	seen := make(map[string]struct{}, len(items))
	keys := make([]string, 0, len(items))
	for _, it := range items {
		k := lockKey(it.ProductID, it.LocationID)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
