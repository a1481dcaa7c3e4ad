package inventory

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/lotes-pos/internal/domain"
	"github.com/tu-usuario/lotes-pos/internal/domain/entity"
	"github.com/tu-usuario/lotes-pos/internal/domain/repository"
)

// StockUseCase consultas de solo lectura: existencias, lotes, ledger,
// traslados y devoluciones.
type StockUseCase struct {
	batchRepo    repository.BatchRepository
	ledgerRepo   repository.LedgerRepository
	transferRepo repository.TransferRepository
	returnRepo   repository.ReturnRepository
}

// NewStockUseCase construye el caso de uso.
func NewStockUseCase(
	batchRepo repository.BatchRepository,
	ledgerRepo repository.LedgerRepository,
	transferRepo repository.TransferRepository,
	returnRepo repository.ReturnRepository,
) *StockUseCase {
	return &StockUseCase{
		batchRepo:    batchRepo,
		ledgerRepo:   ledgerRepo,
		transferRepo: transferRepo,
		returnRepo:   returnRepo,
	}
}

// StockLevel existencia total de un producto en una ubicación
// (Σ quantity_on_hand de sus lotes).
func (uc *StockUseCase) StockLevel(ctx context.Context, productID, locationID string) (decimal.Decimal, error) {
	return uc.batchRepo.StockLevel(ctx, productID, locationID)
}

// ListBatches lotes de un producto en una ubicación en orden FIFO.
// Con onlyOpen=false incluye los agotados (rastro de auditoría).
func (uc *StockUseCase) ListBatches(ctx context.Context, productID, locationID string, onlyOpen bool) ([]entity.Batch, error) {
	if onlyOpen {
		return uc.batchRepo.ListOpen(ctx, productID, locationID)
	}
	return uc.batchRepo.List(ctx, productID, locationID)
}

// BatchLedger entradas de ledger de un lote, más recientes primero.
func (uc *StockUseCase) BatchLedger(ctx context.Context, batchID string, limit, offset int) ([]entity.LedgerEntry, error) {
	batch, err := uc.batchRepo.GetByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, domain.ErrNotFound
	}
	return uc.ledgerRepo.ListByBatch(ctx, batchID, limit, offset)
}

// AuditBatch verifica el invariante de conservación de un lote:
// quantity_on_hand = initial_quantity + Σ deltas del ledger.
func (uc *StockUseCase) AuditBatch(ctx context.Context, batchID string) (ok bool, err error) {
	batch, err := uc.batchRepo.GetByID(ctx, batchID)
	if err != nil {
		return false, err
	}
	if batch == nil {
		return false, domain.ErrNotFound
	}
	sum, err := uc.ledgerRepo.SumDeltasByBatch(ctx, batchID)
	if err != nil {
		return false, err
	}
	return batch.QuantityOnHand.Equal(batch.InitialQuantity.Add(sum)), nil
}

// GetTransfer traslado por id con sus line items.
func (uc *StockUseCase) GetTransfer(ctx context.Context, id string) (*entity.Transfer, error) {
	t, err := uc.transferRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.ErrNotFound
	}
	return t, nil
}

// ListTransfers traslados paginados, más recientes primero.
func (uc *StockUseCase) ListTransfers(ctx context.Context, limit, offset int) ([]entity.Transfer, error) {
	return uc.transferRepo.List(ctx, limit, offset)
}

// GetReturn solicitud de devolución por id con sus items.
func (uc *StockUseCase) GetReturn(ctx context.Context, id string) (*entity.ReturnRequest, error) {
	r, err := uc.returnRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, domain.ErrNotFound
	}
	return r, nil
}
