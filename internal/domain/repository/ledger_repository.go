package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/lotes-pos/internal/domain/entity"
)

// LedgerRepository define el puerto del ledger de movimientos (append-only).
type LedgerRepository interface {
	Append(ctx context.Context, entry *entity.LedgerEntry) error
	// ExistsByIdempotencyKey indica si ya hay entradas comprometidas con esa
	// clave; un reintento con la misma clave debe ser un no-op.
	ExistsByIdempotencyKey(ctx context.Context, key string) (bool, error)
	ListByBatch(ctx context.Context, batchID string, limit, offset int) ([]entity.LedgerEntry, error)
	ListByReference(ctx context.Context, referenceID string) ([]entity.LedgerEntry, error)
	// SumDeltasByBatch suma los deltas de un lote (auditoría de conservación).
	SumDeltasByBatch(ctx context.Context, batchID string) (decimal.Decimal, error)
}
