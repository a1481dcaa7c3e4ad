package inventory

import (
	"context"
	"fmt"

	"github.com/tu-usuario/lotes-pos/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza atomicidad para el motor de lotes.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		batchRepo repository.BatchRepository,
		ledgerRepo repository.LedgerRepository,
	) error) error

	// RunFull incluye además los repositorios de traslados, devoluciones y
	// ajustes (para operaciones que persisten sus propios registros).
	RunFull(ctx context.Context, fn func(
		batchRepo repository.BatchRepository,
		ledgerRepo repository.LedgerRepository,
		transferRepo repository.TransferRepository,
		returnRepo repository.ReturnRepository,
		adjustmentRepo repository.AdjustmentRepository,
	) error) error
}

// Locker serializa operaciones mutantes por clave producto+ubicación.
// Acquire toma todas las claves en orden lexicográfico (evita deadlocks entre
// traslados en direcciones opuestas) con espera acotada; si no consigue el
// lock a tiempo devuelve domain.ErrBusy. release libera en orden inverso.
type Locker interface {
	Acquire(ctx context.Context, keys ...string) (release func(), err error)
}

// lockKey construye la clave de serialización para un producto en una ubicación.
func lockKey(productID, locationID string) string {
	return fmt.Sprintf("stock:%s:%s", productID, locationID)
}
