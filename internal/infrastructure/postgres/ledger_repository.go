package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/lotes-pos/internal/domain/entity"
	"github.com/tu-usuario/lotes-pos/internal/domain/repository"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

const ledgerColumns = `id, batch_id, product_id, location_id, delta, reason,
	reference_id, idempotency_key, created_by, created_at`

// LedgerRepo implementación del ledger append-only sobre PostgreSQL.
type LedgerRepo struct {
	q Querier
}

// NewLedgerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLedgerRepository(q Querier) *LedgerRepo {
	return &LedgerRepo{q: q}
}

// Append persiste una entrada. El ledger nunca se actualiza ni se borra.
func (r *LedgerRepo) Append(ctx context.Context, e *entity.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (` + ledgerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	idemKey := (*string)(nil)
	if e.IdempotencyKey != "" {
		idemKey = &e.IdempotencyKey
	}
	createdBy := (*string)(nil)
	if e.CreatedBy != "" {
		createdBy = &e.CreatedBy
	}
	_, err := r.q.Exec(ctx, query,
		e.ID, e.BatchID, e.ProductID, e.LocationID, e.Delta, e.Reason,
		e.ReferenceID, idemKey, createdBy, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}
	return nil
}

// ExistsByIdempotencyKey indica si ya hay entradas comprometidas con esa clave.
func (r *LedgerRepo) ExistsByIdempotencyKey(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM ledger_entries WHERE idempotency_key = $1)`, key,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check idempotency key: %w", err)
	}
	return exists, nil
}

// ListByBatch entradas de un lote, más recientes primero.
func (r *LedgerRepo) ListByBatch(ctx context.Context, batchID string, limit, offset int) ([]entity.LedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledger_entries
		WHERE batch_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	return r.list(ctx, query, batchID, limit, offset)
}

// ListByReference entradas de una operación (venta, traslado, devolución, ajuste).
func (r *LedgerRepo) ListByReference(ctx context.Context, referenceID string) ([]entity.LedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledger_entries
		WHERE reference_id = $1 ORDER BY created_at ASC`
	return r.list(ctx, query, referenceID)
}

// SumDeltasByBatch suma los deltas de un lote (auditoría de conservación).
func (r *LedgerRepo) SumDeltasByBatch(ctx context.Context, batchID string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.q.QueryRow(ctx,
		`SELECT COALESCE(SUM(delta), 0) FROM ledger_entries WHERE batch_id = $1`, batchID,
	).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum ledger deltas: %w", err)
	}
	return sum, nil
}

func (r *LedgerRepo) list(ctx context.Context, query string, args ...any) ([]entity.LedgerEntry, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()
	var list []entity.LedgerEntry
	for rows.Next() {
		var e entity.LedgerEntry
		var idemKey, createdBy *string
		if err := rows.Scan(
			&e.ID, &e.BatchID, &e.ProductID, &e.LocationID, &e.Delta, &e.Reason,
			&e.ReferenceID, &idemKey, &createdBy, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		if idemKey != nil {
			e.IdempotencyKey = *idemKey
		}
		if createdBy != nil {
			e.CreatedBy = *createdBy
		}
		list = append(list, e)
	}
	return list, rows.Err()
}
