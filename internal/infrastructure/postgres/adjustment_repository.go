package postgres

import (
	"context"
	"fmt"

	"github.com/tu-usuario/lotes-pos/internal/domain/entity"
	"github.com/tu-usuario/lotes-pos/internal/domain/repository"
)

var _ repository.AdjustmentRepository = (*AdjustmentRepo)(nil)

// AdjustmentRepo implementación de AdjustmentRepository sobre PostgreSQL.
type AdjustmentRepo struct {
	q Querier
}

// NewAdjustmentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAdjustmentRepository(q Querier) *AdjustmentRepo {
	return &AdjustmentRepo{q: q}
}

// Create persiste un ajuste manual.
func (r *AdjustmentRepo) Create(ctx context.Context, adj *entity.AdjustmentRecord) error {
	query := `
		INSERT INTO adjustment_records (id, batch_id, delta, reason, performed_by, performed_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	performedBy := (*string)(nil)
	if adj.PerformedBy != "" {
		performedBy = &adj.PerformedBy
	}
	_, err := r.q.Exec(ctx, query, adj.ID, adj.BatchID, adj.Delta, adj.Reason, performedBy, adj.PerformedAt)
	if err != nil {
		return fmt.Errorf("insert adjustment: %w", err)
	}
	return nil
}

// ListByBatch ajustes de un lote, más recientes primero.
func (r *AdjustmentRepo) ListByBatch(ctx context.Context, batchID string) ([]entity.AdjustmentRecord, error) {
	query := `
		SELECT id, batch_id, delta, reason, performed_by, performed_at
		FROM adjustment_records WHERE batch_id = $1 ORDER BY performed_at DESC`
	rows, err := r.q.Query(ctx, query, batchID)
	if err != nil {
		return nil, fmt.Errorf("list adjustments: %w", err)
	}
	defer rows.Close()
	var list []entity.AdjustmentRecord
	for rows.Next() {
		var a entity.AdjustmentRecord
		var performedBy *string
		if err := rows.Scan(&a.ID, &a.BatchID, &a.Delta, &a.Reason, &performedBy, &a.PerformedAt); err != nil {
			return nil, fmt.Errorf("scan adjustment: %w", err)
		}
		if performedBy != nil {
			a.PerformedBy = *performedBy
		}
		list = append(list, a)
	}
	return list, rows.Err()
}
