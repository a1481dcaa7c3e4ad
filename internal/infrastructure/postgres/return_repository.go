package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/lotes-pos/internal/domain/entity"
	"github.com/tu-usuario/lotes-pos/internal/domain/repository"
)

var _ repository.ReturnRepository = (*ReturnRepo)(nil)

// ReturnRepo implementación de ReturnRepository sobre PostgreSQL.
type ReturnRepo struct {
	q Querier
}

// NewReturnRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReturnRepository(q Querier) *ReturnRepo {
	return &ReturnRepo{q: q}
}

// Create persiste la solicitud con sus items.
func (r *ReturnRepo) Create(ctx context.Context, ret *entity.ReturnRequest) error {
	query := `
		INSERT INTO return_requests (id, original_reference, status, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	createdBy := (*string)(nil)
	if ret.CreatedBy != "" {
		createdBy = &ret.CreatedBy
	}
	_, err := r.q.Exec(ctx, query, ret.ID, ret.OriginalReference, ret.Status, createdBy, ret.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert return request: %w", err)
	}
	for i := range ret.Items {
		item := &ret.Items[i]
		originalBatch := (*string)(nil)
		if item.OriginalBatchID != "" {
			originalBatch = &item.OriginalBatchID
		}
		itemQuery := `
			INSERT INTO return_line_items (id, return_id, product_id, location_id, quantity, original_batch_id, expiration_date, unit_cost)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
		_, err := r.q.Exec(ctx, itemQuery,
			item.ID, ret.ID, item.ProductID, item.LocationID, item.Quantity,
			originalBatch, item.ExpirationDate, item.UnitCost,
		)
		if err != nil {
			return fmt.Errorf("insert return line item: %w", err)
		}
	}
	return nil
}

// GetByID obtiene una solicitud con sus items. Devuelve nil si no existe.
func (r *ReturnRepo) GetByID(ctx context.Context, id string) (*entity.ReturnRequest, error) {
	return r.getOne(ctx, id, false)
}

// GetByIDForUpdate bloquea la fila de la solicitud (SELECT FOR UPDATE) para
// la transición de estado.
func (r *ReturnRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.ReturnRequest, error) {
	return r.getOne(ctx, id, true)
}

// UpdateStatus transición de estado de la solicitud.
func (r *ReturnRepo) UpdateStatus(ctx context.Context, id, status, resolvedBy string, resolvedAt time.Time) error {
	query := `
		UPDATE return_requests SET status = $2, resolved_by = $3, resolved_at = $4
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query, id, status, resolvedBy, resolvedAt)
	if err != nil {
		return fmt.Errorf("update return status: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("update return status: no rows")
	}
	return nil
}

// SetItemRestockBatch registra en qué lote quedó restaurado el stock del item.
func (r *ReturnRepo) SetItemRestockBatch(ctx context.Context, itemID, batchID string) error {
	query := `UPDATE return_line_items SET restock_batch_id = $2 WHERE id = $1`
	if _, err := r.q.Exec(ctx, query, itemID, batchID); err != nil {
		return fmt.Errorf("set item restock batch: %w", err)
	}
	return nil
}

func (r *ReturnRepo) getOne(ctx context.Context, id string, forUpdate bool) (*entity.ReturnRequest, error) {
	query := `
		SELECT id, original_reference, status, created_by, created_at, resolved_by, resolved_at
		FROM return_requests WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var ret entity.ReturnRequest
	var createdBy, resolvedBy *string
	err := r.q.QueryRow(ctx, query, id).Scan(
		&ret.ID, &ret.OriginalReference, &ret.Status, &createdBy, &ret.CreatedAt,
		&resolvedBy, &ret.ResolvedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get return request: %w", err)
	}
	if createdBy != nil {
		ret.CreatedBy = *createdBy
	}
	if resolvedBy != nil {
		ret.ResolvedBy = *resolvedBy
	}

	items, err := r.listItems(ctx, id)
	if err != nil {
		return nil, err
	}
	ret.Items = items
	return &ret, nil
}

func (r *ReturnRepo) listItems(ctx context.Context, returnID string) ([]entity.ReturnLineItem, error) {
	query := `
		SELECT id, return_id, product_id, location_id, quantity, original_batch_id, expiration_date, unit_cost, restock_batch_id
		FROM return_line_items WHERE return_id = $1 ORDER BY id`
	rows, err := r.q.Query(ctx, query, returnID)
	if err != nil {
		return nil, fmt.Errorf("list return line items: %w", err)
	}
	defer rows.Close()
	var items []entity.ReturnLineItem
	for rows.Next() {
		var it entity.ReturnLineItem
		var originalBatch, restockBatch *string
		if err := rows.Scan(
			&it.ID, &it.ReturnID, &it.ProductID, &it.LocationID, &it.Quantity,
			&originalBatch, &it.ExpirationDate, &it.UnitCost, &restockBatch,
		); err != nil {
			return nil, fmt.Errorf("scan return line item: %w", err)
		}
		if originalBatch != nil {
			it.OriginalBatchID = *originalBatch
		}
		if restockBatch != nil {
			it.RestockBatchID = *restockBatch
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
