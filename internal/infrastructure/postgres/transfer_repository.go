package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/lotes-pos/internal/domain/entity"
	"github.com/tu-usuario/lotes-pos/internal/domain/repository"
)

var _ repository.TransferRepository = (*TransferRepo)(nil)

// TransferRepo implementación de TransferRepository sobre PostgreSQL.
type TransferRepo struct {
	q Querier
}

// NewTransferRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransferRepository(q Querier) *TransferRepo {
	return &TransferRepo{q: q}
}

// Create persiste el traslado con sus line items.
func (r *TransferRepo) Create(ctx context.Context, t *entity.Transfer) error {
	query := `
		INSERT INTO transfers (id, product_id, source_location_id, dest_location_id, quantity, status, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	createdBy := (*string)(nil)
	if t.CreatedBy != "" {
		createdBy = &t.CreatedBy
	}
	_, err := r.q.Exec(ctx, query,
		t.ID, t.ProductID, t.SourceLocationID, t.DestLocationID, t.Quantity,
		t.Status, createdBy, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transfer: %w", err)
	}
	for i := range t.LineItems {
		item := &t.LineItems[i]
		itemQuery := `
			INSERT INTO transfer_line_items (id, transfer_id, source_batch_id, dest_batch_id, quantity, unit_cost, expiration_date, merged)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
		_, err := r.q.Exec(ctx, itemQuery,
			item.ID, t.ID, item.SourceBatchID, item.DestBatchID, item.Quantity,
			item.UnitCost, item.ExpirationDate, item.Merged,
		)
		if err != nil {
			return fmt.Errorf("insert transfer line item: %w", err)
		}
	}
	return nil
}

// GetByID obtiene un traslado con sus line items. Devuelve nil si no existe.
func (r *TransferRepo) GetByID(ctx context.Context, id string) (*entity.Transfer, error) {
	query := `
		SELECT id, product_id, source_location_id, dest_location_id, quantity, status, created_by, created_at
		FROM transfers WHERE id = $1`
	var t entity.Transfer
	var createdBy *string
	err := r.q.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.ProductID, &t.SourceLocationID, &t.DestLocationID, &t.Quantity,
		&t.Status, &createdBy, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transfer: %w", err)
	}
	if createdBy != nil {
		t.CreatedBy = *createdBy
	}

	items, err := r.listItems(ctx, id)
	if err != nil {
		return nil, err
	}
	t.LineItems = items
	return &t, nil
}

// List traslados más recientes primero (sin line items).
func (r *TransferRepo) List(ctx context.Context, limit, offset int) ([]entity.Transfer, error) {
	query := `
		SELECT id, product_id, source_location_id, dest_location_id, quantity, status, created_by, created_at
		FROM transfers ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()
	var list []entity.Transfer
	for rows.Next() {
		var t entity.Transfer
		var createdBy *string
		if err := rows.Scan(
			&t.ID, &t.ProductID, &t.SourceLocationID, &t.DestLocationID, &t.Quantity,
			&t.Status, &createdBy, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		if createdBy != nil {
			t.CreatedBy = *createdBy
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func (r *TransferRepo) listItems(ctx context.Context, transferID string) ([]entity.TransferLineItem, error) {
	query := `
		SELECT id, transfer_id, source_batch_id, dest_batch_id, quantity, unit_cost, expiration_date, merged
		FROM transfer_line_items WHERE transfer_id = $1 ORDER BY id`
	rows, err := r.q.Query(ctx, query, transferID)
	if err != nil {
		return nil, fmt.Errorf("list transfer line items: %w", err)
	}
	defer rows.Close()
	var items []entity.TransferLineItem
	for rows.Next() {
		var it entity.TransferLineItem
		if err := rows.Scan(
			&it.ID, &it.TransferID, &it.SourceBatchID, &it.DestBatchID, &it.Quantity,
			&it.UnitCost, &it.ExpirationDate, &it.Merged,
		); err != nil {
			return nil, fmt.Errorf("scan transfer line item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
