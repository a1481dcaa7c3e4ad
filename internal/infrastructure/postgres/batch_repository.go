package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/lotes-pos/internal/domain"
	"github.com/tu-usuario/lotes-pos/internal/domain/entity"
	"github.com/tu-usuario/lotes-pos/internal/domain/repository"
)

var _ repository.BatchRepository = (*BatchRepo)(nil)

const batchColumns = `id, product_id, location_id, quantity_on_hand, initial_quantity,
	expiration_date, unit_cost, received_at, source_kind, version, created_at, updated_at`

// Orden FIFO: vence primero sale primero, sin vencimiento al final,
// a igual vencimiento el recibido primero.
const batchFIFOOrder = ` ORDER BY expiration_date ASC NULLS LAST, received_at ASC`

// BatchRepo implementación de BatchRepository sobre PostgreSQL (usable con pool o tx).
type BatchRepo struct {
	q Querier
}

// NewBatchRepository construye el adaptador de lotes. Pasar pool o tx (Querier).
func NewBatchRepository(q Querier) *BatchRepo {
	return &BatchRepo{q: q}
}

// Create persiste un lote nuevo.
func (r *BatchRepo) Create(ctx context.Context, b *entity.Batch) error {
	query := `
		INSERT INTO batches (` + batchColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		b.ID, b.ProductID, b.LocationID, b.QuantityOnHand, b.InitialQuantity,
		b.ExpirationDate, b.UnitCost, b.ReceivedAt, b.SourceKind, b.Version,
		b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

// GetByID obtiene un lote por ID. Devuelve nil si no existe.
func (r *BatchRepo) GetByID(ctx context.Context, id string) (*entity.Batch, error) {
	return r.getOne(ctx, `SELECT `+batchColumns+` FROM batches WHERE id = $1`, id)
}

// GetByIDForUpdate obtiene un lote y bloquea la fila (SELECT FOR UPDATE).
func (r *BatchRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.Batch, error) {
	return r.getOne(ctx, `SELECT `+batchColumns+` FROM batches WHERE id = $1 FOR UPDATE`, id)
}

// List lotes de un producto en una ubicación en orden FIFO, incluidos los agotados.
func (r *BatchRepo) List(ctx context.Context, productID, locationID string) ([]entity.Batch, error) {
	query := `SELECT ` + batchColumns + ` FROM batches
		WHERE product_id = $1 AND location_id = $2` + batchFIFOOrder
	return r.list(ctx, query, productID, locationID)
}

// ListOpen lotes con existencias en orden FIFO.
func (r *BatchRepo) ListOpen(ctx context.Context, productID, locationID string) ([]entity.Batch, error) {
	query := `SELECT ` + batchColumns + ` FROM batches
		WHERE product_id = $1 AND location_id = $2 AND quantity_on_hand > 0` + batchFIFOOrder
	return r.list(ctx, query, productID, locationID)
}

// ListOpenForUpdate igual que ListOpen pero bloqueando las filas (SELECT FOR UPDATE).
func (r *BatchRepo) ListOpenForUpdate(ctx context.Context, productID, locationID string) ([]entity.Batch, error) {
	query := `SELECT ` + batchColumns + ` FROM batches
		WHERE product_id = $1 AND location_id = $2 AND quantity_on_hand > 0` + batchFIFOOrder + ` FOR UPDATE`
	return r.list(ctx, query, productID, locationID)
}

// FindOpenMatchForUpdate busca un lote abierto con el mismo vencimiento y costo
// unitario (política de fusión en traslados). Devuelve nil si no hay.
func (r *BatchRepo) FindOpenMatchForUpdate(ctx context.Context, productID, locationID string, expiration *time.Time, unitCost decimal.Decimal) (*entity.Batch, error) {
	query := `SELECT ` + batchColumns + ` FROM batches
		WHERE product_id = $1 AND location_id = $2 AND quantity_on_hand > 0
		  AND expiration_date IS NOT DISTINCT FROM $3 AND unit_cost = $4` +
		batchFIFOOrder + ` LIMIT 1 FOR UPDATE`
	return r.getOne(ctx, query, productID, locationID, expiration, unitCost)
}

// ApplyDelta suma delta a quantity_on_hand e incrementa version. La condición
// quantity_on_hand + delta >= 0 en el UPDATE garantiza que ninguna carrera
// deje el lote en negativo aunque el caller no haya bloqueado la fila.
func (r *BatchRepo) ApplyDelta(ctx context.Context, batchID string, delta decimal.Decimal) error {
	query := `
		UPDATE batches
		SET quantity_on_hand = quantity_on_hand + $2, version = version + 1, updated_at = now()
		WHERE id = $1 AND quantity_on_hand + $2 >= 0`
	cmd, err := r.q.Exec(ctx, query, batchID, delta)
	if err != nil {
		return fmt.Errorf("apply batch delta: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		existing, err := r.GetByID(ctx, batchID)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrNotFound
		}
		return domain.ErrInvalidQuantity
	}
	return nil
}

// StockLevel existencia total: Σ quantity_on_hand de los lotes.
func (r *BatchRepo) StockLevel(ctx context.Context, productID, locationID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(quantity_on_hand), 0)
		FROM batches WHERE product_id = $1 AND location_id = $2`
	var total decimal.Decimal
	if err := r.q.QueryRow(ctx, query, productID, locationID).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("stock level: %w", err)
	}
	return total, nil
}

func (r *BatchRepo) getOne(ctx context.Context, query string, args ...any) (*entity.Batch, error) {
	var b entity.Batch
	err := r.q.QueryRow(ctx, query, args...).Scan(
		&b.ID, &b.ProductID, &b.LocationID, &b.QuantityOnHand, &b.InitialQuantity,
		&b.ExpirationDate, &b.UnitCost, &b.ReceivedAt, &b.SourceKind, &b.Version,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get batch: %w", err)
	}
	return &b, nil
}

func (r *BatchRepo) list(ctx context.Context, query string, args ...any) ([]entity.Batch, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()
	var list []entity.Batch
	for rows.Next() {
		var b entity.Batch
		if err := rows.Scan(
			&b.ID, &b.ProductID, &b.LocationID, &b.QuantityOnHand, &b.InitialQuantity,
			&b.ExpirationDate, &b.UnitCost, &b.ReceivedAt, &b.SourceKind, &b.Version,
			&b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		list = append(list, b)
	}
	return list, rows.Err()
}
