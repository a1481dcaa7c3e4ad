package allocation

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/lotes-pos/internal/domain"
	"github.com/tu-usuario/lotes-pos/internal/domain/entity"
)

// Plan propone de qué lotes tomar una cantidad solicitada, sin mutar nada.
// Lines va en el orden de consumo; cada línea recuerda la versión del lote
// para detectar si cambió entre planear y aplicar.
type Plan struct {
	ProductID  string
	LocationID string
	Requested  decimal.Decimal
	Lines      []Line
}

// Line una porción del plan: cuánto tomar de qué lote.
type Line struct {
	BatchID      string
	Quantity     decimal.Decimal
	BatchVersion int64
}

// SortBatchesFIFO ordena lotes para consumo: vence primero sale primero
// (vencimiento ascendente, sin vencimiento al final) y a igual vencimiento,
// el recibido primero.
func SortBatchesFIFO(batches []entity.Batch) {
	sort.SliceStable(batches, func(i, j int) bool {
		ei, ej := batches[i].ExpirationDate, batches[j].ExpirationDate
		if ei == nil && ej == nil {
			return batches[i].ReceivedAt.Before(batches[j].ReceivedAt)
		}
		if ei == nil {
			return false
		}
		if ej == nil {
			return true
		}
		if !ei.Equal(*ej) {
			return ei.Before(*ej)
		}
		return batches[i].ReceivedAt.Before(batches[j].ReceivedAt)
	})
}

// BuildPlan arma un plan FIFO greedy sobre una foto de los lotes de un
// producto en una ubicación: acumula min(pendiente, disponible) por lote en
// orden FIFO hasta cubrir la cantidad. Si el total disponible no alcanza,
// devuelve InsufficientStockError con el faltante exacto y ningún plan parcial.
// Puro: no toca estado, el caller decide cuándo (y si) aplicarlo.
func BuildPlan(productID, locationID string, batches []entity.Batch, requested decimal.Decimal) (*Plan, error) {
	if !requested.IsPositive() {
		return nil, domain.ErrInvalidQuantity
	}

	open := make([]entity.Batch, 0, len(batches))
	for _, b := range batches {
		if b.ProductID == productID && b.LocationID == locationID && b.QuantityOnHand.IsPositive() {
			open = append(open, b)
		}
	}
	SortBatchesFIFO(open)

	plan := &Plan{ProductID: productID, LocationID: locationID, Requested: requested}
	remaining := requested
	for _, b := range open {
		if !remaining.IsPositive() {
			break
		}
		take := decimal.Min(remaining, b.QuantityOnHand)
		plan.Lines = append(plan.Lines, Line{
			BatchID:      b.ID,
			Quantity:     take,
			BatchVersion: b.Version,
		})
		remaining = remaining.Sub(take)
	}

	if remaining.IsPositive() {
		return nil, &domain.InsufficientStockError{
			ProductID:  productID,
			LocationID: locationID,
			Requested:  requested,
			Available:  requested.Sub(remaining),
			Shortfall:  remaining,
		}
	}
	return plan, nil
}

// Validate verifica que el plan siga siendo aplicable contra una foto fresca
// de los lotes (normalmente ya bloqueados): cada lote planificado debe existir,
// conservar la versión con la que se planeó y al menos la cantidad
// planificada. Devuelve false si algún lote cambió desde que se planeó.
func (p *Plan) Validate(batches []entity.Batch) bool {
	byID := make(map[string]*entity.Batch, len(batches))
	for i := range batches {
		byID[batches[i].ID] = &batches[i]
	}
	for _, line := range p.Lines {
		b, ok := byID[line.BatchID]
		if !ok {
			return false
		}
		if b.Version != line.BatchVersion {
			return false
		}
		if b.QuantityOnHand.LessThan(line.Quantity) {
			return false
		}
	}
	return true
}

// Total suma las cantidades de todas las líneas del plan.
func (p *Plan) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range p.Lines {
		total = total.Add(l.Quantity)
	}
	return total
}
