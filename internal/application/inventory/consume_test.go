package inventory_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/lotes-pos/internal/application/inventory"
	"github.com/tu-usuario/lotes-pos/internal/domain"
	"github.com/tu-usuario/lotes-pos/internal/domain/allocation"
	"github.com/tu-usuario/lotes-pos/internal/domain/entity"
	"github.com/tu-usuario/lotes-pos/internal/infrastructure/lock"
)

const (
	testProduct  = "prod-1"
	testLocation = "bodega-1"
	testUser     = "user-1"
)

func dec(s string) decimal.Decimal {
	v, _ := decimal.NewFromString(s)
	return v
}

func expDay(day int) *time.Time {
	t := time.Date(2026, time.June, day, 0, 0, 0, 0, time.UTC)
	return &t
}

// escenario base: dos lotes de 5 unidades, el primero vence antes.
func seedTwoBatches(s *memStore) {
	s.addProduct(testProduct)
	s.addLocation(testLocation)
	s.addBatch(entity.Batch{
		ID: "b1", ProductID: testProduct, LocationID: testLocation,
		QuantityOnHand: dec("5"), ExpirationDate: expDay(10),
		UnitCost:   dec("2.50"),
		ReceivedAt: time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
	})
	s.addBatch(entity.Batch{
		ID: "b2", ProductID: testProduct, LocationID: testLocation,
		QuantityOnHand: dec("5"), ExpirationDate: expDay(20),
		UnitCost:   dec("2.80"),
		ReceivedAt: time.Date(2026, time.January, 2, 0, 0, 0, 0, time.UTC),
	})
}

func newConsumeUC(s *memStore) *inventory.ConsumeUseCase {
	return inventory.NewConsumeUseCase(&fakeTxRunner{s: s}, lock.NewMemoryLocker(2*time.Second))
}

func planFor(t *testing.T, s *memStore, qty string) *allocation.Plan {
	t.Helper()
	batches, err := (&fakeBatchRepo{s: s}).ListOpen(context.Background(), testProduct, testLocation)
	require.NoError(t, err)
	plan, err := allocation.BuildPlan(testProduct, testLocation, batches, dec(qty))
	require.NoError(t, err)
	return plan
}

// Consumir 7 con lotes de 5+5: descuenta 5 del que vence primero y 2 del
// siguiente, con una entrada de ledger por lote y conservación intacta.
func TestConsume_DescuentaFIFOYAsientaLedger(t *testing.T) {
	s := newMemStore()
	seedTwoBatches(s)
	uc := newConsumeUC(s)

	plan := planFor(t, s, "7")
	err := uc.Consume(context.Background(), inventory.ConsumeInput{
		Plan:        plan,
		Reason:      entity.LedgerReasonSale,
		ReferenceID: "venta-1",
		UserID:      testUser,
	})
	require.NoError(t, err)

	assert.True(t, s.batchQty("b1").IsZero(), "b1 debe quedar agotado")
	assert.True(t, s.batchQty("b2").Equal(dec("3")), "b2 debe quedar en 3")

	entries := s.ledgerByReason(entity.LedgerReasonSale)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.True(t, e.Delta.IsNegative(), "todo consumo asienta delta negativo")
		assert.Equal(t, "venta-1", e.ReferenceID)
	}

	// Conservación: quantity_on_hand = initial_quantity + Σ deltas.
	for _, id := range []string{"b1", "b2"} {
		b, _ := (&fakeBatchRepo{s: s}).GetByID(context.Background(), id)
		assert.True(t, b.QuantityOnHand.Equal(b.InitialQuantity.Add(s.sumDeltas(id))),
			"conservación rota en %s", id)
	}
}

// Un reintento con la misma clave de idempotencia es un no-op exitoso.
func TestConsume_ReintentoIdempotente(t *testing.T) {
	s := newMemStore()
	seedTwoBatches(s)
	uc := newConsumeUC(s)

	in := inventory.ConsumeInput{
		Plan:           planFor(t, s, "4"),
		Reason:         entity.LedgerReasonSale,
		ReferenceID:    "venta-2",
		IdempotencyKey: "idem-abc",
		UserID:         testUser,
	}
	require.NoError(t, uc.Consume(context.Background(), in))
	stockAfter := s.stock(testProduct, testLocation)
	ledgerAfter := len(s.ledgerByReason(entity.LedgerReasonSale))

	// Mismo input otra vez: sin error, sin doble descuento, sin nuevas entradas.
	require.NoError(t, uc.Consume(context.Background(), in))
	assert.True(t, s.stock(testProduct, testLocation).Equal(stockAfter))
	assert.Len(t, s.ledgerByReason(entity.LedgerReasonSale), ledgerAfter)
}

// El plan quedó obsoleto pero el stock total alcanza: replanifica y aplica.
func TestConsume_PlanObsoleto_Replanifica(t *testing.T) {
	s := newMemStore()
	seedTwoBatches(s)
	uc := newConsumeUC(s)

	plan := planFor(t, s, "6")
	// Otro proceso consumió 2 de b1 después de planear.
	require.NoError(t, (&fakeBatchRepo{s: s}).ApplyDelta(context.Background(), "b1", dec("-2")))

	err := uc.Consume(context.Background(), inventory.ConsumeInput{
		Plan:        plan,
		Reason:      entity.LedgerReasonSale,
		ReferenceID: "venta-3",
		UserID:      testUser,
	})
	require.NoError(t, err)
	// 10 - 2 externas - 6 consumidas = 2.
	assert.True(t, s.stock(testProduct, testLocation).Equal(dec("2")))
}

// El plan quedó obsoleto y ya no alcanza: falla con stock insuficiente y no
// toca nada.
func TestConsume_PlanObsoleto_StockYaNoAlcanza(t *testing.T) {
	s := newMemStore()
	seedTwoBatches(s)
	uc := newConsumeUC(s)

	plan := planFor(t, s, "9")
	require.NoError(t, (&fakeBatchRepo{s: s}).ApplyDelta(context.Background(), "b2", dec("-4")))

	err := uc.Consume(context.Background(), inventory.ConsumeInput{
		Plan:        plan,
		Reason:      entity.LedgerReasonSale,
		ReferenceID: "venta-4",
		UserID:      testUser,
	})
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))
	assert.True(t, s.stock(testProduct, testLocation).Equal(dec("6")), "el estado debe quedar intacto")
	assert.Empty(t, s.ledgerByReason(entity.LedgerReasonSale))
}

func TestConsume_EntradasInvalidas(t *testing.T) {
	s := newMemStore()
	seedTwoBatches(s)
	uc := newConsumeUC(s)
	plan := planFor(t, s, "2")

	// Sin plan.
	err := uc.Consume(context.Background(), inventory.ConsumeInput{
		Reason: entity.LedgerReasonSale, ReferenceID: "x",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// Reason fuera del conjunto permitido para consumo.
	err = uc.Consume(context.Background(), inventory.ConsumeInput{
		Plan: plan, Reason: entity.LedgerReasonAdjustment, ReferenceID: "x",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// Sin referencia.
	err = uc.Consume(context.Background(), inventory.ConsumeInput{
		Plan: plan, Reason: entity.LedgerReasonSale,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.True(t, s.stock(testProduct, testLocation).Equal(dec("10")))
}

// Un plan armado por el cliente con cantidades no positivas se rechaza: una
// línea negativa aplicada con el negado sumaría stock en vez de descontarlo.
func TestConsume_RechazaCantidadesNoPositivas(t *testing.T) {
	s := newMemStore()
	seedTwoBatches(s)
	uc := newConsumeUC(s)

	cases := []*allocation.Plan{
		{
			ProductID: testProduct, LocationID: testLocation, Requested: dec("-5"),
			Lines: []allocation.Line{{BatchID: "b1", Quantity: dec("-5")}},
		},
		{
			ProductID: testProduct, LocationID: testLocation, Requested: dec("3"),
			Lines: []allocation.Line{
				{BatchID: "b1", Quantity: dec("5")},
				{BatchID: "b2", Quantity: dec("-2")},
			},
		},
		{
			ProductID: testProduct, LocationID: testLocation, Requested: dec("1"),
			Lines: []allocation.Line{{BatchID: "b1", Quantity: dec("0")}},
		},
	}
	for _, plan := range cases {
		err := uc.Consume(context.Background(), inventory.ConsumeInput{
			Plan: plan, Reason: entity.LedgerReasonSale, ReferenceID: "venta-neg",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	}

	// Nada se movió ni se asentó: el stock no puede inflarse por esta vía.
	assert.True(t, s.stock(testProduct, testLocation).Equal(dec("10")))
	assert.True(t, s.batchQty("b1").Equal(dec("5")))
	assert.Empty(t, s.ledgerByReason(entity.LedgerReasonSale))
}

// N consumidores concurrentes sobre el mismo (producto, ubicación) con stock
// exacto: todos deben aplicar y el stock final es cero, nunca negativo.
func TestConsume_ConcurrenciaStockExacto(t *testing.T) {
	const n = 8
	s := newMemStore()
	s.addProduct(testProduct)
	s.addLocation(testLocation)
	s.addBatch(entity.Batch{
		ID: "c1", ProductID: testProduct, LocationID: testLocation,
		QuantityOnHand: dec("8"), ExpirationDate: expDay(5),
		ReceivedAt: time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
	})
	s.addBatch(entity.Batch{
		ID: "c2", ProductID: testProduct, LocationID: testLocation,
		QuantityOnHand: dec("8"), ExpirationDate: expDay(15),
		ReceivedAt: time.Date(2026, time.January, 2, 0, 0, 0, 0, time.UTC),
	})
	uc := newConsumeUC(s)

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			batches, _ := (&fakeBatchRepo{s: s}).ListOpen(context.Background(), testProduct, testLocation)
			plan, err := allocation.BuildPlan(testProduct, testLocation, batches, dec("2"))
			if err != nil {
				errs[i] = err
				return
			}
			errs[i] = uc.Consume(context.Background(), inventory.ConsumeInput{
				Plan:        plan,
				Reason:      entity.LedgerReasonSale,
				ReferenceID: fmt.Sprintf("venta-conc-%d", i),
				UserID:      testUser,
			})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "el consumidor %d debió aplicar", i)
	}
	assert.True(t, s.stock(testProduct, testLocation).IsZero(), "16 unidades / 8 consumidores de 2 = stock final 0")
	assert.False(t, s.batchQty("c1").IsNegative())
	assert.False(t, s.batchQty("c2").IsNegative())
}

// Demanda concurrente mayor que el stock: algunos fallan con stock
// insuficiente y el stock nunca queda negativo.
func TestConsume_ConcurrenciaSobredemanda(t *testing.T) {
	const n = 8
	s := newMemStore()
	s.addProduct(testProduct)
	s.addLocation(testLocation)
	s.addBatch(entity.Batch{
		ID: "c1", ProductID: testProduct, LocationID: testLocation,
		QuantityOnHand: dec("10"),
		ReceivedAt:     time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
	})
	uc := newConsumeUC(s)

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			batches, _ := (&fakeBatchRepo{s: s}).ListOpen(context.Background(), testProduct, testLocation)
			plan, err := allocation.BuildPlan(testProduct, testLocation, batches, dec("2"))
			if err != nil {
				errs[i] = err
				return
			}
			errs[i] = uc.Consume(context.Background(), inventory.ConsumeInput{
				Plan:        plan,
				Reason:      entity.LedgerReasonSale,
				ReferenceID: fmt.Sprintf("venta-sobre-%d", i),
				UserID:      testUser,
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.Is(err, domain.ErrInsufficientStock) || errors.Is(err, domain.ErrConflict),
			"las fallas deben ser por stock insuficiente o conflicto, fue: %v", err)
	}
	final := s.stock(testProduct, testLocation)
	assert.False(t, final.IsNegative(), "el stock nunca puede quedar negativo")
	assert.True(t, final.Equal(dec("10").Sub(dec("2").Mul(decimal.NewFromInt(int64(succeeded))))),
		"el stock final debe reflejar exactamente los consumos aplicados")
	assert.Equal(t, 5, succeeded, "solo caben 5 consumos de 2 en 10 unidades")
}
