package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/lotes-pos/internal/application/inventory"
	"github.com/tu-usuario/lotes-pos/internal/domain"
	"github.com/tu-usuario/lotes-pos/internal/domain/entity"
	"github.com/tu-usuario/lotes-pos/internal/infrastructure/lock"
)

const destLocation = "tienda-1"

func newTransferUC(s *memStore) *inventory.TransferUseCase {
	return inventory.NewTransferUseCase(
		&fakeTxRunner{s: s},
		lock.NewMemoryLocker(2*time.Second),
		&fakeTransferRepo{s: s},
		&fakeProductRepo{s: s},
		&fakeLocationRepo{s: s},
	)
}

func seedTransferScenario(s *memStore) {
	seedTwoBatches(s)
	s.addLocation(destLocation)
}

// Trasladar 7 con lotes de 5+5 en origen: consume FIFO en origen y crea lotes
// en destino conservando vencimiento y costo de cada lote de origen.
func TestTransfer_ConsumeFIFOYPreservaLotes(t *testing.T) {
	s := newMemStore()
	seedTransferScenario(s)
	uc := newTransferUC(s)

	transfer, err := uc.Transfer(context.Background(), inventory.TransferInput{
		ProductID:        testProduct,
		SourceLocationID: testLocation,
		DestLocationID:   destLocation,
		Quantity:         dec("7"),
		UserID:           testUser,
	})
	require.NoError(t, err)
	require.NotNil(t, transfer)
	assert.Equal(t, entity.TransferStatusCompleted, transfer.Status)
	require.Len(t, transfer.LineItems, 2)

	// Origen: 5+5 - 7 = 3.
	assert.True(t, s.stock(testProduct, testLocation).Equal(dec("3")))
	// Destino: 7, repartido en lotes que heredan vencimiento y costo.
	assert.True(t, s.stock(testProduct, destLocation).Equal(dec("7")))

	for _, item := range transfer.LineItems {
		dest, err := (&fakeBatchRepo{s: s}).GetByID(context.Background(), item.DestBatchID)
		require.NoError(t, err)
		require.NotNil(t, dest)
		assert.Equal(t, entity.BatchSourceTransferIn, dest.SourceKind)
		assert.True(t, dest.UnitCost.Equal(item.UnitCost), "el lote destino hereda el costo del origen")
		if item.ExpirationDate != nil {
			require.NotNil(t, dest.ExpirationDate)
			assert.True(t, dest.ExpirationDate.Equal(*item.ExpirationDate))
		}
		// Conservación del lote destino: nace en 0 y la entrada queda en ledger.
		assert.True(t, dest.QuantityOnHand.Equal(dest.InitialQuantity.Add(s.sumDeltas(dest.ID))))
	}

	outs := s.ledgerByReason(entity.LedgerReasonTransferOut)
	ins := s.ledgerByReason(entity.LedgerReasonTransferIn)
	assert.Len(t, outs, 2)
	assert.Len(t, ins, 2)
	for _, e := range outs {
		assert.Equal(t, transfer.ID, e.ReferenceID)
		assert.True(t, e.Delta.IsNegative())
	}
	for _, e := range ins {
		assert.Equal(t, transfer.ID, e.ReferenceID)
		assert.True(t, e.Delta.IsPositive())
	}
}

// Si en destino ya hay un lote abierto con el mismo vencimiento y costo, la
// porción se fusiona en vez de crear un lote paralelo.
func TestTransfer_FusionaConLoteIdentico(t *testing.T) {
	s := newMemStore()
	seedTransferScenario(s)
	s.addBatch(entity.Batch{
		ID: "dest-1", ProductID: testProduct, LocationID: destLocation,
		QuantityOnHand: dec("2"), ExpirationDate: expDay(10),
		UnitCost:   dec("2.50"),
		SourceKind: entity.BatchSourceTransferIn,
		ReceivedAt: time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC),
	})
	uc := newTransferUC(s)

	transfer, err := uc.Transfer(context.Background(), inventory.TransferInput{
		ProductID:        testProduct,
		SourceLocationID: testLocation,
		DestLocationID:   destLocation,
		Quantity:         dec("3"),
		UserID:           testUser,
	})
	require.NoError(t, err)
	require.Len(t, transfer.LineItems, 1)

	item := transfer.LineItems[0]
	assert.True(t, item.Merged, "debe fusionarse con el lote idéntico existente")
	assert.Equal(t, "dest-1", item.DestBatchID)
	assert.True(t, s.batchQty("dest-1").Equal(dec("5")), "2 existentes + 3 trasladadas")
}

// Falla dentro de la transacción (al asentar transfer_in): rollback total, el
// origen queda intacto y solo sobrevive el rastro del traslado fallido.
func TestTransfer_FallaEnDestino_RollbackTotal(t *testing.T) {
	s := newMemStore()
	seedTransferScenario(s)
	s.failLedgerReason = entity.LedgerReasonTransferIn
	uc := newTransferUC(s)

	_, err := uc.Transfer(context.Background(), inventory.TransferInput{
		ProductID:        testProduct,
		SourceLocationID: testLocation,
		DestLocationID:   destLocation,
		Quantity:         dec("4"),
		UserID:           testUser,
	})
	require.Error(t, err)

	assert.True(t, s.stock(testProduct, testLocation).Equal(dec("10")), "el origen no debe perder stock")
	assert.True(t, s.stock(testProduct, destLocation).IsZero(), "el destino no debe ganar stock")
	assert.Empty(t, s.ledgerByReason(entity.LedgerReasonTransferOut))

	s.mu.Lock()
	var failed *entity.Transfer
	for _, tr := range s.transfers {
		failed = tr
	}
	s.mu.Unlock()
	require.NotNil(t, failed, "debe quedar el rastro del intento")
	assert.Equal(t, entity.TransferStatusFailed, failed.Status)
	assert.Empty(t, failed.LineItems)
}

func TestTransfer_Validaciones(t *testing.T) {
	s := newMemStore()
	seedTransferScenario(s)
	uc := newTransferUC(s)

	// Misma ubicación origen y destino.
	_, err := uc.Transfer(context.Background(), inventory.TransferInput{
		ProductID:        testProduct,
		SourceLocationID: testLocation,
		DestLocationID:   testLocation,
		Quantity:         dec("1"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// Cantidad no positiva.
	_, err = uc.Transfer(context.Background(), inventory.TransferInput{
		ProductID:        testProduct,
		SourceLocationID: testLocation,
		DestLocationID:   destLocation,
		Quantity:         dec("0"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	// Ubicación inexistente.
	_, err = uc.Transfer(context.Background(), inventory.TransferInput{
		ProductID:        testProduct,
		SourceLocationID: testLocation,
		DestLocationID:   "no-existe",
		Quantity:         dec("1"),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Stock insuficiente en origen: nada se mueve.
	_, err = uc.Transfer(context.Background(), inventory.TransferInput{
		ProductID:        testProduct,
		SourceLocationID: testLocation,
		DestLocationID:   destLocation,
		Quantity:         dec("11"),
	})
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.True(t, insufficient.Shortfall.Equal(dec("1")))
	assert.True(t, s.stock(testProduct, testLocation).Equal(dec("10")))
	assert.True(t, s.stock(testProduct, destLocation).IsZero())
}

// Traslados en direcciones opuestas no se bloquean entre sí: los locks se
// toman en orden canónico.
func TestTransfer_DireccionesOpuestas_SinDeadlock(t *testing.T) {
	s := newMemStore()
	seedTransferScenario(s)
	s.addBatch(entity.Batch{
		ID: "d1", ProductID: testProduct, LocationID: destLocation,
		QuantityOnHand: dec("5"), UnitCost: dec("3.00"),
		ReceivedAt: time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC),
	})
	uc := newTransferUC(s)

	done := make(chan error, 2)
	go func() {
		_, err := uc.Transfer(context.Background(), inventory.TransferInput{
			ProductID: testProduct, SourceLocationID: testLocation,
			DestLocationID: destLocation, Quantity: dec("2"), UserID: testUser,
		})
		done <- err
	}()
	go func() {
		_, err := uc.Transfer(context.Background(), inventory.TransferInput{
			ProductID: testProduct, SourceLocationID: destLocation,
			DestLocationID: testLocation, Quantity: dec("2"), UserID: testUser,
		})
		done <- err
	}()

	for i := 0; i < 2; i++ {
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("deadlock: los traslados opuestos no terminaron")
		}
	}
	// El neto no cambia: 2 para allá y 2 para acá.
	assert.True(t, s.stock(testProduct, testLocation).Equal(dec("10")))
	assert.True(t, s.stock(testProduct, destLocation).Equal(dec("5")))
}

// Comprobante de error con el ledger por referencia: todas las entradas de un
// traslado suman cero (lo que sale de origen entra a destino).
func TestTransfer_LedgerPorReferenciaSumaCero(t *testing.T) {
	s := newMemStore()
	seedTransferScenario(s)
	uc := newTransferUC(s)

	transfer, err := uc.Transfer(context.Background(), inventory.TransferInput{
		ProductID:        testProduct,
		SourceLocationID: testLocation,
		DestLocationID:   destLocation,
		Quantity:         dec("6"),
		UserID:           testUser,
	})
	require.NoError(t, err)

	entries, err := (&fakeLedgerRepo{s: s}).ListByReference(context.Background(), transfer.ID)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	sum := dec("0")
	for _, e := range entries {
		sum = sum.Add(e.Delta)
	}
	assert.True(t, sum.IsZero(), "el traslado debe ser neutro en el ledger")
}
