package inventory_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/lotes-pos/internal/application/inventory"
	"github.com/tu-usuario/lotes-pos/internal/domain"
	"github.com/tu-usuario/lotes-pos/internal/domain/allocation"
	"github.com/tu-usuario/lotes-pos/internal/domain/entity"
	"github.com/tu-usuario/lotes-pos/internal/domain/repository"
)

// memStore estado compartido de los fakes en memoria. Los repos toman mu por
// operación; las transacciones del fakeTxRunner serializan con txMu y
// restauran un snapshot si la función devuelve error (rollback).
type memStore struct {
	mu   sync.Mutex
	txMu sync.Mutex

	batches     map[string]*entity.Batch
	ledger      []entity.LedgerEntry
	transfers   map[string]*entity.Transfer
	returns     map[string]*entity.ReturnRequest
	adjustments []entity.AdjustmentRecord
	products    map[string]*entity.Product
	locations   map[string]*entity.Location

	// Inyección de fallas para probar atomicidad.
	failLedgerReason   string // Append con este reason devuelve error
	failTransferCreate bool
}

func newMemStore() *memStore {
	return &memStore{
		batches:   make(map[string]*entity.Batch),
		transfers: make(map[string]*entity.Transfer),
		returns:   make(map[string]*entity.ReturnRequest),
		products:  make(map[string]*entity.Product),
		locations: make(map[string]*entity.Location),
	}
}

func (s *memStore) addProduct(id string) {
	s.products[id] = &entity.Product{ID: id, SKU: "sku-" + id, Name: id}
}

func (s *memStore) addLocation(id string) {
	s.locations[id] = &entity.Location{ID: id, Name: id, Type: entity.LocationTypeWarehouse}
}

func (s *memStore) addBatch(b entity.Batch) {
	if b.InitialQuantity.IsZero() && b.QuantityOnHand.IsPositive() {
		b.InitialQuantity = b.QuantityOnHand
	}
	if b.SourceKind == "" {
		b.SourceKind = entity.BatchSourcePurchase
	}
	s.batches[b.ID] = &b
}

func (s *memStore) batchQty(id string) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.batches[id]; ok {
		return b.QuantityOnHand
	}
	return decimal.Zero
}

func (s *memStore) stock(productID, locationID string) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, b := range s.batches {
		if b.ProductID == productID && b.LocationID == locationID {
			total = total.Add(b.QuantityOnHand)
		}
	}
	return total
}

func (s *memStore) ledgerByReason(reason string) []entity.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.LedgerEntry
	for _, e := range s.ledger {
		if e.Reason == reason {
			out = append(out, e)
		}
	}
	return out
}

// sumDeltas suma del ledger de un lote, para verificar conservación:
// quantity_on_hand = initial_quantity + Σ deltas.
func (s *memStore) sumDeltas(batchID string) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := decimal.Zero
	for _, e := range s.ledger {
		if e.BatchID == batchID {
			sum = sum.Add(e.Delta)
		}
	}
	return sum
}

func (s *memStore) snapshot() *memStore {
	cp := newMemStore()
	for id, b := range s.batches {
		c := *b
		cp.batches[id] = &c
	}
	cp.ledger = append([]entity.LedgerEntry(nil), s.ledger...)
	for id, t := range s.transfers {
		c := *t
		c.LineItems = append([]entity.TransferLineItem(nil), t.LineItems...)
		cp.transfers[id] = &c
	}
	for id, r := range s.returns {
		c := *r
		c.Items = append([]entity.ReturnLineItem(nil), r.Items...)
		cp.returns[id] = &c
	}
	cp.adjustments = append([]entity.AdjustmentRecord(nil), s.adjustments...)
	return cp
}

func (s *memStore) restore(snap *memStore) {
	s.batches = snap.batches
	s.ledger = snap.ledger
	s.transfers = snap.transfers
	s.returns = snap.returns
	s.adjustments = snap.adjustments
}

// ──────────────────────────────────────────────────────────────────────────────
// Repos fake
// ──────────────────────────────────────────────────────────────────────────────

type fakeBatchRepo struct{ s *memStore }

var _ repository.BatchRepository = (*fakeBatchRepo)(nil)

func (r *fakeBatchRepo) Create(_ context.Context, b *entity.Batch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *b
	r.s.batches[b.ID] = &c
	return nil
}

func (r *fakeBatchRepo) GetByID(_ context.Context, id string) (*entity.Batch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.batches[id]
	if !ok {
		return nil, nil
	}
	c := *b
	return &c, nil
}

func (r *fakeBatchRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.Batch, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeBatchRepo) List(_ context.Context, productID, locationID string) ([]entity.Batch, error) {
	return r.listWhere(productID, locationID, false), nil
}

func (r *fakeBatchRepo) ListOpen(_ context.Context, productID, locationID string) ([]entity.Batch, error) {
	return r.listWhere(productID, locationID, true), nil
}

func (r *fakeBatchRepo) ListOpenForUpdate(ctx context.Context, productID, locationID string) ([]entity.Batch, error) {
	return r.ListOpen(ctx, productID, locationID)
}

func (r *fakeBatchRepo) listWhere(productID, locationID string, onlyOpen bool) []entity.Batch {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []entity.Batch
	for _, b := range r.s.batches {
		if b.ProductID != productID || b.LocationID != locationID {
			continue
		}
		if onlyOpen && !b.QuantityOnHand.IsPositive() {
			continue
		}
		out = append(out, *b)
	}
	allocation.SortBatchesFIFO(out)
	return out
}

func (r *fakeBatchRepo) FindOpenMatchForUpdate(_ context.Context, productID, locationID string, expiration *time.Time, unitCost decimal.Decimal) (*entity.Batch, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.batches {
		if b.ProductID != productID || b.LocationID != locationID || !b.QuantityOnHand.IsPositive() {
			continue
		}
		sameExp := (b.ExpirationDate == nil && expiration == nil) ||
			(b.ExpirationDate != nil && expiration != nil && b.ExpirationDate.Equal(*expiration))
		if sameExp && b.UnitCost.Equal(unitCost) {
			c := *b
			return &c, nil
		}
	}
	return nil, nil
}

func (r *fakeBatchRepo) ApplyDelta(_ context.Context, batchID string, delta decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.batches[batchID]
	if !ok {
		return domain.ErrNotFound
	}
	next := b.QuantityOnHand.Add(delta)
	if next.IsNegative() {
		return domain.ErrInvalidQuantity
	}
	b.QuantityOnHand = next
	b.Version++
	b.UpdatedAt = time.Now()
	return nil
}

func (r *fakeBatchRepo) StockLevel(_ context.Context, productID, locationID string) (decimal.Decimal, error) {
	return r.s.stock(productID, locationID), nil
}

type fakeLedgerRepo struct{ s *memStore }

var _ repository.LedgerRepository = (*fakeLedgerRepo)(nil)

func (r *fakeLedgerRepo) Append(_ context.Context, e *entity.LedgerEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failLedgerReason != "" && e.Reason == r.s.failLedgerReason {
		return errors.New("falla inyectada en ledger")
	}
	r.s.ledger = append(r.s.ledger, *e)
	return nil
}

func (r *fakeLedgerRepo) ExistsByIdempotencyKey(_ context.Context, key string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.ledger {
		if e.IdempotencyKey == key {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeLedgerRepo) ListByBatch(_ context.Context, batchID string, _, _ int) ([]entity.LedgerEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []entity.LedgerEntry
	for _, e := range r.s.ledger {
		if e.BatchID == batchID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeLedgerRepo) ListByReference(_ context.Context, referenceID string) ([]entity.LedgerEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []entity.LedgerEntry
	for _, e := range r.s.ledger {
		if e.ReferenceID == referenceID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeLedgerRepo) SumDeltasByBatch(_ context.Context, batchID string) (decimal.Decimal, error) {
	return r.s.sumDeltas(batchID), nil
}

type fakeTransferRepo struct{ s *memStore }

var _ repository.TransferRepository = (*fakeTransferRepo)(nil)

func (r *fakeTransferRepo) Create(_ context.Context, t *entity.Transfer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failTransferCreate {
		return errors.New("falla inyectada en transfers")
	}
	c := *t
	c.LineItems = append([]entity.TransferLineItem(nil), t.LineItems...)
	r.s.transfers[t.ID] = &c
	return nil
}

func (r *fakeTransferRepo) GetByID(_ context.Context, id string) (*entity.Transfer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.transfers[id]
	if !ok {
		return nil, nil
	}
	c := *t
	c.LineItems = append([]entity.TransferLineItem(nil), t.LineItems...)
	return &c, nil
}

func (r *fakeTransferRepo) List(_ context.Context, _, _ int) ([]entity.Transfer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []entity.Transfer
	for _, t := range r.s.transfers {
		out = append(out, *t)
	}
	return out, nil
}

type fakeReturnRepo struct{ s *memStore }

var _ repository.ReturnRepository = (*fakeReturnRepo)(nil)

func (r *fakeReturnRepo) Create(_ context.Context, ret *entity.ReturnRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *ret
	c.Items = append([]entity.ReturnLineItem(nil), ret.Items...)
	r.s.returns[ret.ID] = &c
	return nil
}

func (r *fakeReturnRepo) GetByID(_ context.Context, id string) (*entity.ReturnRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ret, ok := r.s.returns[id]
	if !ok {
		return nil, nil
	}
	c := *ret
	c.Items = append([]entity.ReturnLineItem(nil), ret.Items...)
	return &c, nil
}

func (r *fakeReturnRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.ReturnRequest, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeReturnRepo) UpdateStatus(_ context.Context, id, status, resolvedBy string, resolvedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ret, ok := r.s.returns[id]
	if !ok {
		return domain.ErrNotFound
	}
	ret.Status = status
	ret.ResolvedBy = resolvedBy
	at := resolvedAt
	ret.ResolvedAt = &at
	return nil
}

func (r *fakeReturnRepo) SetItemRestockBatch(_ context.Context, itemID, batchID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, ret := range r.s.returns {
		for i := range ret.Items {
			if ret.Items[i].ID == itemID {
				ret.Items[i].RestockBatchID = batchID
				return nil
			}
		}
	}
	return domain.ErrNotFound
}

type fakeAdjustmentRepo struct{ s *memStore }

var _ repository.AdjustmentRepository = (*fakeAdjustmentRepo)(nil)

func (r *fakeAdjustmentRepo) Create(_ context.Context, adj *entity.AdjustmentRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.adjustments = append(r.s.adjustments, *adj)
	return nil
}

func (r *fakeAdjustmentRepo) ListByBatch(_ context.Context, batchID string) ([]entity.AdjustmentRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []entity.AdjustmentRecord
	for _, a := range r.s.adjustments {
		if a.BatchID == batchID {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeProductRepo struct{ s *memStore }

var _ repository.ProductRepository = (*fakeProductRepo)(nil)

func (r *fakeProductRepo) Create(_ context.Context, p *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *p
	r.s.products[p.ID] = &c
	return nil
}

func (r *fakeProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	c := *p
	return &c, nil
}

func (r *fakeProductRepo) GetBySKU(_ context.Context, sku string) (*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.products {
		if p.SKU == sku {
			c := *p
			return &c, nil
		}
	}
	return nil, nil
}

func (r *fakeProductRepo) List(_ context.Context, _, _ int) ([]entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []entity.Product
	for _, p := range r.s.products {
		out = append(out, *p)
	}
	return out, nil
}

func (r *fakeProductRepo) Update(_ context.Context, p *entity.Product) error {
	return r.Create(context.Background(), p)
}

type fakeLocationRepo struct{ s *memStore }

var _ repository.LocationRepository = (*fakeLocationRepo)(nil)

func (r *fakeLocationRepo) Create(_ context.Context, l *entity.Location) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *l
	r.s.locations[l.ID] = &c
	return nil
}

func (r *fakeLocationRepo) GetByID(_ context.Context, id string) (*entity.Location, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.locations[id]
	if !ok {
		return nil, nil
	}
	c := *l
	return &c, nil
}

func (r *fakeLocationRepo) List(_ context.Context, _, _ int) ([]entity.Location, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []entity.Location
	for _, l := range r.s.locations {
		out = append(out, *l)
	}
	return out, nil
}

func (r *fakeLocationRepo) Update(_ context.Context, l *entity.Location) error {
	return r.Create(context.Background(), l)
}

// ──────────────────────────────────────────────────────────────────────────────
// TxRunner fake
// ──────────────────────────────────────────────────────────────────────────────

// fakeTxRunner serializa las transacciones y restaura el estado previo si la
// función devuelve error, emulando el rollback de una transacción real.
type fakeTxRunner struct{ s *memStore }

var _ inventory.TxRunner = (*fakeTxRunner)(nil)

func (tr *fakeTxRunner) Run(ctx context.Context, fn func(repository.BatchRepository, repository.LedgerRepository) error) error {
	return tr.RunFull(ctx, func(
		batchRepo repository.BatchRepository,
		ledgerRepo repository.LedgerRepository,
		_ repository.TransferRepository,
		_ repository.ReturnRepository,
		_ repository.AdjustmentRepository,
	) error {
		return fn(batchRepo, ledgerRepo)
	})
}

func (tr *fakeTxRunner) RunFull(_ context.Context, fn func(
	repository.BatchRepository,
	repository.LedgerRepository,
	repository.TransferRepository,
	repository.ReturnRepository,
	repository.AdjustmentRepository,
) error) error {
	tr.s.txMu.Lock()
	defer tr.s.txMu.Unlock()

	tr.s.mu.Lock()
	snap := tr.s.snapshot()
	tr.s.mu.Unlock()

	err := fn(
		&fakeBatchRepo{s: tr.s},
		&fakeLedgerRepo{s: tr.s},
		&fakeTransferRepo{s: tr.s},
		&fakeReturnRepo{s: tr.s},
		&fakeAdjustmentRepo{s: tr.s},
	)
	if err != nil {
		tr.s.mu.Lock()
		tr.s.restore(snap)
		tr.s.mu.Unlock()
		return err
	}
	return nil
}
