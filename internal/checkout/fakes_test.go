package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xquisito/pickandgo/internal/models"
	"github.com/xquisito/pickandgo/internal/storage"
)

// apiError mimics a remote error that carries a server message.
type apiError struct {
	msg string
}

func (e *apiError) Error() string       { return "remote: " + e.msg }
func (e *apiError) UserMessage() string { return e.msg }

type fakeOrders struct {
	mu sync.Mutex

	createErr   error
	failItemAt  int // 1-based; 0 never fails
	paidErr     error
	statusErr   error
	calls       []string
	created     []models.OrderRequest
	items       []models.LineItemRequest
	nextOrderID int
}

func (f *fakeOrders) CreateOrder(_ context.Context, req models.OrderRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "create_order")
	if f.createErr != nil {
		return "", f.createErr
	}
	f.nextOrderID++
	f.created = append(f.created, req)
	return fmt.Sprintf("order-%d", f.nextOrderID), nil
}

func (f *fakeOrders) CreateLineItem(_ context.Context, orderID string, req models.LineItemRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "create_item")
	if f.failItemAt > 0 && len(f.items)+1 == f.failItemAt {
		return "", &apiError{msg: "item rejected"}
	}
	f.items = append(f.items, req)
	return fmt.Sprintf("%s-item-%d", orderID, len(f.items)), nil
}

func (f *fakeOrders) UpdatePaymentStatus(context.Context, string, models.PaymentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "mark_paid")
	return f.paidErr
}

func (f *fakeOrders) UpdateOrderStatus(context.Context, string, models.OrderStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "mark_confirmed")
	return f.statusErr
}

func (f *fakeOrders) GetOrder(_ context.Context, orderID string) (*models.Order, error) {
	return &models.Order{ID: orderID, OrderStatus: models.OrderStatusConfirmed}, nil
}

type fakeGateway struct {
	result ChargeResult
	err    error
	calls  []ChargeRequest
}

func (f *fakeGateway) Charge(_ context.Context, req ChargeRequest) (ChargeResult, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return ChargeResult{}, f.err
	}
	return f.result, nil
}

type fakeRecorder struct {
	err     error
	records []models.TransactionRecord
}

func (f *fakeRecorder) RecordTransaction(_ context.Context, rec models.TransactionRecord) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, rec)
	return nil
}

type fakeCart struct {
	items      []models.CartLineItem
	clearErr   error
	removeErr  map[string]error
	removed    []string
	cleared    int
	refreshed  int
	refreshErr error
}

func (f *fakeCart) Items(context.Context, models.CartRef) ([]models.CartLineItem, error) {
	return f.items, nil
}

func (f *fakeCart) RemoveItem(_ context.Context, _ models.CartRef, cartItemID string) error {
	if err := f.removeErr[cartItemID]; err != nil {
		return err
	}
	f.removed = append(f.removed, cartItemID)
	kept := f.items[:0]
	for _, it := range f.items {
		if it.CartItemID != cartItemID {
			kept = append(kept, it)
		}
	}
	f.items = kept
	return nil
}

func (f *fakeCart) Clear(context.Context, models.CartRef) error {
	if f.clearErr != nil {
		return f.clearErr
	}
	f.cleared++
	f.items = nil
	return nil
}

func (f *fakeCart) Refresh(context.Context, models.CartRef) error {
	f.refreshed++
	return f.refreshErr
}

type fakeCatalog struct {
	menu []models.MenuSection
	err  error
}

func (f *fakeCatalog) MenuForBranch(context.Context, string, int) ([]models.MenuSection, error) {
	return f.menu, f.err
}

type fakeMethods struct {
	stored  []models.PaymentMethod
	deleted []string
}

func (f *fakeMethods) ListPaymentMethods(context.Context, models.CustomerIdentity) ([]models.PaymentMethod, error) {
	return f.stored, nil
}

func (f *fakeMethods) DeletePaymentMethod(_ context.Context, _ models.CustomerIdentity, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

// memSlots is an in-memory storage.SlotStore.
type memSlots struct {
	mu        sync.Mutex
	durable   map[string][]byte
	session   map[string][]byte
	putErr    error
	deleteErr error
	putCalls  int
}

func newMemSlots() *memSlots {
	return &memSlots{durable: map[string][]byte{}, session: map[string][]byte{}}
}

func (m *memSlots) PutDurable(_ context.Context, owner, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putCalls++
	if m.putErr != nil {
		return m.putErr
	}
	m.durable[owner+"|"+key] = value
	return nil
}

func (m *memSlots) GetDurable(_ context.Context, owner, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.durable[owner+"|"+key]
	if !ok {
		return nil, storage.ErrSlotNotFound
	}
	return v, nil
}

func (m *memSlots) DeleteDurable(_ context.Context, owner, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.durable, owner+"|"+key)
	return nil
}

func (m *memSlots) PutSession(_ context.Context, session, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putCalls++
	if m.putErr != nil {
		return m.putErr
	}
	m.session[session+"|"+key] = value
	return nil
}

func (m *memSlots) GetSession(_ context.Context, session, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.session[session+"|"+key]
	if !ok {
		return nil, storage.ErrSlotNotFound
	}
	return v, nil
}

func (m *memSlots) DeleteSession(_ context.Context, session, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.session, session+"|"+key)
	return nil
}

// memIdempotency is an in-memory storage.IdempotencyStore.
type memIdempotency struct {
	mu      sync.Mutex
	owners  map[string]string
	results map[string][]byte
	err     error
}

func newMemIdempotency() *memIdempotency {
	return &memIdempotency{owners: map[string]string{}, results: map[string][]byte{}}
}

func (m *memIdempotency) Begin(_ context.Context, key, owner string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if existing, ok := m.owners[key]; ok {
		if existing != owner {
			return nil, storage.ErrKeyConflict
		}
		if res, done := m.results[key]; done {
			return res, nil
		}
		return nil, storage.ErrKeyInProgress
	}
	m.owners[key] = owner
	return nil, nil
}

func (m *memIdempotency) Complete(_ context.Context, key string, result []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[key] = result
	return nil
}

func (m *memIdempotency) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.owners, key)
	return nil
}

type recordingObserver struct {
	steps       map[string]string
	submissions []string
	removed     int
	failOpen    bool
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{steps: map[string]string{}}
}

func (o *recordingObserver) ObserveStep(step, outcome string, _ time.Duration) {
	o.steps[step] = outcome
}

func (o *recordingObserver) ObserveSubmission(outcome string) {
	o.submissions = append(o.submissions, outcome)
}

func (o *recordingObserver) ObserveReconciliation(removed int, failOpen bool) {
	o.removed = removed
	o.failOpen = failOpen
}

var errBoom = errors.New("boom")

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func lineItem(id, name, price string, qty int) models.CartLineItem {
	return models.CartLineItem{
		ID:         id,
		CartItemID: "cart-" + id,
		Name:       name,
		Price:      d(price),
		Quantity:   qty,
		ExtraPrice: decimal.Zero,
		Images:     []string{"https://img.example/" + id + ".png"},
	}
}
