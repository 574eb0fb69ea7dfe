package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/infrastructure/store"
)

// MockLedger is an in-memory OrderLedger for testing. It mirrors the
// idempotency semantics of the Postgres implementation, including the unique
// session constraint.
type MockLedger struct {
	mu      sync.Mutex
	orders  []*order.Order
	byID    map[string]*order.Order
	bySess  map[string]*order.Order

	// For tracking calls and injecting failures in tests
	CreatePendingCalls int
	MarkPaidCalls      int
	MarkFailedCalls    int
	UpdateStatusCalls  int
	Err                error
}

func NewMockLedger() *MockLedger {
	return &MockLedger{
		byID:   make(map[string]*order.Order),
		bySess: make(map[string]*order.Order),
	}
}

func (m *MockLedger) CreatePending(ctx context.Context, o *order.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreatePendingCalls++
	if m.Err != nil {
		return m.Err
	}
	if _, exists := m.bySess[o.SessionID]; exists {
		return store.ErrDuplicateSession
	}
	cp := *o
	m.insert(&cp)
	return nil
}

func (m *MockLedger) MarkPaid(ctx context.Context, sessionID string, seed *order.Order) (*order.Order, order.Status, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MarkPaidCalls++
	if m.Err != nil {
		return nil, "", false, m.Err
	}

	existing, ok := m.bySess[sessionID]
	if !ok {
		if seed == nil {
			return nil, "", false, store.ErrNotFound
		}
		paid := *seed
		paid.SessionID = sessionID
		paid.Status = order.StatusPaid
		paid.CreatedAt = time.Now()
		paid.UpdatedAt = paid.CreatedAt
		m.insert(&paid)
		cp := paid
		return &cp, order.StatusPending, true, nil
	}

	prev := existing.Status
	if prev != order.StatusPending {
		cp := *existing
		return &cp, prev, false, nil
	}
	existing.Status = order.StatusPaid
	existing.UpdatedAt = time.Now()
	cp := *existing
	return &cp, prev, true, nil
}

func (m *MockLedger) MarkFailed(ctx context.Context, sessionID string) (*order.Order, order.Status, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MarkFailedCalls++
	if m.Err != nil {
		return nil, "", false, m.Err
	}

	existing, ok := m.bySess[sessionID]
	if !ok {
		return nil, "", false, nil
	}
	prev := existing.Status
	if !existing.CanTransitionTo(order.StatusPaymentFailed) {
		cp := *existing
		return &cp, prev, false, nil
	}
	existing.Status = order.StatusPaymentFailed
	existing.UpdatedAt = time.Now()
	cp := *existing
	return &cp, prev, true, nil
}

func (m *MockLedger) UpdateStatus(ctx context.Context, orderID string, next order.Status) (*order.Order, order.Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateStatusCalls++
	if m.Err != nil {
		return nil, "", m.Err
	}

	existing, ok := m.byID[orderID]
	if !ok {
		return nil, "", order.ErrOrderNotFound
	}
	prev := existing.Status
	if !existing.CanTransitionTo(next) {
		cp := *existing
		return &cp, prev, existing.TransitionError(next)
	}
	existing.Status = next
	existing.UpdatedAt = time.Now()
	cp := *existing
	return &cp, prev, nil
}

func (m *MockLedger) GetByID(ctx context.Context, orderID string) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[orderID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *MockLedger) GetBySessionID(ctx context.Context, sessionID string) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.bySess[sessionID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *MockLedger) ListRecent(ctx context.Context, limit int) ([]*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*order.Order
	for i := len(m.orders) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		cp := *m.orders[i]
		out = append(out, &cp)
	}
	return out, nil
}

// Count returns the number of orders held, for idempotency assertions.
func (m *MockLedger) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

func (m *MockLedger) insert(o *order.Order) {
	m.orders = append(m.orders, o)
	m.byID[o.ID] = o
	m.bySess[o.SessionID] = o
}
