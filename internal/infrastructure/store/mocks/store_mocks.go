package mocks

import (
	"context"
	"sync"

	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/domain/subscription"
	"github.com/example/storefront/internal/infrastructure/store"
)

// MockCartStore is an in-memory CartStore.
type MockCartStore struct {
	mu    sync.Mutex
	carts map[string]*cart.Cart

	SaveCalls int
	Err       error
}

func NewMockCartStore() *MockCartStore {
	return &MockCartStore{carts: make(map[string]*cart.Cart)}
}

func (m *MockCartStore) Get(ctx context.Context, visitorID string) (*cart.Cart, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, false, m.Err
	}
	c, ok := m.carts[visitorID]
	if !ok {
		return nil, false, nil
	}
	cp := *c
	cp.Items = append([]cart.Item(nil), c.Items...)
	return &cp, true, nil
}

func (m *MockCartStore) Save(ctx context.Context, c *cart.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveCalls++
	if m.Err != nil {
		return m.Err
	}
	cp := *c
	cp.Items = append([]cart.Item(nil), c.Items...)
	m.carts[c.VisitorID] = &cp
	return nil
}

// MockCatalog is an in-memory ProductCatalog.
type MockCatalog struct {
	mu       sync.Mutex
	products map[string]*store.Product
}

func NewMockCatalog(products ...*store.Product) *MockCatalog {
	m := &MockCatalog{products: make(map[string]*store.Product)}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *MockCatalog) Get(ctx context.Context, id string) (*store.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockCatalog) List(ctx context.Context) ([]*store.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*store.Product
	for _, p := range m.products {
		if p.Active {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockCatalog) Create(ctx context.Context, p *store.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

// MockSessionStore is an in-memory CheckoutSessionStore.
type MockSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*store.CheckoutSession

	CreateCalls int
	CreateErr   error
}

func NewMockSessionStore() *MockSessionStore {
	return &MockSessionStore{sessions: make(map[string]*store.CheckoutSession)}
}

func (m *MockSessionStore) Create(ctx context.Context, s *store.CheckoutSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	if m.CreateErr != nil {
		return m.CreateErr
	}
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *MockSessionStore) Get(ctx context.Context, id string) (*store.CheckoutSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MockSessionStore) SetStatus(ctx context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return store.ErrNotFound
	}
	s.Status = status
	return nil
}

// MockSubscriptionStore is an in-memory SubscriptionStore.
type MockSubscriptionStore struct {
	mu   sync.Mutex
	subs map[string]*subscription.Subscription

	UpsertCalls int
}

func NewMockSubscriptionStore() *MockSubscriptionStore {
	return &MockSubscriptionStore{subs: make(map[string]*subscription.Subscription)}
}

func (m *MockSubscriptionStore) Upsert(ctx context.Context, s *subscription.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpsertCalls++
	cp := *s
	if existing, ok := m.subs[s.ID]; ok {
		cp.CreatedAt = existing.CreatedAt
	}
	m.subs[s.ID] = &cp
	return nil
}

func (m *MockSubscriptionStore) Cancel(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[id]
	if !ok || s.Status == subscription.StatusCancelled {
		return false, nil
	}
	s.Status = subscription.StatusCancelled
	return true, nil
}

func (m *MockSubscriptionStore) GetByUser(ctx context.Context, userID string) (*subscription.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.subs {
		if s.UserID == userID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

// Get returns a subscription by provider ID, for test assertions.
func (m *MockSubscriptionStore) Get(id string) (*subscription.Subscription, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[id]
	if !ok {
		return nil, false
	}
	cp := *s
	return &cp, true
}

// MockWebhookEventStore is an in-memory WebhookEventStore.
type MockWebhookEventStore struct {
	mu   sync.Mutex
	seen map[string]bool

	ForgetCalls int
	Err         error
	ForgetErr   error
}

func NewMockWebhookEventStore() *MockWebhookEventStore {
	return &MockWebhookEventStore{seen: make(map[string]bool)}
}

func (m *MockWebhookEventStore) MarkProcessed(ctx context.Context, eventID, eventType string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	if m.seen[eventID] {
		return false, nil
	}
	m.seen[eventID] = true
	return true, nil
}

func (m *MockWebhookEventStore) Forget(ctx context.Context, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ForgetCalls++
	if m.ForgetErr != nil {
		return m.ForgetErr
	}
	delete(m.seen, eventID)
	return nil
}

// MockUserStore is an in-memory UserStore.
type MockUserStore struct {
	mu      sync.Mutex
	byID    map[string]*store.User
	byEmail map[string]*store.User
}

func NewMockUserStore() *MockUserStore {
	return &MockUserStore{
		byID:    make(map[string]*store.User),
		byEmail: make(map[string]*store.User),
	}
}

func (m *MockUserStore) Create(ctx context.Context, u *store.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[u.Email]; ok {
		return store.ErrEmailTaken
	}
	cp := *u
	m.byID[u.ID] = &cp
	m.byEmail[u.Email] = &cp
	return nil
}

func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byEmail[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MockUserStore) GetByID(ctx context.Context, id string) (*store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}
