package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/example/storefront/internal/catalog"
	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/example/storefront/internal/payment"
)

var ErrEmptyCart = errors.New("cart is empty")

// Config is the per-process checkout policy, resolved once at startup.
type Config struct {
	Mode            payment.Mode
	DepositPercent  int // 0 charges the full amount
	SuccessURL      string
	CancelURL       string
	ProviderTimeout time.Duration
}

// Customer is the optional verified identity attached to a checkout.
type Customer struct {
	UserID string
	Email  string
}

type Result struct {
	SessionID   string `json:"session_id"`
	RedirectURL string `json:"redirect_url"`
}

// Service turns a visitor's cart into a provider checkout session plus a
// pending order stub. The monetary total handed to the provider is always
// computed from the server-resolved snapshot.
type Service struct {
	carts    store.CartStore
	resolver *catalog.Resolver
	provider payment.Provider
	sessions store.CheckoutSessionStore
	ledger   store.OrderLedger
	cfg      Config
}

func NewService(
	carts store.CartStore,
	resolver *catalog.Resolver,
	provider payment.Provider,
	sessions store.CheckoutSessionStore,
	ledger store.OrderLedger,
	cfg Config,
) *Service {
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = 10 * time.Second
	}
	return &Service{
		carts:    carts,
		resolver: resolver,
		provider: provider,
		sessions: sessions,
		ledger:   ledger,
		cfg:      cfg,
	}
}

// Initiate validates the cart, resolves an authoritative snapshot, creates
// the provider session, and records the session plus a pending order stub.
// The provider call carries a bounded timeout; on any failure before the
// session exists, no state is persisted.
func (s *Service) Initiate(ctx context.Context, visitorID string, cust Customer) (*Result, error) {
	c, found, err := s.carts.Get(ctx, visitorID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if !found || c.IsEmpty() {
		return nil, ErrEmptyCart
	}

	snap, err := s.resolver.Resolve(ctx, lineInputs(c))
	if err != nil {
		return nil, err
	}
	snap = applyDeposit(snap, s.cfg.DepositPercent)

	req := payment.SessionRequest{
		Mode:            s.cfg.Mode,
		CustomerEmail:   cust.Email,
		SuccessURL:      s.cfg.SuccessURL,
		CancelURL:       s.cfg.CancelURL,
		CollectShipping: snap.RequiresShipping,
	}
	if cust.UserID != "" {
		req.ClientReferenceID = cust.UserID
		req.Metadata = map[string]string{"user_id": cust.UserID}
	}
	for _, item := range snap.Items {
		req.LineItems = append(req.LineItems, payment.LineItem{
			Name:       item.Name,
			UnitAmount: item.UnitPrice,
			Quantity:   int64(item.Quantity),
			Currency:   snap.Currency,
		})
	}

	pctx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	defer cancel()
	sess, err := s.provider.CreateSession(pctx, req)
	if err != nil {
		return nil, err
	}

	items := lineItems(snap)
	now := time.Now()
	record := &store.CheckoutSession{
		ID:            sess.ID,
		VisitorID:     visitorID,
		CustomerEmail: cust.Email,
		Items:         items,
		Total:         snap.Total,
		Currency:      snap.Currency,
		Status:        store.SessionInitiated,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.sessions.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("record checkout session: %w", err)
	}

	stub, err := order.New(sess.ID, cust.Email, items, snap.Currency)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.CreatePending(ctx, stub); err != nil && !errors.Is(err, store.ErrDuplicateSession) {
		return nil, fmt.Errorf("record pending order: %w", err)
	}

	log.Printf("[Checkout] Session %s initiated for visitor %s: %d %s", sess.ID, visitorID, snap.Total, snap.Currency)
	return &Result{SessionID: sess.ID, RedirectURL: sess.URL}, nil
}

// Confirm reports the order state for a session and clears the visitor's cart
// once a successful payment has been observed. The cart is never cleared
// before that point, so a failed or abandoned payment keeps the user's intent.
// Only the visitor that initiated the session may confirm it; anyone else
// gets store.ErrNotFound, same as an unknown session.
func (s *Service) Confirm(ctx context.Context, visitorID, sessionID string) (*order.Order, bool, error) {
	cs, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	if cs.VisitorID != visitorID {
		return nil, false, store.ErrNotFound
	}

	o, err := s.ledger.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	if !o.Status.IsPaidOrLater() {
		return o, false, nil
	}

	if c, found, err := s.carts.Get(ctx, visitorID); err != nil {
		log.Printf("[Checkout] Failed to load cart for clearing (visitor %s): %v", visitorID, err)
	} else if found && !c.IsEmpty() {
		c.Clear()
		if err := s.carts.Save(ctx, c); err != nil {
			log.Printf("[Checkout] Failed to clear cart for visitor %s: %v", visitorID, err)
		}
	}
	return o, true, nil
}

func lineInputs(c *cart.Cart) []catalog.LineInput {
	inputs := make([]catalog.LineInput, len(c.Items))
	for i, item := range c.Items {
		inputs[i] = catalog.LineInput{ProductID: item.ProductID, Quantity: item.Quantity}
	}
	return inputs
}

func lineItems(snap *catalog.Snapshot) []order.LineItem {
	items := make([]order.LineItem, len(snap.Items))
	for i, it := range snap.Items {
		items[i] = order.LineItem{
			ProductID:   it.ProductID,
			ProductName: it.Name,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			LineTotal:   it.LineTotal,
		}
	}
	return items
}

// applyDeposit scales each line's unit price to the deposit percentage so the
// charged total still equals the sum of line totals.
func applyDeposit(snap *catalog.Snapshot, percent int) *catalog.Snapshot {
	if percent <= 0 || percent >= 100 {
		return snap
	}
	snap.Total = 0
	for i := range snap.Items {
		item := &snap.Items[i]
		item.UnitPrice = item.UnitPrice * int64(percent) / 100
		item.LineTotal = item.UnitPrice * int64(item.Quantity)
		snap.Total += item.LineTotal
	}
	return snap
}
