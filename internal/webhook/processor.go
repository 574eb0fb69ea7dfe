package webhook

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/domain/subscription"
	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/example/storefront/internal/payment"
)

// EventPublisher publishes order status-change events. The Kafka producer
// satisfies it; publishing is best-effort relative to the ledger write.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// Processor reconciles verified payment-provider events against the order
// ledger. It is safe under at-least-once, out-of-order, duplicate delivery:
// event IDs are deduplicated up front (the claim is released again when
// processing fails, so provider retries get through), and the ledger's
// per-session upsert collapses semantic replays.
type Processor struct {
	ledger    store.OrderLedger
	sessions  store.CheckoutSessionStore
	subs      store.SubscriptionStore
	seen      store.WebhookEventStore
	publisher EventPublisher
}

func NewProcessor(
	ledger store.OrderLedger,
	sessions store.CheckoutSessionStore,
	subs store.SubscriptionStore,
	seen store.WebhookEventStore,
	publisher EventPublisher,
) *Processor {
	return &Processor{
		ledger:    ledger,
		sessions:  sessions,
		subs:      subs,
		seen:      seen,
		publisher: publisher,
	}
}

// Process applies one verified event. A nil return means the provider should
// receive a 200, including for idempotent no-ops; an error means genuine
// processing failure and asks the provider to retry.
func (p *Processor) Process(ctx context.Context, ev *payment.Event) error {
	if ev.Type == payment.EventIgnored {
		return nil
	}

	first, err := p.seen.MarkProcessed(ctx, ev.ID, string(ev.Type))
	if err != nil {
		return fmt.Errorf("record webhook event: %w", err)
	}
	if !first {
		log.Printf("[Webhook] Duplicate delivery of event %s, skipping", ev.ID)
		return nil
	}

	if err := p.dispatch(ctx, ev); err != nil {
		// Release the dedup claim so the provider's retry of this delivery
		// is processed rather than skipped; the ledger's per-session upsert
		// keeps the redelivery safe.
		if ferr := p.seen.Forget(ctx, ev.ID); ferr != nil {
			log.Printf("[Webhook] Failed to release event %s for retry: %v", ev.ID, ferr)
		}
		return err
	}
	return nil
}

func (p *Processor) dispatch(ctx context.Context, ev *payment.Event) error {
	switch ev.Type {
	case payment.EventCheckoutCompleted:
		return p.handleCheckoutCompleted(ctx, ev)
	case payment.EventCheckoutExpired:
		return p.handleCheckoutExpired(ctx, ev)
	case payment.EventPaymentFailed:
		return p.handlePaymentFailed(ctx, ev)
	case payment.EventSubscriptionUpdated:
		return p.handleSubscriptionUpdated(ctx, ev)
	case payment.EventSubscriptionDeleted:
		return p.handleSubscriptionDeleted(ctx, ev)
	default:
		log.Printf("[Webhook] Unhandled event type %s (event %s)", ev.Type, ev.ID)
		return nil
	}
}

func (p *Processor) handleCheckoutCompleted(ctx context.Context, ev *payment.Event) error {
	if !ev.Paid {
		// Async payment methods complete the session before the charge
		// settles; a later async_payment_succeeded event finishes the job.
		log.Printf("[Webhook] Session %s completed but not yet paid", ev.SessionID)
		return nil
	}

	seed := p.seedFromSession(ctx, ev)
	o, prev, changed, err := p.ledger.MarkPaid(ctx, ev.SessionID, seed)
	if errors.Is(err, store.ErrNotFound) {
		// Neither an order stub nor a session snapshot exists; nothing to
		// reconcile against, so drop rather than fabricate an order.
		log.Printf("[Webhook] Paid event %s for unknown session %s, dropping", ev.ID, ev.SessionID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("mark session %s paid: %w", ev.SessionID, err)
	}

	if err := p.sessions.SetStatus(ctx, ev.SessionID, store.SessionCompleted); err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Printf("[Webhook] Failed to mark session %s completed: %v", ev.SessionID, err)
	}

	if changed {
		p.publishStatusChange(ctx, o, prev, order.StatusPaid)
	} else {
		log.Printf("[Webhook] Session %s already reconciled (status %s), no-op", ev.SessionID, o.Status)
	}
	return nil
}

func (p *Processor) handleCheckoutExpired(ctx context.Context, ev *payment.Event) error {
	if err := p.sessions.SetStatus(ctx, ev.SessionID, store.SessionExpired); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("mark session %s expired: %w", ev.SessionID, err)
	}

	// An abandoned session cancels its still-pending stub; anything further
	// along is left alone.
	o, err := p.ledger.GetBySessionID(ctx, ev.SessionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if o.Status != order.StatusPending {
		return nil
	}

	updated, prev, err := p.ledger.UpdateStatus(ctx, o.ID, order.StatusCancelled)
	if errors.Is(err, order.ErrInvalidTransition) {
		return nil // raced with a paid event; the payment wins
	}
	if err != nil {
		return err
	}
	p.publishStatusChange(ctx, updated, prev, order.StatusCancelled)
	return nil
}

func (p *Processor) handlePaymentFailed(ctx context.Context, ev *payment.Event) error {
	o, prev, changed, err := p.ledger.MarkFailed(ctx, ev.SessionID)
	if err != nil {
		return fmt.Errorf("mark session %s failed: %w", ev.SessionID, err)
	}
	if o == nil {
		// No order is fabricated for a failure.
		log.Printf("[Webhook] Failure event %s for unknown session %s, dropping", ev.ID, ev.SessionID)
		return nil
	}
	if changed {
		p.publishStatusChange(ctx, o, prev, order.StatusPaymentFailed)
	}
	return nil
}

func (p *Processor) handleSubscriptionUpdated(ctx context.Context, ev *payment.Event) error {
	info := ev.Subscription
	if info == nil {
		return fmt.Errorf("subscription event %s missing subscription payload", ev.ID)
	}
	if info.ClientReferenceID == "" {
		// Ownership comes only from the identity attached at initiation.
		log.Printf("[Webhook] Subscription %s has no owning user reference, dropping", info.ID)
		return nil
	}

	sub := &subscription.Subscription{
		ID:               info.ID,
		UserID:           info.ClientReferenceID,
		Status:           subscription.FromProviderStatus(info.Status),
		PriceID:          info.PriceID,
		CurrentPeriodEnd: info.CurrentPeriodEnd,
	}
	if err := p.subs.Upsert(ctx, sub); err != nil {
		return fmt.Errorf("upsert subscription %s: %w", info.ID, err)
	}
	return nil
}

func (p *Processor) handleSubscriptionDeleted(ctx context.Context, ev *payment.Event) error {
	changed, err := p.subs.Cancel(ctx, ev.SubscriptionID)
	if err != nil {
		return fmt.Errorf("cancel subscription %s: %w", ev.SubscriptionID, err)
	}
	if !changed {
		log.Printf("[Webhook] Subscription %s already cancelled or unknown, no-op", ev.SubscriptionID)
	}
	return nil
}

// seedFromSession builds the order to insert when a paid event arrives before
// any pending stub exists, using the snapshot stored at initiation.
func (p *Processor) seedFromSession(ctx context.Context, ev *payment.Event) *order.Order {
	cs, err := p.sessions.Get(ctx, ev.SessionID)
	if err != nil {
		return nil
	}

	email := cs.CustomerEmail
	if email == "" {
		email = ev.CustomerEmail
	}
	seed, err := order.New(cs.ID, email, cs.Items, cs.Currency)
	if err != nil {
		return nil
	}
	return seed
}

// publishStatusChange emits the status-change event. Notification is a
// best-effort side effect: failures are logged and never unwind the ledger
// transition that triggered them.
func (p *Processor) publishStatusChange(ctx context.Context, o *order.Order, from, to order.Status) {
	if p.publisher == nil || from == to {
		return
	}
	event := order.NewStatusChanged(o, from, to)
	if err := p.publisher.Publish(ctx, o.ID, event); err != nil {
		log.Printf("[Webhook] Failed to publish status change for order %s: %v", o.ID, err)
	}
}
