package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	stripe "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"
)

// StripeProvider implements Provider against the Stripe hosted checkout API.
type StripeProvider struct {
	client        *client.API
	webhookSecret string
}

func NewStripeProvider(apiKey, webhookSecret string) *StripeProvider {
	sc := &client.API{}
	sc.Init(apiKey, nil)
	return &StripeProvider{client: sc, webhookSecret: webhookSecret}
}

func (p *StripeProvider) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		Params:     stripe.Params{Context: ctx},
		Mode:       stripe.String(string(req.Mode)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	if req.ClientReferenceID != "" {
		params.ClientReferenceID = stripe.String(req.ClientReferenceID)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.CollectShipping {
		params.ShippingAddressCollection = &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice([]string{"US", "CA", "GB", "DE", "FR", "JP"}),
		}
	}
	if req.Mode == ModeSubscription && len(req.Metadata) > 0 {
		// Propagate the correlation metadata onto the subscription object so
		// subscription webhooks can resolve the owning user.
		params.SubscriptionData = &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: req.Metadata,
		}
	}

	for _, li := range req.LineItems {
		priceData := &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency:   stripe.String(li.Currency),
			UnitAmount: stripe.Int64(li.UnitAmount),
			ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
				Name: stripe.String(li.Name),
			},
		}
		if req.Mode == ModeSubscription {
			priceData.Recurring = &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
				Interval: stripe.String("month"),
			}
		}
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: priceData,
			Quantity:  stripe.Int64(li.Quantity),
		})
	}

	sess, err := p.client.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	return &Session{ID: sess.ID, URL: sess.URL}, nil
}

// ParseEvent verifies the payload signature and maps the provider event onto
// the neutral Event type. Unhandled event types come back as EventIgnored.
func (p *StripeProvider) ParseEvent(payload []byte, signature string) (*Event, error) {
	ev, err := webhook.ConstructEvent(payload, signature, p.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &Event{ID: ev.ID, Type: EventIgnored}

	switch string(ev.Type) {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		cs, err := parseCheckoutSession(ev.Data.Raw)
		if err != nil {
			return nil, err
		}
		out.Type = EventCheckoutCompleted
		out.SessionID = cs.ID
		out.Paid = cs.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid ||
			cs.PaymentStatus == stripe.CheckoutSessionPaymentStatusNoPaymentRequired
		out.AmountTotal = cs.AmountTotal
		out.Currency = string(cs.Currency)
		if cs.CustomerDetails != nil {
			out.CustomerEmail = cs.CustomerDetails.Email
		}
		if cs.Subscription != nil {
			out.SubscriptionID = cs.Subscription.ID
		}

	case "checkout.session.expired":
		cs, err := parseCheckoutSession(ev.Data.Raw)
		if err != nil {
			return nil, err
		}
		out.Type = EventCheckoutExpired
		out.SessionID = cs.ID

	case "checkout.session.async_payment_failed":
		cs, err := parseCheckoutSession(ev.Data.Raw)
		if err != nil {
			return nil, err
		}
		out.Type = EventPaymentFailed
		out.SessionID = cs.ID

	case "customer.subscription.created", "customer.subscription.updated", "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(ev.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("parse subscription payload: %w", err)
		}
		if string(ev.Type) == "customer.subscription.deleted" {
			out.Type = EventSubscriptionDeleted
		} else {
			out.Type = EventSubscriptionUpdated
		}
		out.SubscriptionID = sub.ID
		out.Subscription = &SubscriptionInfo{
			ID:                sub.ID,
			Status:            string(sub.Status),
			PriceID:           subscriptionPriceID(&sub),
			CurrentPeriodEnd:  time.Unix(sub.CurrentPeriodEnd, 0),
			ClientReferenceID: sub.Metadata["user_id"],
		}
	}

	return out, nil
}

func parseCheckoutSession(raw json.RawMessage) (*stripe.CheckoutSession, error) {
	var cs stripe.CheckoutSession
	if err := json.Unmarshal(raw, &cs); err != nil {
		return nil, fmt.Errorf("parse checkout session payload: %w", err)
	}
	return &cs, nil
}

func subscriptionPriceID(sub *stripe.Subscription) string {
	if sub.Items == nil || len(sub.Items.Data) == 0 || sub.Items.Data[0].Price == nil {
		return ""
	}
	return sub.Items.Data[0].Price.ID
}
