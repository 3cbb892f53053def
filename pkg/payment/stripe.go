package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeProcessor implements Processor with a per-instance Stripe API client.
type StripeProcessor struct {
	api           *client.API
	webhookSecret string
	tolerance     time.Duration
}

// NewStripeProcessor builds a processor for secretKey. backends may be nil to use
// Stripe's default HTTP backends.
func NewStripeProcessor(secretKey, webhookSecret string, backends *stripe.Backends) *StripeProcessor {
	return &StripeProcessor{
		api:           client.New(secretKey, backends),
		webhookSecret: webhookSecret,
		tolerance:     webhook.DefaultTolerance,
	}
}

func (p *StripeProcessor) FindCustomerByEmail(ctx context.Context, email string) (*Customer, error) {
	params := &stripe.CustomerListParams{Email: stripe.String(email)}
	params.Context = ctx
	params.Limit = stripe.Int64(1)
	params.Single = true

	it := p.api.Customers.List(params)
	if it.Next() {
		c := it.Customer()
		return &Customer{ID: c.ID, Email: c.Email}, nil
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("payment: list customers: %w", err)
	}
	return nil, nil
}

func (p *StripeProcessor) ListActiveSubscriptions(ctx context.Context, customerID string, limit int64) ([]Subscription, error) {
	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String(string(stripe.SubscriptionStatusActive)),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(limit)
	params.Single = true

	var out []Subscription
	it := p.api.Subscriptions.List(params)
	for it.Next() {
		out = append(out, fromStripeSubscription(it.Subscription(), nil))
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("payment: list subscriptions: %w", err)
	}
	return out, nil
}

func (p *StripeProcessor) CreateSubscriptionCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(req.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(req.ProductName),
						Description: stripe.String(req.ProductDescription),
					},
					UnitAmount: stripe.Int64(req.UnitAmount),
					Recurring: &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
						Interval: stripe.String(string(stripe.PriceRecurringIntervalMonth)),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		// Session metadata is not copied to the subscription, and subscription
		// events are what the reconciler reads.
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: req.Metadata,
		},
	}
	if req.CustomerID != "" {
		params.Customer = stripe.String(req.CustomerID)
	} else {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	s, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("payment: create checkout session: %w", err)
	}
	return fromStripeSession(s), nil
}

func (p *StripeProcessor) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	s, err := p.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("payment: get checkout session: %w", err)
	}
	return fromStripeSession(s), nil
}

func (p *StripeProcessor) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx
	s, err := p.api.BillingPortalSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("payment: create portal session: %w", err)
	}
	return s.URL, nil
}

// ParseEvent verifies the Stripe-Signature header and decodes subscription and
// invoice payloads. The account's API version may differ from the library's.
func (p *StripeProcessor) ParseEvent(payload []byte, signature string) (*Event, error) {
	if signature == "" {
		return nil, ErrInvalidSignature
	}
	ev, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret, webhook.ConstructEventOptions{
		Tolerance:                p.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		if isSignatureError(err) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
		return nil, fmt.Errorf("payment: decode event: %w", err)
	}
	return decodeEvent(ev, payload)
}

func isSignatureError(err error) bool {
	return errors.Is(err, webhook.ErrInvalidHeader) ||
		errors.Is(err, webhook.ErrNoValidSignature) ||
		errors.Is(err, webhook.ErrNotSigned) ||
		errors.Is(err, webhook.ErrTooOld)
}

func decodeEvent(ev stripe.Event, payload []byte) (*Event, error) {
	out := &Event{
		ID:      ev.ID,
		Type:    string(ev.Type),
		Created: time.Unix(ev.Created, 0).UTC(),
		Payload: payload,
	}
	if ev.Data == nil {
		return out, nil
	}
	switch out.Type {
	case EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(ev.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("payment: decode subscription: %w", err)
		}
		var legacy legacySubscriptionFields
		_ = json.Unmarshal(ev.Data.Raw, &legacy)
		s := fromStripeSubscription(&sub, &legacy)
		out.Subscription = &s
	case EventInvoicePaymentSucceeded, EventInvoicePaymentFailed:
		inv, err := decodeInvoice(ev.Data.Raw)
		if err != nil {
			return nil, err
		}
		out.Invoice = inv
	}
	return out, nil
}

// legacySubscriptionFields holds the billing period as sent by API versions that
// predate per-item periods.
type legacySubscriptionFields struct {
	CurrentPeriodStart int64 `json:"current_period_start"`
	CurrentPeriodEnd   int64 `json:"current_period_end"`
}

// invoiceRefs reads the subscription id from either invoice shape: the current
// parent.subscription_details.subscription or the legacy top-level subscription.
type invoiceRefs struct {
	ID           string          `json:"id"`
	Customer     json.RawMessage `json:"customer"`
	Subscription json.RawMessage `json:"subscription"`
	Parent       *struct {
		SubscriptionDetails *struct {
			Subscription json.RawMessage `json:"subscription"`
		} `json:"subscription_details"`
	} `json:"parent"`
}

func decodeInvoice(raw []byte) (*Invoice, error) {
	var refs invoiceRefs
	if err := json.Unmarshal(raw, &refs); err != nil {
		return nil, fmt.Errorf("payment: decode invoice: %w", err)
	}
	inv := &Invoice{
		ID:         refs.ID,
		CustomerID: expandableID(refs.Customer),
	}
	if refs.Parent != nil && refs.Parent.SubscriptionDetails != nil {
		inv.SubscriptionID = expandableID(refs.Parent.SubscriptionDetails.Subscription)
	}
	if inv.SubscriptionID == "" {
		inv.SubscriptionID = expandableID(refs.Subscription)
	}
	return inv, nil
}

// expandableID returns the id of a field that is either an id string or an expanded object.
func expandableID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return id
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.ID
	}
	return ""
}

func fromStripeSubscription(sub *stripe.Subscription, legacy *legacySubscriptionFields) Subscription {
	s := Subscription{
		ID:       sub.ID,
		Status:   string(sub.Status),
		Metadata: sub.Metadata,
	}
	if sub.Customer != nil {
		s.CustomerID = sub.Customer.ID
	}
	var start, end int64
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		item := sub.Items.Data[0]
		if item.Price != nil {
			s.UnitAmount = item.Price.UnitAmount
		}
		start, end = item.CurrentPeriodStart, item.CurrentPeriodEnd
	}
	if start == 0 && legacy != nil {
		start, end = legacy.CurrentPeriodStart, legacy.CurrentPeriodEnd
	}
	if start > 0 {
		s.CurrentPeriodStart = time.Unix(start, 0).UTC()
	}
	if end > 0 {
		s.CurrentPeriodEnd = time.Unix(end, 0).UTC()
	}
	return s
}

func fromStripeSession(s *stripe.CheckoutSession) *CheckoutSession {
	out := &CheckoutSession{
		ID:            s.ID,
		URL:           s.URL,
		Status:        string(s.Status),
		PaymentStatus: string(s.PaymentStatus),
		Metadata:      s.Metadata,
	}
	if s.Subscription != nil {
		out.SubscriptionID = s.Subscription.ID
	}
	if s.Customer != nil {
		out.CustomerID = s.Customer.ID
	}
	return out
}
