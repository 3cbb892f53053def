// Package payment is the boundary to the hosted payment processor.
package payment

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidSignature is returned when a webhook payload fails verification.
var ErrInvalidSignature = errors.New("payment: invalid webhook signature")

type Customer struct {
	ID    string
	Email string
}

type Subscription struct {
	ID                 string
	CustomerID         string
	Status             string
	UnitAmount         int64 // first item's price, minor units
	Metadata           map[string]string
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
}

// CheckoutRequest describes a monthly subscription checkout for a single item.
type CheckoutRequest struct {
	CustomerID         string // existing customer; CustomerEmail is used when empty
	CustomerEmail      string
	Currency           string
	UnitAmount         int64
	ProductName        string
	ProductDescription string
	SuccessURL         string
	CancelURL          string
	Metadata           map[string]string
}

type CheckoutSession struct {
	ID             string
	URL            string
	Status         string // open | complete | expired
	PaymentStatus  string // paid | unpaid | no_payment_required
	SubscriptionID string
	CustomerID     string
	Metadata       map[string]string
}

// Invoice carries the fields of an invoice event the reconciler needs.
type Invoice struct {
	ID             string
	SubscriptionID string
	CustomerID     string
}

// Event is a verified processor event. Exactly one of Subscription or Invoice is
// set for the event types this package decodes.
type Event struct {
	ID           string
	Type         string
	Created      time.Time
	Payload      []byte
	Subscription *Subscription
	Invoice      *Invoice
}

const (
	EventSubscriptionCreated    = "customer.subscription.created"
	EventSubscriptionUpdated    = "customer.subscription.updated"
	EventSubscriptionDeleted    = "customer.subscription.deleted"
	EventInvoicePaymentSucceeded = "invoice.payment_succeeded"
	EventInvoicePaymentFailed   = "invoice.payment_failed"
)

// Processor is implemented by the Stripe client; tests provide fakes.
type Processor interface {
	// FindCustomerByEmail returns nil, nil when no customer exists.
	FindCustomerByEmail(ctx context.Context, email string) (*Customer, error)
	ListActiveSubscriptions(ctx context.Context, customerID string, limit int64) ([]Subscription, error)
	CreateSubscriptionCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
	// ParseEvent verifies signature over the raw payload and decodes the event.
	ParseEvent(payload []byte, signature string) (*Event, error)
}

// ToMinorUnits converts a major-unit amount to minor units, rounding half away from zero.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
