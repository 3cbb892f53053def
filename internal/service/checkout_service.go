package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"studynest/internal/auth"
	"studynest/internal/domain"
	"studynest/internal/repository"
	"studynest/pkg/logger"
	"studynest/pkg/payment"

	"go.uber.org/zap"
)

var (
	ErrPropertyIDRequired = errors.New("Property ID is required")
	ErrAuthHeaderRequired = errors.New("Authorization header is required")
	ErrAuthFailed         = errors.New("User authentication failed")
	ErrPropertyNotFound   = errors.New("Property not found")
	ErrAlreadySubscribed  = errors.New("You already have an active subscription for this property. " +
		"Use 'Manage Subscription' to modify your existing subscription.")
	ErrDuplicateSubscriptionAmount = errors.New("You already have an active subscription with the same rent amount. " +
		"Please cancel your existing subscription before creating a new one.")
	ErrNoCustomer      = errors.New("no billing account found for this user")
	ErrSessionNotOwned = errors.New("checkout session does not belong to this user")
)

// maxActiveSubscriptionsChecked bounds the processor-side duplicate scan.
const maxActiveSubscriptionsChecked = 10

// Authenticator resolves a bearer token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.User, error)
}

type CheckoutService struct {
	properties *repository.PropertyRepository
	payments   *repository.RentPaymentRepository
	processor  payment.Processor
	identity   Authenticator
	currency   string
}

func NewCheckoutService(
	properties *repository.PropertyRepository,
	payments *repository.RentPaymentRepository,
	processor payment.Processor,
	identity Authenticator,
	currency string,
) *CheckoutService {
	return &CheckoutService{
		properties: properties,
		payments:   payments,
		processor:  processor,
		identity:   identity,
		currency:   currency,
	}
}

type CheckoutInput struct {
	PropertyID string
	Token      string // raw bearer token; empty when the header was missing
	Origin     string // redirect base for success and cancel pages
}

// CreateRentCheckout opens a hosted monthly-subscription checkout for the caller
// and returns its redirect URL. It refuses when the caller already pays rent for
// the property, checked both locally and at the processor.
func (s *CheckoutService) CreateRentCheckout(ctx context.Context, in CheckoutInput) (string, error) {
	log := logger.FromContext(ctx)

	if in.PropertyID == "" {
		return "", ErrPropertyIDRequired
	}
	if in.Token == "" {
		return "", ErrAuthHeaderRequired
	}
	user, err := s.identity.Authenticate(ctx, in.Token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}

	property, err := s.properties.GetByID(ctx, in.PropertyID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPropertyNotFound, err)
	}
	if property == nil {
		return "", fmt.Errorf("%w: Property does not exist", ErrPropertyNotFound)
	}

	existing, err := s.payments.GetActive(ctx, property.ID, user.ID)
	if err != nil {
		return "", fmt.Errorf("check existing rent payment: %w", err)
	}
	if existing != nil {
		log.Info("checkout refused: active rent payment exists",
			zap.String("property_id", property.ID), zap.String("rent_payment_id", existing.ID))
		return "", ErrAlreadySubscribed
	}

	unitAmount := payment.ToMinorUnits(property.Rent)

	customer, err := s.processor.FindCustomerByEmail(ctx, user.Email)
	if err != nil {
		return "", err
	}
	var customerID string
	if customer != nil {
		customerID = customer.ID
		subs, err := s.processor.ListActiveSubscriptions(ctx, customerID, maxActiveSubscriptionsChecked)
		if err != nil {
			return "", err
		}
		for _, sub := range subs {
			if sub.UnitAmount == unitAmount {
				log.Info("checkout refused: processor subscription with same amount",
					zap.String("subscription_id", sub.ID), zap.Int64("unit_amount", unitAmount))
				return "", ErrDuplicateSubscriptionAmount
			}
		}
	}

	origin := strings.TrimRight(in.Origin, "/")
	session, err := s.processor.CreateSubscriptionCheckout(ctx, payment.CheckoutRequest{
		CustomerID:         customerID,
		CustomerEmail:      user.Email,
		Currency:           s.currency,
		UnitAmount:         unitAmount,
		ProductName:        "Monthly Rent - " + property.Title,
		ProductDescription: "Monthly rent payment for " + property.Location,
		SuccessURL:         origin + "/rent-payment-success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:          origin + "/",
		Metadata: map[string]string{
			domain.MetadataPropertyID: property.ID,
			domain.MetadataTenantID:   user.ID,
		},
	})
	if err != nil {
		return "", err
	}
	log.Info("checkout session created",
		zap.String("session_id", session.ID), zap.String("property_id", property.ID), zap.String("tenant_id", user.ID))
	return session.URL, nil
}

// PortalURL opens a billing portal session where the caller manages existing subscriptions.
func (s *CheckoutService) PortalURL(ctx context.Context, user *auth.User, returnURL string) (string, error) {
	customer, err := s.processor.FindCustomerByEmail(ctx, user.Email)
	if err != nil {
		return "", err
	}
	if customer == nil {
		return "", ErrNoCustomer
	}
	return s.processor.CreatePortalSession(ctx, customer.ID, returnURL)
}

type CheckoutVerification struct {
	Success        bool   `json:"success"`
	Status         string `json:"status"`
	PaymentStatus  string `json:"paymentStatus"`
	SubscriptionID string `json:"subscriptionId,omitempty"`
	PropertyID     string `json:"propertyId,omitempty"`
}

// VerifyCheckout reports whether the caller's checkout session completed. It only
// reads processor state; local records still change through webhook events.
func (s *CheckoutService) VerifyCheckout(ctx context.Context, user *auth.User, sessionID string) (*CheckoutVerification, error) {
	session, err := s.processor.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Metadata[domain.MetadataTenantID] != user.ID {
		return nil, ErrSessionNotOwned
	}
	return &CheckoutVerification{
		Success:        session.Status == "complete" && session.PaymentStatus == "paid",
		Status:         session.Status,
		PaymentStatus:  session.PaymentStatus,
		SubscriptionID: session.SubscriptionID,
		PropertyID:     session.Metadata[domain.MetadataPropertyID],
	}, nil
}
