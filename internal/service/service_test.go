package service

import (
	"context"
	"testing"
	"time"

	"studynest/config"
	"studynest/internal/auth"
	"studynest/internal/domain"
	"studynest/internal/models"
	"studynest/internal/repository"
	"studynest/internal/testutil"
	"studynest/pkg/payment/paymenttest"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var jwtCfg = &config.JWTConfig{Secret: "test-secret", Audience: "authenticated"}

type fixture struct {
	db         *gorm.DB
	properties *repository.PropertyRepository
	payments   *repository.RentPaymentRepository
	events     *repository.WebhookEventRepository
	notifs     *repository.NotificationRepository
	processor  *paymenttest.Processor
	checkout   *CheckoutService
	reconciler *Reconciler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	f := &fixture{
		db:         db,
		properties: repository.NewPropertyRepository(db),
		payments:   repository.NewRentPaymentRepository(db),
		events:     repository.NewWebhookEventRepository(db),
		notifs:     repository.NewNotificationRepository(db),
		processor:  paymenttest.New(),
	}
	notifier := NewNotificationService(f.notifs)
	f.checkout = NewCheckoutService(f.properties, f.payments, f.processor, auth.NewVerifier(jwtCfg), "gbp")
	f.reconciler = NewReconciler(db, f.payments, f.properties, f.events, notifier, nil)
	return f
}

func (f *fixture) createProperty(t *testing.T, ownerID, rent string) *models.Property {
	t.Helper()
	p := &models.Property{
		OwnerID:      ownerID,
		Title:        "Room near campus",
		Rent:         decimal.RequireFromString(rent),
		Location:     "Leeds",
		Bedrooms:     1,
		Bathrooms:    1,
		PropertyType: "studio",
		Status:       domain.PropertyStatusAvailable,
	}
	require.NoError(t, f.properties.Create(context.Background(), p))
	return p
}

func token(t *testing.T, userID, email string) string {
	t.Helper()
	tok, err := auth.SignToken(jwtCfg, userID, email, time.Hour)
	require.NoError(t, err)
	return tok
}
