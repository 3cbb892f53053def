package service

import (
	"context"
	"fmt"
	"time"

	"studynest/internal/domain"
	"studynest/internal/models"
	"studynest/internal/repository"
	"studynest/pkg/logger"
	"studynest/pkg/metrics"
	"studynest/pkg/payment"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const webhookProvider = "stripe"

// Outcome describes what the reconciler did with an event.
type Outcome string

const (
	OutcomeApplied Outcome = "applied" // local state written
	OutcomeSkipped Outcome = "skipped" // event concerns no local record, or is stale
	OutcomeIgnored Outcome = "ignored" // event type not handled
	OutcomeFailed  Outcome = "failed"
)

// Reconciler keeps rent_payments and property availability in line with processor
// subscription events. Every branch is safe to repeat: create/update events replace
// the (property, tenant) row and status events update by subscription id. Events
// older than the last one applied to a row are skipped.
type Reconciler struct {
	db         *gorm.DB
	payments   *repository.RentPaymentRepository
	properties *repository.PropertyRepository
	events     *repository.WebhookEventRepository
	notifier   *NotificationService
	metrics    *metrics.Metrics
}

func NewReconciler(
	db *gorm.DB,
	payments *repository.RentPaymentRepository,
	properties *repository.PropertyRepository,
	events *repository.WebhookEventRepository,
	notifier *NotificationService,
	m *metrics.Metrics,
) *Reconciler {
	return &Reconciler{
		db:         db,
		payments:   payments,
		properties: properties,
		events:     events,
		notifier:   notifier,
		metrics:    m,
	}
}

// HandleEvent applies one verified event. A returned error means local state could
// not be written and the processor should redeliver.
func (r *Reconciler) HandleEvent(ctx context.Context, ev *payment.Event) (Outcome, error) {
	log := logger.FromContext(ctx).With(zap.String("event_id", ev.ID), zap.String("event_type", ev.Type))
	ctx = logger.WithContext(ctx, log)

	outcome, err := r.dispatch(ctx, ev)
	if err != nil {
		outcome = OutcomeFailed
		log.Error("webhook event failed", zap.Error(err))
	} else {
		log.Info("webhook event handled", zap.String("outcome", string(outcome)))
	}
	r.metrics.ObserveWebhook(ev.Type, string(outcome))
	r.record(ctx, ev, err)
	return outcome, err
}

func (r *Reconciler) dispatch(ctx context.Context, ev *payment.Event) (Outcome, error) {
	switch ev.Type {
	case payment.EventSubscriptionCreated, payment.EventSubscriptionUpdated:
		return r.upsertSubscription(ctx, ev)
	case payment.EventSubscriptionDeleted:
		return r.cancelSubscription(ctx, ev)
	case payment.EventInvoicePaymentSucceeded:
		return r.setStatusFromInvoice(ctx, ev, domain.RentPaymentActive)
	case payment.EventInvoicePaymentFailed:
		return r.setStatusFromInvoice(ctx, ev, domain.RentPaymentPastDue)
	default:
		return OutcomeIgnored, nil
	}
}

// resolveProperty returns the property named in subscription metadata, or nil when
// the id is absent or unknown. Foreign subscriptions share the processor account.
func (r *Reconciler) resolveProperty(ctx context.Context, props *repository.PropertyRepository, sub *payment.Subscription) (*models.Property, error) {
	id := sub.Metadata[domain.MetadataPropertyID]
	if id == "" {
		return nil, nil
	}
	return props.GetByID(ctx, id)
}

func (r *Reconciler) upsertSubscription(ctx context.Context, ev *payment.Event) (Outcome, error) {
	log := logger.FromContext(ctx)
	sub := ev.Subscription
	if sub == nil {
		log.Warn("subscription event without subscription object")
		return OutcomeSkipped, nil
	}
	propertyID := sub.Metadata[domain.MetadataPropertyID]
	tenantID := sub.Metadata[domain.MetadataTenantID]
	if propertyID == "" || tenantID == "" {
		log.Info("subscription has no property metadata", zap.String("subscription_id", sub.ID))
		return OutcomeSkipped, nil
	}

	var (
		outcome      = OutcomeApplied
		property     *models.Property
		becameActive bool
		eventAt      = ev.Created.UTC()
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payments := r.payments.WithTx(tx)
		props := r.properties.WithTx(tx)

		var err error
		property, err = r.resolveProperty(ctx, props, sub)
		if err != nil {
			return fmt.Errorf("load property: %w", err)
		}
		if property == nil {
			log.Warn("subscription references unknown property", zap.String("property_id", propertyID))
			outcome = OutcomeSkipped
			return nil
		}

		existing, err := payments.LockByPropertyTenant(ctx, propertyID, tenantID)
		if err != nil {
			return fmt.Errorf("load rent payment: %w", err)
		}
		if existing != nil && existing.LastEventAt != nil && eventAt.Before(*existing.LastEventAt) {
			log.Info("stale subscription event",
				zap.Time("event_at", eventAt), zap.Time("last_event_at", *existing.LastEventAt))
			outcome = OutcomeSkipped
			return nil
		}

		rp := &models.RentPayment{
			PropertyID:           propertyID,
			TenantID:             tenantID,
			StripeCustomerID:     sub.CustomerID,
			StripeSubscriptionID: sub.ID,
			MonthlyRent:          sub.UnitAmount,
			Status:               sub.Status, // active passes through; other processor statuses are kept verbatim
			CurrentPeriodStart:   timePtr(sub.CurrentPeriodStart),
			CurrentPeriodEnd:     timePtr(sub.CurrentPeriodEnd),
			LastEventAt:          &eventAt,
			UpdatedAt:            time.Now().UTC(),
		}
		if err := payments.Upsert(ctx, rp); err != nil {
			return fmt.Errorf("upsert rent payment: %w", err)
		}

		if sub.Status == domain.RentPaymentActive {
			if _, err := props.SetStatus(ctx, propertyID, domain.PropertyStatusRented); err != nil {
				return fmt.Errorf("mark property rented: %w", err)
			}
			becameActive = existing == nil || existing.Status != domain.RentPaymentActive
		}
		return nil
	})
	if err != nil {
		return OutcomeFailed, err
	}
	if becameActive {
		r.notifier.NotifyPropertyRented(ctx, property.OwnerID, property.ID, property.Title)
	}
	return outcome, nil
}

func (r *Reconciler) cancelSubscription(ctx context.Context, ev *payment.Event) (Outcome, error) {
	log := logger.FromContext(ctx)
	sub := ev.Subscription
	if sub == nil || sub.ID == "" {
		log.Warn("subscription event without subscription object")
		return OutcomeSkipped, nil
	}

	var (
		rows      int64
		cancelled *models.RentPayment
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payments := r.payments.WithTx(tx)
		props := r.properties.WithTx(tx)

		var err error
		rows, err = payments.UpdateStatusBySubscriptionID(ctx, sub.ID, domain.RentPaymentCancelled, ev.Created.UTC())
		if err != nil {
			return fmt.Errorf("cancel rent payment: %w", err)
		}
		if rows == 0 {
			log.Info("no rent payment updated for deleted subscription", zap.String("subscription_id", sub.ID))
		} else if cancelled, err = payments.GetBySubscriptionID(ctx, sub.ID); err != nil {
			return fmt.Errorf("reload rent payment: %w", err)
		}

		property, err := r.resolveProperty(ctx, props, sub)
		if err != nil {
			return fmt.Errorf("load property: %w", err)
		}
		if property == nil {
			return nil
		}
		if _, err := props.SetStatus(ctx, property.ID, domain.PropertyStatusAvailable); err != nil {
			return fmt.Errorf("mark property available: %w", err)
		}
		return nil
	})
	if err != nil {
		return OutcomeFailed, err
	}
	if rows == 0 {
		return OutcomeSkipped, nil
	}
	if cancelled != nil {
		r.notifier.NotifyRentCancelled(ctx, cancelled.TenantID, cancelled.PropertyID)
	}
	return OutcomeApplied, nil
}

func (r *Reconciler) setStatusFromInvoice(ctx context.Context, ev *payment.Event, status string) (Outcome, error) {
	log := logger.FromContext(ctx)
	inv := ev.Invoice
	if inv == nil || inv.SubscriptionID == "" {
		log.Info("invoice not linked to a subscription")
		return OutcomeSkipped, nil
	}
	rows, err := r.payments.UpdateStatusBySubscriptionID(ctx, inv.SubscriptionID, status, ev.Created.UTC())
	if err != nil {
		return OutcomeFailed, fmt.Errorf("set rent payment %s: %w", status, err)
	}
	if rows == 0 {
		log.Info("no rent payment updated for invoice", zap.String("subscription_id", inv.SubscriptionID))
		return OutcomeSkipped, nil
	}
	if status == domain.RentPaymentPastDue {
		if rp, err := r.payments.GetBySubscriptionID(ctx, inv.SubscriptionID); err == nil && rp != nil {
			r.notifier.NotifyRentPastDue(ctx, rp.TenantID, rp.PropertyID)
		}
	}
	return OutcomeApplied, nil
}

// record stores the event for audit. Failures are logged only.
func (r *Reconciler) record(ctx context.Context, ev *payment.Event, procErr error) {
	if r.events == nil || ev.ID == "" {
		return
	}
	e := &models.WebhookEvent{
		Provider:        webhookProvider,
		ProviderEventID: ev.ID,
		EventType:       ev.Type,
		PayloadJSON:     string(ev.Payload),
	}
	if procErr != nil {
		e.ProcessingError = procErr.Error()
	} else {
		now := time.Now().UTC()
		e.ProcessedAt = &now
	}
	if err := r.events.Record(ctx, e); err != nil {
		logger.FromContext(ctx).Warn("record webhook event failed", zap.Error(err))
	}
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
