package repository

import (
	"context"
	"time"

	"studynest/internal/domain"
	"studynest/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RentPaymentRepository struct {
	db *gorm.DB
}

func NewRentPaymentRepository(db *gorm.DB) *RentPaymentRepository {
	return &RentPaymentRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *RentPaymentRepository) WithTx(tx *gorm.DB) *RentPaymentRepository {
	return &RentPaymentRepository{db: tx}
}

// GetActive returns the active subscription record for (property, tenant), or nil.
func (r *RentPaymentRepository) GetActive(ctx context.Context, propertyID, tenantID string) (*models.RentPayment, error) {
	var p models.RentPayment
	err := r.db.WithContext(ctx).
		Where("property_id = ? AND tenant_id = ? AND status = ?", propertyID, tenantID, domain.RentPaymentActive).
		First(&p).Error
	if err != nil {
		return nil, notFoundAsNil(err)
	}
	return &p, nil
}

// HasActiveForProperty reports whether any tenant holds an active subscription for the property.
func (r *RentPaymentRepository) HasActiveForProperty(ctx context.Context, propertyID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.RentPayment{}).
		Where("property_id = ? AND status = ?", propertyID, domain.RentPaymentActive).
		Count(&n).Error
	return n > 0, err
}

// LockByPropertyTenant reads the (property, tenant) row with a row lock, or nil.
// Must run inside a transaction to hold the lock. SQLite has no row locks and
// serialises writers instead.
func (r *RentPaymentRepository) LockByPropertyTenant(ctx context.Context, propertyID, tenantID string) (*models.RentPayment, error) {
	var p models.RentPayment
	q := r.db.WithContext(ctx)
	if q.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := q.Where("property_id = ? AND tenant_id = ?", propertyID, tenantID).First(&p).Error
	if err != nil {
		return nil, notFoundAsNil(err)
	}
	return &p, nil
}

func (r *RentPaymentRepository) GetByPropertyTenant(ctx context.Context, propertyID, tenantID string) (*models.RentPayment, error) {
	var p models.RentPayment
	err := r.db.WithContext(ctx).Where("property_id = ? AND tenant_id = ?", propertyID, tenantID).First(&p).Error
	if err != nil {
		return nil, notFoundAsNil(err)
	}
	return &p, nil
}

func (r *RentPaymentRepository) GetBySubscriptionID(ctx context.Context, subscriptionID string) (*models.RentPayment, error) {
	var p models.RentPayment
	err := r.db.WithContext(ctx).Where("stripe_subscription_id = ?", subscriptionID).First(&p).Error
	if err != nil {
		return nil, notFoundAsNil(err)
	}
	return &p, nil
}

// Upsert inserts p or, when a row for (property, tenant) exists, replaces its
// subscription fields. The row id of an existing record is kept.
func (r *RentPaymentRepository) Upsert(ctx context.Context, p *models.RentPayment) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "property_id"}, {Name: "tenant_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"stripe_customer_id",
			"stripe_subscription_id",
			"monthly_rent",
			"status",
			"current_period_start",
			"current_period_end",
			"last_event_at",
			"updated_at",
		}),
	}).Create(p).Error
}

// UpdateStatusBySubscriptionID sets status on the row for subscriptionID unless that
// row already reflects a newer event. Returns the number of rows changed.
func (r *RentPaymentRepository) UpdateStatusBySubscriptionID(ctx context.Context, subscriptionID, status string, eventAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.RentPayment{}).
		Where("stripe_subscription_id = ?", subscriptionID).
		Where("last_event_at IS NULL OR last_event_at <= ?", eventAt).
		Updates(map[string]interface{}{
			"status":        status,
			"last_event_at": eventAt,
			"updated_at":    time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

// ListByTenant returns the tenant's payment records with their property, newest first.
func (r *RentPaymentRepository) ListByTenant(ctx context.Context, tenantID string) ([]models.RentPayment, error) {
	var list []models.RentPayment
	err := r.db.WithContext(ctx).
		Preload("Property").
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}
