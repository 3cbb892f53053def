package models

import (
	"time"

	"gorm.io/gorm"
)

// RentPayment mirrors one processor subscription for a (property, tenant) pair.
// Rows are written only by the subscription reconciler.
type RentPayment struct {
	ID                   string     `gorm:"primaryKey;size:36" json:"id"`
	PropertyID           string     `gorm:"size:36;not null;uniqueIndex:idx_rent_payments_property_tenant,priority:1" json:"property_id"`
	TenantID             string     `gorm:"size:36;not null;uniqueIndex:idx_rent_payments_property_tenant,priority:2;index" json:"tenant_id"`
	StripeCustomerID     string     `gorm:"size:255" json:"stripe_customer_id"`
	StripeSubscriptionID string     `gorm:"size:255;index" json:"stripe_subscription_id"`
	MonthlyRent          int64      `gorm:"not null" json:"monthly_rent"` // minor units
	Status               string     `gorm:"size:32;not null;index" json:"status"`
	CurrentPeriodStart   *time.Time `json:"current_period_start"`
	CurrentPeriodEnd     *time.Time `json:"current_period_end"`
	LastEventAt          *time.Time `json:"-"` // creation time of the last processor event applied
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`

	Property *Property `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
}

func (RentPayment) TableName() string {
	return "rent_payments"
}

func (r *RentPayment) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = newID()
	}
	return nil
}
