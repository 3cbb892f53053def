package repository

import (
	"context"

	"studynest/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WebhookEventRepository struct {
	db *gorm.DB
}

func NewWebhookEventRepository(db *gorm.DB) *WebhookEventRepository {
	return &WebhookEventRepository{db: db}
}

// Record stores an event, or refreshes the outcome of a redelivered one.
func (r *WebhookEventRepository) Record(ctx context.Context, e *models.WebhookEvent) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider"}, {Name: "provider_event_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"processed_at", "processing_error", "updated_at"}),
	}).Create(e).Error
}

func (r *WebhookEventRepository) Get(ctx context.Context, provider, eventID string) (*models.WebhookEvent, error) {
	var e models.WebhookEvent
	err := r.db.WithContext(ctx).Where("provider = ? AND provider_event_id = ?", provider, eventID).First(&e).Error
	if err != nil {
		return nil, notFoundAsNil(err)
	}
	return &e, nil
}
