package service

import (
	"context"
	"encoding/json"

	"studynest/internal/domain"
	"studynest/internal/models"
	"studynest/internal/repository"
	"studynest/pkg/logger"

	"go.uber.org/zap"
)

type NotificationService struct {
	repo *repository.NotificationRepository
}

func NewNotificationService(repo *repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

func (s *NotificationService) Notify(ctx context.Context, userID, notifType, title, body string, data map[string]interface{}) error {
	var dataJSON string
	if data != nil {
		b, _ := json.Marshal(data)
		dataJSON = string(b)
	}
	return s.repo.Create(ctx, &models.Notification{
		UserID: userID,
		Type:   notifType,
		Title:  title,
		Body:   body,
		Data:   dataJSON,
	})
}

// notifyBestEffort logs instead of failing the caller; notifications never block payment state.
func (s *NotificationService) notifyBestEffort(ctx context.Context, userID, notifType, title, body string, data map[string]interface{}) {
	if s == nil || userID == "" {
		return
	}
	if err := s.Notify(ctx, userID, notifType, title, body, data); err != nil {
		logger.FromContext(ctx).Warn("notification failed",
			zap.String("user_id", userID), zap.String("type", notifType), zap.Error(err))
	}
}

func (s *NotificationService) NotifyPropertyRented(ctx context.Context, ownerID, propertyID, title string) {
	s.notifyBestEffort(ctx, ownerID, domain.NotifPropertyRented, "Property rented",
		title+" now has an active rent subscription", map[string]interface{}{"property_id": propertyID})
}

func (s *NotificationService) NotifyRentPastDue(ctx context.Context, tenantID, propertyID string) {
	s.notifyBestEffort(ctx, tenantID, domain.NotifRentPastDue, "Rent payment failed",
		"Your latest rent payment failed. Update your payment method to keep your subscription.",
		map[string]interface{}{"property_id": propertyID})
}

func (s *NotificationService) NotifyRentCancelled(ctx context.Context, tenantID, propertyID string) {
	s.notifyBestEffort(ctx, tenantID, domain.NotifRentCancelled, "Rent subscription cancelled",
		"Your monthly rent subscription has been cancelled.", map[string]interface{}{"property_id": propertyID})
}

func (s *NotificationService) NotifyNewInquiry(ctx context.Context, ownerID, inquiryID, propertyTitle string) {
	s.notifyBestEffort(ctx, ownerID, domain.NotifNewInquiry, "New inquiry",
		"A student sent an inquiry about "+propertyTitle, map[string]interface{}{"inquiry_id": inquiryID})
}

func (s *NotificationService) NotifyInquiryMessage(ctx context.Context, recipientID, inquiryID string) {
	s.notifyBestEffort(ctx, recipientID, domain.NotifInquiryMessage, "New message",
		"You have a new message in an inquiry", map[string]interface{}{"inquiry_id": inquiryID})
}
