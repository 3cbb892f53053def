package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"studynest/internal/domain"
	"studynest/internal/models"
	"studynest/internal/repository"
	"studynest/pkg/logger"

	"go.uber.org/zap"
)

var (
	ErrInquiryNotFound    = errors.New("inquiry not found")
	ErrNotParticipant     = errors.New("not part of this inquiry")
	ErrEmptyMessage       = errors.New("message is required")
	ErrInvalidStatus      = errors.New("invalid inquiry status")
	ErrOwnPropertyInquiry = errors.New("cannot send an inquiry about your own property")
	ErrInquiryClosed      = errors.New("inquiry is closed")
)

// Pusher delivers a live frame to a user's open connections.
type Pusher interface {
	BroadcastToUser(userID string, payload interface{}) int
}

type InquiryService struct {
	inquiries  *repository.InquiryRepository
	properties *repository.PropertyRepository
	notifier   *NotificationService
	pusher     Pusher
}

func NewInquiryService(
	inquiries *repository.InquiryRepository,
	properties *repository.PropertyRepository,
	notifier *NotificationService,
	pusher Pusher,
) *InquiryService {
	return &InquiryService{inquiries: inquiries, properties: properties, notifier: notifier, pusher: pusher}
}

// Create opens a thread from studentID about propertyID. The owner is taken from the property.
func (s *InquiryService) Create(ctx context.Context, studentID, propertyID, message string) (*models.Inquiry, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	property, err := s.properties.GetByID(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("load property: %w", err)
	}
	if property == nil {
		return nil, ErrPropertyNotFound
	}
	if property.OwnerID == studentID {
		return nil, ErrOwnPropertyInquiry
	}
	inq := &models.Inquiry{
		PropertyID: property.ID,
		StudentID:  studentID,
		OwnerID:    property.OwnerID,
		Message:    message,
		Status:     domain.InquiryPending,
	}
	msg, err := s.inquiries.Create(ctx, inq)
	if err != nil {
		return nil, fmt.Errorf("create inquiry: %w", err)
	}
	inq.Property = property
	s.notifier.NotifyNewInquiry(ctx, property.OwnerID, inq.ID, property.Title)
	s.push(ctx, property.OwnerID, inq, msg)
	return inq, nil
}

// Get returns the inquiry when userID takes part in it.
func (s *InquiryService) Get(ctx context.Context, userID, inquiryID string) (*models.Inquiry, error) {
	inq, err := s.inquiries.GetByID(ctx, inquiryID)
	if err != nil {
		return nil, fmt.Errorf("load inquiry: %w", err)
	}
	if inq == nil {
		return nil, ErrInquiryNotFound
	}
	if !inq.IsParticipant(userID) {
		return nil, ErrNotParticipant
	}
	return inq, nil
}

// ListForRole returns the threads a student sent or an owner received.
func (s *InquiryService) ListForRole(ctx context.Context, userID, role string, limit, offset int) ([]models.Inquiry, error) {
	if role == domain.RolePropertyOwner {
		return s.inquiries.ListByOwner(ctx, userID, limit, offset)
	}
	return s.inquiries.ListByStudent(ctx, userID, limit, offset)
}

func (s *InquiryService) SetStatus(ctx context.Context, userID, inquiryID, status string) (*models.Inquiry, error) {
	if !domain.IsValidInquiryStatus(status) {
		return nil, ErrInvalidStatus
	}
	inq, err := s.Get(ctx, userID, inquiryID)
	if err != nil {
		return nil, err
	}
	if err := s.inquiries.UpdateStatus(ctx, inq.ID, status); err != nil {
		return nil, fmt.Errorf("update inquiry status: %w", err)
	}
	inq.Status = status
	return inq, nil
}

func (s *InquiryService) Messages(ctx context.Context, userID, inquiryID string, limit, offset int) ([]models.InquiryMessage, error) {
	inq, err := s.Get(ctx, userID, inquiryID)
	if err != nil {
		return nil, err
	}
	return s.inquiries.ListMessages(ctx, inq.ID, limit, offset)
}

// Reply appends a message to the thread. An owner reply marks a pending inquiry responded.
// The other participant is notified and receives the message live.
func (s *InquiryService) Reply(ctx context.Context, userID, inquiryID, message string) (*models.InquiryMessage, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	inq, err := s.Get(ctx, userID, inquiryID)
	if err != nil {
		return nil, err
	}
	if inq.Status == domain.InquiryClosed {
		return nil, ErrInquiryClosed
	}
	msg := &models.InquiryMessage{InquiryID: inq.ID, SenderID: userID, Message: message}
	if err := s.inquiries.AddMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("add inquiry message: %w", err)
	}
	if userID == inq.OwnerID && inq.Status == domain.InquiryPending {
		if err := s.inquiries.UpdateStatus(ctx, inq.ID, domain.InquiryResponded); err != nil {
			logger.FromContext(ctx).Warn("mark inquiry responded", zap.String("inquiry_id", inq.ID), zap.Error(err))
		} else {
			inq.Status = domain.InquiryResponded
		}
	}
	recipient := inq.Counterpart(userID)
	s.notifier.NotifyInquiryMessage(ctx, recipient, inq.ID)
	s.push(ctx, recipient, inq, msg)
	return msg, nil
}

func (s *InquiryService) push(ctx context.Context, userID string, inq *models.Inquiry, msg *models.InquiryMessage) {
	if s.pusher == nil {
		return
	}
	n := s.pusher.BroadcastToUser(userID, map[string]interface{}{
		"type":        "inquiry_message",
		"inquiry_id":  inq.ID,
		"property_id": inq.PropertyID,
		"status":      inq.Status,
		"id":          msg.ID,
		"sender_id":   msg.SenderID,
		"message":     msg.Message,
		"created_at":  msg.CreatedAt,
	})
	logger.FromContext(ctx).Debug("inquiry message pushed", zap.String("user_id", userID), zap.Int("connections", n))
}
