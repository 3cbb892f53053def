package repository

import (
	"context"

	"studynest/internal/models"

	"gorm.io/gorm"
)

type InquiryRepository struct {
	db *gorm.DB
}

func NewInquiryRepository(db *gorm.DB) *InquiryRepository {
	return &InquiryRepository{db: db}
}

// Create stores the inquiry together with its opening message.
func (r *InquiryRepository) Create(ctx context.Context, inq *models.Inquiry) (*models.InquiryMessage, error) {
	msg := &models.InquiryMessage{SenderID: inq.StudentID, Message: inq.Message}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(inq).Error; err != nil {
			return err
		}
		msg.InquiryID = inq.ID
		return tx.Create(msg).Error
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (r *InquiryRepository) GetByID(ctx context.Context, id string) (*models.Inquiry, error) {
	var inq models.Inquiry
	if err := r.db.WithContext(ctx).Preload("Property").Where("id = ?", id).First(&inq).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &inq, nil
}

func (r *InquiryRepository) ListByStudent(ctx context.Context, studentID string, limit, offset int) ([]models.Inquiry, error) {
	return r.list(ctx, "student_id = ?", studentID, limit, offset)
}

func (r *InquiryRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]models.Inquiry, error) {
	return r.list(ctx, "owner_id = ?", ownerID, limit, offset)
}

func (r *InquiryRepository) list(ctx context.Context, cond, id string, limit, offset int) ([]models.Inquiry, error) {
	if limit <= 0 {
		limit = 20
	}
	var list []models.Inquiry
	err := r.db.WithContext(ctx).
		Preload("Property").
		Where(cond, id).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}

func (r *InquiryRepository) UpdateStatus(ctx context.Context, id, status string) error {
	return r.db.WithContext(ctx).Model(&models.Inquiry{}).Where("id = ?", id).Update("status", status).Error
}

func (r *InquiryRepository) AddMessage(ctx context.Context, m *models.InquiryMessage) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// ListMessages returns a thread oldest first.
func (r *InquiryRepository) ListMessages(ctx context.Context, inquiryID string, limit, offset int) ([]models.InquiryMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var list []models.InquiryMessage
	err := r.db.WithContext(ctx).
		Where("inquiry_id = ?", inquiryID).
		Order("created_at ASC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}
