package models

import (
	"time"

	"gorm.io/gorm"
)

type Inquiry struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	PropertyID string    `gorm:"size:36;not null;index" json:"property_id"`
	StudentID  string    `gorm:"size:36;not null;index" json:"student_id"`
	OwnerID    string    `gorm:"size:36;not null;index" json:"owner_id"`
	Message    string    `gorm:"type:text;not null" json:"message"`
	Status     string    `gorm:"size:20;not null;default:'pending'" json:"status"` // pending | responded | closed
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Property *Property `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
}

func (Inquiry) TableName() string {
	return "inquiries"
}

func (i *Inquiry) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = newID()
	}
	return nil
}

// IsParticipant reports whether userID is the student or the owner of the thread.
func (i *Inquiry) IsParticipant(userID string) bool {
	return userID != "" && (i.StudentID == userID || i.OwnerID == userID)
}

// Counterpart returns the other participant.
func (i *Inquiry) Counterpart(userID string) string {
	if userID == i.StudentID {
		return i.OwnerID
	}
	return i.StudentID
}

type InquiryMessage struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	InquiryID string    `gorm:"size:36;not null;index" json:"inquiry_id"`
	SenderID  string    `gorm:"size:36;not null" json:"sender_id"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (InquiryMessage) TableName() string {
	return "inquiry_messages"
}

func (m *InquiryMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = newID()
	}
	return nil
}
