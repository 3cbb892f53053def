package models

import "time"

// Profile is the application-side record of an identity user. ID equals the
// identity provider's user id.
type Profile struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	FullName  string    `gorm:"size:255" json:"full_name"`
	Phone     string    `gorm:"size:32" json:"phone"`
	Role      string    `gorm:"size:20;not null;index" json:"role"` // student | property_owner
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}
