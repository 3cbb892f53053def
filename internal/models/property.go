package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Property struct {
	ID            string                      `gorm:"primaryKey;size:36" json:"id"`
	OwnerID       string                      `gorm:"size:36;not null;index" json:"owner_id"`
	Title         string                      `gorm:"size:255;not null" json:"title"`
	Description   string                      `gorm:"type:text" json:"description"`
	Rent          decimal.Decimal             `gorm:"type:decimal(10,2);not null" json:"rent"` // major units, monthly
	Location      string                      `gorm:"size:255;not null;index" json:"location"`
	Bedrooms      int                         `gorm:"not null;default:1" json:"bedrooms"`
	Bathrooms     int                         `gorm:"not null;default:1" json:"bathrooms"`
	PropertyType  string                      `gorm:"size:20;not null" json:"property_type"`
	Status        string                      `gorm:"size:20;not null;default:'available';index" json:"status"`
	Amenities     datatypes.JSONSlice[string] `json:"amenities"`
	AvailableFrom *time.Time                  `json:"available_from"`
	Images        datatypes.JSONSlice[string] `json:"images"`
	CreatedAt     time.Time                   `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`
}

func (Property) TableName() string {
	return "properties"
}

func (p *Property) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = newID()
	}
	return nil
}
