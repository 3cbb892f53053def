package repository

import (
	"context"

	"studynest/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PropertyFilters narrows a property search. Zero values disable a filter.
type PropertyFilters struct {
	Query        string // substring of title or location
	Location     string
	MinRent      *decimal.Decimal
	MaxRent      *decimal.Decimal
	MinBedrooms  int
	PropertyType string
	Status       string
	OwnerID      string
	Limit        int
	Offset       int
}

type PropertyRepository struct {
	db *gorm.DB
}

func NewPropertyRepository(db *gorm.DB) *PropertyRepository {
	return &PropertyRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *PropertyRepository) WithTx(tx *gorm.DB) *PropertyRepository {
	return &PropertyRepository{db: tx}
}

func (r *PropertyRepository) Create(ctx context.Context, p *models.Property) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// GetByID returns nil, nil when the property does not exist.
func (r *PropertyRepository) GetByID(ctx context.Context, id string) (*models.Property, error) {
	var p models.Property
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &p, nil
}

func (r *PropertyRepository) Exists(ctx context.Context, id string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Property{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

// Update writes the listing's editable columns. Status is owned by the rent
// reconciler and changes only through SetStatus.
func (r *PropertyRepository) Update(ctx context.Context, p *models.Property) error {
	return r.db.WithContext(ctx).Model(p).
		Select("*").
		Omit("id", "owner_id", "status", "created_at").
		Updates(p).Error
}

func (r *PropertyRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Property{}).Error
}

// SetStatus updates the availability status and returns the number of rows changed.
func (r *PropertyRepository) SetStatus(ctx context.Context, id, status string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Property{}).Where("id = ?", id).Update("status", status)
	return res.RowsAffected, res.Error
}

// Search returns one page of matching properties, newest first, and the total match count.
func (r *PropertyRepository) Search(ctx context.Context, f PropertyFilters) ([]models.Property, int64, error) {
	if f.Limit <= 0 {
		f.Limit = 20
	}
	q := r.db.WithContext(ctx).Model(&models.Property{})
	if f.Query != "" {
		like := "%" + f.Query + "%"
		q = q.Where("title LIKE ? OR location LIKE ?", like, like)
	}
	if f.Location != "" {
		q = q.Where("location LIKE ?", "%"+f.Location+"%")
	}
	if f.MinRent != nil {
		q = q.Where("rent >= ?", *f.MinRent)
	}
	if f.MaxRent != nil {
		q = q.Where("rent <= ?", *f.MaxRent)
	}
	if f.MinBedrooms > 0 {
		q = q.Where("bedrooms >= ?", f.MinBedrooms)
	}
	if f.PropertyType != "" {
		q = q.Where("property_type = ?", f.PropertyType)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.OwnerID != "" {
		q = q.Where("owner_id = ?", f.OwnerID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.Property
	err := q.Order("created_at DESC").Limit(f.Limit).Offset(f.Offset).Find(&list).Error
	return list, total, err
}
