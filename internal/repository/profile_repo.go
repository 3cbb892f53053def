package repository

import (
	"context"

	"studynest/internal/models"

	"gorm.io/gorm"
)

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Create(ctx context.Context, p *models.Profile) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// GetByID returns nil, nil when the user has not set up a profile yet.
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	var p models.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &p, nil
}

func (r *ProfileRepository) Update(ctx context.Context, p *models.Profile) error {
	return r.db.WithContext(ctx).Save(p).Error
}
