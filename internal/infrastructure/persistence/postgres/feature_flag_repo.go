package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/wavecard/guard/internal/domain/models"
	"github.com/wavecard/guard/internal/domain/repository"
	apperrors "github.com/wavecard/guard/pkg/errors"
)

// FeatureFlagRepo implements repository.FeatureFlagRepository on GORM.
type FeatureFlagRepo struct {
	db *gorm.DB
}

// NewFeatureFlagRepo creates the feature flag repository.
func NewFeatureFlagRepo(db *gorm.DB) *FeatureFlagRepo {
	return &FeatureFlagRepo{db: db}
}

// Get returns a flag by key.
func (r *FeatureFlagRepo) Get(ctx context.Context, key string) (*models.FeatureFlag, error) {
	var flag models.FeatureFlag
	if err := r.db.WithContext(ctx).Where("key = ?", key).First(&flag).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrFlagNotFound(key)
		}
		return nil, apperrors.ErrDatabaseOperation(err)
	}
	return &flag, nil
}

// List returns all flags.
func (r *FeatureFlagRepo) List(ctx context.Context) ([]*models.FeatureFlag, error) {
	var flags []*models.FeatureFlag
	if err := r.db.WithContext(ctx).Find(&flags).Error; err != nil {
		return nil, apperrors.ErrDatabaseOperation(err)
	}
	return flags, nil
}

// Save persists a new flag.
func (r *FeatureFlagRepo) Save(ctx context.Context, flag *models.FeatureFlag) error {
	if err := r.db.WithContext(ctx).Create(flag).Error; err != nil {
		return apperrors.ErrDatabaseOperation(err)
	}
	return nil
}

// Update persists changes to an existing flag.
func (r *FeatureFlagRepo) Update(ctx context.Context, flag *models.FeatureFlag) error {
	if err := r.db.WithContext(ctx).Save(flag).Error; err != nil {
		return apperrors.ErrDatabaseOperation(err)
	}
	return nil
}

var _ repository.FeatureFlagRepository = (*FeatureFlagRepo)(nil)
