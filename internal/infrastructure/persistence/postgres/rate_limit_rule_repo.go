package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/wavecard/guard/internal/domain/models"
	"github.com/wavecard/guard/internal/domain/repository"
	apperrors "github.com/wavecard/guard/pkg/errors"
)

// RateLimitRuleRepo implements repository.RateLimitRuleRepository on GORM.
type RateLimitRuleRepo struct {
	db *gorm.DB
}

// NewRateLimitRuleRepo creates the rule repository.
func NewRateLimitRuleRepo(db *gorm.DB) *RateLimitRuleRepo {
	return &RateLimitRuleRepo{db: db}
}

// ListEnabled returns all enabled rules.
func (r *RateLimitRuleRepo) ListEnabled(ctx context.Context) ([]*models.RateLimitRule, error) {
	var rules []*models.RateLimitRule
	if err := r.db.WithContext(ctx).Where("enabled = ?", true).Find(&rules).Error; err != nil {
		return nil, apperrors.ErrDatabaseOperation(err)
	}
	return rules, nil
}

// FindByID returns a rule by its ID.
func (r *RateLimitRuleRepo) FindByID(ctx context.Context, id uint) (*models.RateLimitRule, error) {
	var rule models.RateLimitRule
	if err := r.db.WithContext(ctx).First(&rule, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRuleNotFound(id)
		}
		return nil, apperrors.ErrDatabaseOperation(err)
	}
	return &rule, nil
}

// Save persists a new rule.
func (r *RateLimitRuleRepo) Save(ctx context.Context, rule *models.RateLimitRule) error {
	rule.Normalize()
	if err := r.db.WithContext(ctx).Create(rule).Error; err != nil {
		return apperrors.ErrDatabaseOperation(err)
	}
	return nil
}

// Update persists changes to an existing rule.
func (r *RateLimitRuleRepo) Update(ctx context.Context, rule *models.RateLimitRule) error {
	rule.Normalize()
	result := r.db.WithContext(ctx).Save(rule)
	if result.Error != nil {
		return apperrors.ErrDatabaseOperation(result.Error)
	}
	return nil
}

// Delete removes a rule.
func (r *RateLimitRuleRepo) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.RateLimitRule{}, id)
	if result.Error != nil {
		return apperrors.ErrDatabaseOperation(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrRuleNotFound(id)
	}
	return nil
}

var _ repository.RateLimitRuleRepository = (*RateLimitRuleRepo)(nil)
