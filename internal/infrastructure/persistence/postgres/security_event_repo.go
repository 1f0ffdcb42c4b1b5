package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/wavecard/guard/internal/domain/models"
	"github.com/wavecard/guard/internal/domain/repository"
	apperrors "github.com/wavecard/guard/pkg/errors"
)

// SecurityEventRepo implements repository.SecurityEventRepository on GORM.
type SecurityEventRepo struct {
	db *gorm.DB
}

// NewSecurityEventRepo creates the security event repository.
func NewSecurityEventRepo(db *gorm.DB) *SecurityEventRepo {
	return &SecurityEventRepo{db: db}
}

// Save appends one audit record.
func (r *SecurityEventRepo) Save(ctx context.Context, event *models.SecurityEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return apperrors.ErrDatabaseOperation(err)
	}
	return nil
}

// ListRecent returns the most recent events, newest first.
func (r *SecurityEventRepo) ListRecent(ctx context.Context, limit int) ([]*models.SecurityEvent, error) {
	var events []*models.SecurityEvent
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, apperrors.ErrDatabaseOperation(err)
	}
	return events, nil
}

// CountByIP counts events for a source IP, optionally filtered by severity.
func (r *SecurityEventRepo) CountByIP(ctx context.Context, ip string, severity string) (int64, error) {
	query := r.db.WithContext(ctx).Model(&models.SecurityEvent{}).Where("ip_address = ?", ip)
	if severity != "" {
		query = query.Where("severity = ?", severity)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, apperrors.ErrDatabaseOperation(err)
	}
	return count, nil
}

var _ repository.SecurityEventRepository = (*SecurityEventRepo)(nil)
