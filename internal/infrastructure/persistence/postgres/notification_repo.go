package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/wavecard/guard/internal/domain/models"
	"github.com/wavecard/guard/internal/domain/repository"
	"github.com/wavecard/guard/pkg/constants"
	apperrors "github.com/wavecard/guard/pkg/errors"
)

// NotificationRepo implements repository.NotificationRepository on GORM.
type NotificationRepo struct {
	db *gorm.DB
}

// NewNotificationRepo creates the notification repository.
func NewNotificationRepo(db *gorm.DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

// GetTemplate returns a template by ID.
func (r *NotificationRepo) GetTemplate(ctx context.Context, id uint) (*models.NotificationTemplate, error) {
	var tmpl models.NotificationTemplate
	if err := r.db.WithContext(ctx).First(&tmpl, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTemplateNotFound(id)
		}
		return nil, apperrors.ErrDatabaseOperation(err)
	}
	return &tmpl, nil
}

// FindRulesByTrigger returns all enabled rules bound to a trigger event.
func (r *NotificationRepo) FindRulesByTrigger(ctx context.Context, triggerEvent string) ([]*models.NotificationRule, error) {
	var rules []*models.NotificationRule
	err := r.db.WithContext(ctx).
		Where("trigger_event = ? AND enabled = ?", triggerEvent, true).
		Find(&rules).Error
	if err != nil {
		return nil, apperrors.ErrDatabaseOperation(err)
	}
	return rules, nil
}

// GetPreferences returns the user's channel preferences, or (nil, nil) when
// the user never saved any.
func (r *NotificationRepo) GetPreferences(ctx context.Context, userID string) (*models.NotificationPreferences, error) {
	var prefs models.NotificationPreferences
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&prefs).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.ErrDatabaseOperation(err)
	}
	return &prefs, nil
}

// Enqueue appends a rendered message to the delivery queue.
func (r *NotificationRepo) Enqueue(ctx context.Context, entry *models.QueueEntry) error {
	if entry.Status == "" {
		entry.Status = constants.QueueStatusPending
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return apperrors.ErrDatabaseOperation(err)
	}
	return nil
}

// ClaimDue claims up to limit due pending entries for the given owner. The
// claim is a guarded UPDATE that only flips rows still pending, so two
// concurrent claimers can never both obtain the same entry: each reloads only
// the rows stamped with its own owner ID.
func (r *NotificationRepo) ClaimDue(ctx context.Context, owner string, now time.Time, limit int) ([]*models.QueueEntry, error) {
	var claimed []*models.QueueEntry

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var candidateIDs []uint
		err := tx.Model(&models.QueueEntry{}).
			Where("status = ? AND scheduled_for <= ?", constants.QueueStatusPending, now).
			Order("scheduled_for ASC").
			Limit(limit).
			Pluck("id", &candidateIDs).Error
		if err != nil {
			return err
		}
		if len(candidateIDs) == 0 {
			return nil
		}

		err = tx.Model(&models.QueueEntry{}).
			Where("id IN ? AND status = ?", candidateIDs, constants.QueueStatusPending).
			Updates(map[string]interface{}{
				"status":     constants.QueueStatusProcessing,
				"claimed_by": owner,
			}).Error
		if err != nil {
			return err
		}

		return tx.
			Where("id IN ? AND status = ? AND claimed_by = ?",
				candidateIDs, constants.QueueStatusProcessing, owner).
			Order("scheduled_for ASC").
			Find(&claimed).Error
	})
	if err != nil {
		return nil, apperrors.ErrDatabaseOperation(err)
	}
	return claimed, nil
}

// MarkSent transitions a claimed entry to sent.
func (r *NotificationRepo) MarkSent(ctx context.Context, id uint, sentAt time.Time) error {
	err := r.db.WithContext(ctx).Model(&models.QueueEntry{}).
		Where("id = ? AND status = ?", id, constants.QueueStatusProcessing).
		Updates(map[string]interface{}{
			"status":     constants.QueueStatusSent,
			"sent_at":    sentAt,
			"claimed_by": "",
		}).Error
	if err != nil {
		return apperrors.ErrDatabaseOperation(err)
	}
	return nil
}

// MarkFailed parks a claimed entry as permanently failed.
func (r *NotificationRepo) MarkFailed(ctx context.Context, id uint, attempts int, lastError string) error {
	err := r.db.WithContext(ctx).Model(&models.QueueEntry{}).
		Where("id = ? AND status = ?", id, constants.QueueStatusProcessing).
		Updates(map[string]interface{}{
			"status":     constants.QueueStatusFailed,
			"attempts":   attempts,
			"last_error": lastError,
			"claimed_by": "",
		}).Error
	if err != nil {
		return apperrors.ErrDatabaseOperation(err)
	}
	return nil
}

// Reschedule returns a claimed entry to pending with a new scheduled time.
func (r *NotificationRepo) Reschedule(ctx context.Context, id uint, attempts int, lastError string, nextAt time.Time) error {
	err := r.db.WithContext(ctx).Model(&models.QueueEntry{}).
		Where("id = ? AND status = ?", id, constants.QueueStatusProcessing).
		Updates(map[string]interface{}{
			"status":        constants.QueueStatusPending,
			"attempts":      attempts,
			"last_error":    lastError,
			"scheduled_for": nextAt,
			"claimed_by":    "",
		}).Error
	if err != nil {
		return apperrors.ErrDatabaseOperation(err)
	}
	return nil
}

// SaveInbox writes an in-app message to the user's inbox.
func (r *NotificationRepo) SaveInbox(ctx context.Context, message *models.InboxMessage) error {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return apperrors.ErrDatabaseOperation(err)
	}
	return nil
}

var _ repository.NotificationRepository = (*NotificationRepo)(nil)
