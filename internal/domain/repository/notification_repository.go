package repository

import (
	"context"
	"time"

	"github.com/wavecard/guard/internal/domain/models"
)

// NotificationRepository manages templates, rules, preferences, the delivery
// queue, and the in-app inbox.
type NotificationRepository interface {
	// GetTemplate returns a template by ID.
	GetTemplate(ctx context.Context, id uint) (*models.NotificationTemplate, error)

	// FindRulesByTrigger returns all enabled rules bound to a trigger event.
	FindRulesByTrigger(ctx context.Context, triggerEvent string) ([]*models.NotificationRule, error)

	// GetPreferences returns the user's channel preferences. A missing row
	// returns (nil, nil): the user has not opted out of anything.
	GetPreferences(ctx context.Context, userID string) (*models.NotificationPreferences, error)

	// Enqueue appends a rendered message to the delivery queue.
	Enqueue(ctx context.Context, entry *models.QueueEntry) error

	// ClaimDue atomically claims up to limit pending entries whose scheduled
	// time has passed, marking them processing with the given owner. Entries
	// claimed by one owner are invisible to concurrent claimers.
	ClaimDue(ctx context.Context, owner string, now time.Time, limit int) ([]*models.QueueEntry, error)

	// MarkSent transitions a claimed entry to sent.
	MarkSent(ctx context.Context, id uint, sentAt time.Time) error

	// MarkFailed parks a claimed entry as permanently failed.
	MarkFailed(ctx context.Context, id uint, attempts int, lastError string) error

	// Reschedule returns a claimed entry to pending with a new scheduled time.
	Reschedule(ctx context.Context, id uint, attempts int, lastError string, nextAt time.Time) error

	// SaveInbox writes an in-app message to the user's inbox.
	SaveInbox(ctx context.Context, message *models.InboxMessage) error
}
