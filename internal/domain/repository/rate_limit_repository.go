// Package repository defines the persistence interfaces of the domain layer.
// Implementations live under internal/infrastructure/persistence.
package repository

import (
	"context"
	"time"

	"github.com/wavecard/guard/internal/domain/models"
)

// RateLimitRuleRepository manages the configured rate limit rules.
type RateLimitRuleRepository interface {
	// ListEnabled returns all enabled rules.
	ListEnabled(ctx context.Context) ([]*models.RateLimitRule, error)

	// FindByID returns a rule by its ID.
	FindByID(ctx context.Context, id uint) (*models.RateLimitRule, error)

	// Save persists a new rule.
	Save(ctx context.Context, rule *models.RateLimitRule) error

	// Update persists changes to an existing rule.
	Update(ctx context.Context, rule *models.RateLimitRule) error

	// Delete removes a rule.
	Delete(ctx context.Context, id uint) error
}

// RateLimitAttemptRepository manages the append-only attempt log.
type RateLimitAttemptRepository interface {
	// Record appends one attempt record.
	Record(ctx context.Context, attempt *models.RateLimitAttempt) error

	// CountInWindow counts attempts for a key newer than the given time.
	CountInWindow(ctx context.Context, key string, since time.Time) (int, error)

	// DeleteOlderThan garbage-collects attempts past the retention period.
	// Returns the number of deleted rows.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
