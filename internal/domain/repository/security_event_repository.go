package repository

import (
	"context"

	"github.com/wavecard/guard/internal/domain/models"
)

// SecurityEventRepository manages the security event audit trail.
type SecurityEventRepository interface {
	// Save appends one audit record.
	Save(ctx context.Context, event *models.SecurityEvent) error

	// ListRecent returns the most recent events, newest first.
	ListRecent(ctx context.Context, limit int) ([]*models.SecurityEvent, error)

	// CountByIP counts events for a source IP, optionally filtered by severity.
	CountByIP(ctx context.Context, ip string, severity string) (int64, error)
}
