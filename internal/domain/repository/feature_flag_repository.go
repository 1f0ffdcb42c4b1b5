package repository

import (
	"context"

	"github.com/wavecard/guard/internal/domain/models"
)

// FeatureFlagRepository manages feature flag definitions.
type FeatureFlagRepository interface {
	// Get returns a flag by key.
	Get(ctx context.Context, key string) (*models.FeatureFlag, error)

	// List returns all flags.
	List(ctx context.Context) ([]*models.FeatureFlag, error)

	// Save persists a new flag.
	Save(ctx context.Context, flag *models.FeatureFlag) error

	// Update persists changes to an existing flag.
	Update(ctx context.Context, flag *models.FeatureFlag) error
}
