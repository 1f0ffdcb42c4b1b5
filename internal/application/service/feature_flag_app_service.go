package service

import (
	"context"

	gocache "github.com/patrickmn/go-cache"

	"github.com/wavecard/guard/internal/domain/models"
	"github.com/wavecard/guard/internal/domain/repository"
	"github.com/wavecard/guard/internal/infrastructure/monitoring"
	"github.com/wavecard/guard/pkg/constants"
	"github.com/wavecard/guard/pkg/errors"
	"github.com/wavecard/guard/pkg/logger"
)

// FeatureFlagAppService evaluates feature flags for a user and context.
// Evaluation is deterministic: the same flag, user, and context always yield
// the same result, so batch and single evaluation agree.
type FeatureFlagAppService struct {
	repo    repository.FeatureFlagRepository
	cache   *gocache.Cache
	metrics *monitoring.Metrics
	logger  logger.Logger
}

// NewFeatureFlagAppService creates the flag service.
func NewFeatureFlagAppService(
	repo repository.FeatureFlagRepository,
	metrics *monitoring.Metrics,
	log logger.Logger,
) *FeatureFlagAppService {
	return &FeatureFlagAppService{
		repo:    repo,
		cache:   gocache.New(constants.FlagCacheTTL, 2*constants.FlagCacheTTL),
		metrics: metrics,
		logger:  log.WithComponent("feature_flag_service"),
	}
}

// Evaluate returns whether the flag is on for the user. An unknown flag
// returns an error; disabled flags, failed conditions, and rollout misses
// return false.
func (s *FeatureFlagAppService) Evaluate(ctx context.Context, key, userID string, evalContext map[string]interface{}) (bool, error) {
	flag, err := s.flag(ctx, key)
	if err != nil {
		s.metrics.FlagEvaluations.WithLabelValues("unknown").Inc()
		return false, err
	}

	enabled := flag.Enabled && flag.ConditionsMatch(evalContext) && flag.InRollout(userID)
	if enabled {
		s.metrics.FlagEvaluations.WithLabelValues("on").Inc()
	} else {
		s.metrics.FlagEvaluations.WithLabelValues("off").Inc()
	}
	return enabled, nil
}

// EvaluateAll evaluates a batch of flags. The result has exactly one entry per
// requested key, each matching what Evaluate returns for that key; unknown
// flags evaluate to false.
func (s *FeatureFlagAppService) EvaluateAll(ctx context.Context, keys []string, userID string, evalContext map[string]interface{}) map[string]bool {
	results := make(map[string]bool, len(keys))
	for _, key := range keys {
		enabled, err := s.Evaluate(ctx, key, userID, evalContext)
		if err != nil && !errors.IsNotFound(err) {
			s.logger.Warn(ctx, "Flag evaluation failed, defaulting to off",
				logger.String("flag_key", key),
				logger.Error(err),
			)
		}
		results[key] = enabled
	}
	return results
}

// ListFlags returns all flag definitions. Admin operation.
func (s *FeatureFlagAppService) ListFlags(ctx context.Context) ([]*models.FeatureFlag, error) {
	return s.repo.List(ctx)
}

// InvalidateCache drops all cached flag definitions.
func (s *FeatureFlagAppService) InvalidateCache() {
	s.cache.Flush()
}

func (s *FeatureFlagAppService) flag(ctx context.Context, key string) (*models.FeatureFlag, error) {
	if cached, found := s.cache.Get(key); found {
		return cached.(*models.FeatureFlag), nil
	}

	flag, err := s.repo.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, flag, gocache.DefaultExpiration)
	return flag, nil
}
