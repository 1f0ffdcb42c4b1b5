// Package service implements the application services: rate limiting,
// security event classification, notification dispatch, and feature flags.
package service

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/wavecard/guard/internal/domain/models"
	"github.com/wavecard/guard/internal/domain/repository"
	"github.com/wavecard/guard/internal/domain/service"
	"github.com/wavecard/guard/internal/infrastructure/monitoring"
	"github.com/wavecard/guard/internal/infrastructure/ratelimit"
	"github.com/wavecard/guard/pkg/constants"
	"github.com/wavecard/guard/pkg/logger"
)

const ruleCacheKey = "active_rules"

// CheckRequest identifies one inbound request to evaluate.
type CheckRequest struct {
	Endpoint  string `json:"endpoint" binding:"required"`
	Method    string `json:"method" binding:"required"`
	IPAddress string `json:"ip_address" binding:"required"`
	UserID    string `json:"user_id,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

// RateLimitAppService evaluates requests against the configured rules.
//
// Evaluation fails open: any infrastructure error yields an allow, with the
// error logged. Under a shared-counter outage the local token bucket pool
// keeps approximate per-key quotas until Redis returns.
type RateLimitAppService struct {
	ruleRepo    repository.RateLimitRuleRepository
	attemptRepo repository.RateLimitAttemptRepository
	eventRepo   repository.SecurityEventRepository
	counter     service.WindowCounter
	blockStore  service.BlockStore
	publisher   service.EventPublisher
	fallback    *ratelimit.TokenBucketPool
	ruleCache   *gocache.Cache
	metrics     *monitoring.Metrics
	logger      logger.Logger
}

// NewRateLimitAppService creates the rate limit service. fallback may be nil
// to disable the local fallback path.
func NewRateLimitAppService(
	ruleRepo repository.RateLimitRuleRepository,
	attemptRepo repository.RateLimitAttemptRepository,
	eventRepo repository.SecurityEventRepository,
	counter service.WindowCounter,
	blockStore service.BlockStore,
	publisher service.EventPublisher,
	fallback *ratelimit.TokenBucketPool,
	metrics *monitoring.Metrics,
	log logger.Logger,
) *RateLimitAppService {
	return &RateLimitAppService{
		ruleRepo:    ruleRepo,
		attemptRepo: attemptRepo,
		eventRepo:   eventRepo,
		counter:     counter,
		blockStore:  blockStore,
		publisher:   publisher,
		fallback:    fallback,
		ruleCache:   gocache.New(constants.RuleCacheTTL, 2*constants.RuleCacheTTL),
		metrics:     metrics,
		logger:      log.WithComponent("rate_limit_service"),
	}
}

// CheckRateLimit evaluates the request and returns an allow/deny decision.
// The first denying rule short-circuits further checks.
func (s *RateLimitAppService) CheckRateLimit(ctx context.Context, req CheckRequest) models.Decision {
	if blocked, err := s.blockStore.IsBlocked(ctx, req.IPAddress); err != nil {
		s.logger.Warn(ctx, "Block set unavailable, continuing",
			logger.String("ip_address", req.IPAddress),
			logger.Error(err),
		)
	} else if blocked {
		s.recordEvent(ctx, s.blockedSourceEvent(req))
		s.metrics.RateLimitDecisions.WithLabelValues("blocked_ip").Inc()
		return models.Decision{
			Allowed:    false,
			Message:    "Access denied.",
			StatusCode: 403,
		}
	}

	rules, err := s.activeRules(ctx)
	if err != nil {
		// Fail open: no rules means no enforcement.
		s.logger.Error(ctx, "Failed to load rate limit rules, allowing request", err)
		s.metrics.RateLimitDecisions.WithLabelValues("error_open").Inc()
		return models.Allow(-1)
	}

	remaining := -1
	for _, rule := range rules {
		if !rule.Matches(req.Endpoint, req.Method) {
			continue
		}

		key := models.BuildRateLimitKey(rule.EndpointPattern, rule.Method, req.IPAddress, req.UserID)
		result, err := s.counter.Incr(ctx, key, rule.Window(), rule.MaxRequests)
		if err != nil {
			if !s.allowByFallback(ctx, key, rule, err) {
				s.recordAttempt(ctx, req, rule, key, true)
				s.recordEvent(ctx, s.limitExceededEvent(req, rule))
				s.metrics.RateLimitDecisions.WithLabelValues("denied_fallback").Inc()
				return models.Deny(rule, rule.Window())
			}
			continue
		}

		if !result.Allowed {
			s.recordAttempt(ctx, req, rule, key, true)
			s.recordEvent(ctx, s.limitExceededEvent(req, rule))
			s.metrics.RateLimitDecisions.WithLabelValues("denied").Inc()
			return models.Deny(rule, result.ResetAfter)
		}

		if left := rule.MaxRequests - int(result.Current); remaining < 0 || left < remaining {
			remaining = left
		}
		s.recordAttempt(ctx, req, rule, key, false)
	}

	s.metrics.RateLimitDecisions.WithLabelValues("allowed").Inc()
	return models.Allow(remaining)
}

// allowByFallback consults the local token bucket for a key after a shared
// counter failure. Returns true when the request should pass.
func (s *RateLimitAppService) allowByFallback(ctx context.Context, key string, rule *models.RateLimitRule, cause error) bool {
	s.metrics.RateLimitFallbacks.Inc()
	s.logger.Warn(ctx, "Shared counter unavailable, using local fallback",
		logger.String("key", key),
		logger.Error(cause),
	)

	if s.fallback == nil {
		// Fail open with no fallback configured.
		return true
	}
	return s.fallback.Allow(key, rule.MaxRequests, rule.Window())
}

// ResetLimit clears the counter for a rule/caller pair. Admin operation.
func (s *RateLimitAppService) ResetLimit(ctx context.Context, pattern, method, ip, userID string) error {
	key := models.BuildRateLimitKey(pattern, method, ip, userID)
	if s.fallback != nil {
		s.fallback.Remove(key)
	}
	return s.counter.Reset(ctx, key)
}

// InvalidateRuleCache drops the cached rule set so the next evaluation
// reloads it. Called after admin rule changes.
func (s *RateLimitAppService) InvalidateRuleCache() {
	s.ruleCache.Delete(ruleCacheKey)
}

// RunAttemptGC deletes attempt records older than the retention period on the
// given interval until the context is cancelled.
func (s *RateLimitAppService) RunAttemptGC(ctx context.Context, interval, retention time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := s.attemptRepo.DeleteOlderThan(ctx, time.Now().Add(-retention))
			if err != nil {
				s.logger.Error(ctx, "Attempt log GC failed", err)
				continue
			}
			if deleted > 0 {
				s.logger.Info(ctx, "Attempt log GC completed", logger.Int64("deleted", deleted))
			}
		}
	}
}

func (s *RateLimitAppService) activeRules(ctx context.Context) ([]*models.RateLimitRule, error) {
	if cached, found := s.ruleCache.Get(ruleCacheKey); found {
		return cached.([]*models.RateLimitRule), nil
	}

	rules, err := s.ruleRepo.ListEnabled(ctx)
	if err != nil {
		return nil, err
	}

	s.ruleCache.Set(ruleCacheKey, rules, gocache.DefaultExpiration)
	return rules, nil
}

func (s *RateLimitAppService) recordAttempt(ctx context.Context, req CheckRequest, rule *models.RateLimitRule, key string, blocked bool) {
	attempt := &models.RateLimitAttempt{
		Key:       key,
		IPAddress: req.IPAddress,
		UserID:    req.UserID,
		Endpoint:  req.Endpoint,
		Method:    req.Method,
		Blocked:   blocked,
		CreatedAt: time.Now(),
	}
	if err := s.attemptRepo.Record(ctx, attempt); err != nil {
		s.logger.Warn(ctx, "Failed to record rate limit attempt",
			logger.String("key", key),
			logger.Error(err),
		)
	}
}

// recordEvent persists and publishes a security event. Failures are logged
// only; the decision already made stands.
func (s *RateLimitAppService) recordEvent(ctx context.Context, event *models.SecurityEvent) {
	s.metrics.SecurityEvents.WithLabelValues(string(event.EventType), string(event.Severity)).Inc()

	if err := s.eventRepo.Save(ctx, event); err != nil {
		s.logger.Warn(ctx, "Failed to persist security event",
			logger.String("event_type", string(event.EventType)),
			logger.Error(err),
		)
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn(ctx, "Failed to publish security event",
			logger.String("event_type", string(event.EventType)),
			logger.Error(err),
		)
	}
}

func (s *RateLimitAppService) blockedSourceEvent(req CheckRequest) *models.SecurityEvent {
	return models.NewSecurityEvent(constants.EventUnauthorizedAccess, constants.SeverityHigh, req.IPAddress).
		WithUser(req.UserID).
		WithUserAgent(req.UserAgent).
		WithDetails(map[string]interface{}{
			"endpoint": req.Endpoint,
			"method":   req.Method,
			"reason":   "request from blocked IP",
		}).
		MarkBlocked()
}

func (s *RateLimitAppService) limitExceededEvent(req CheckRequest, rule *models.RateLimitRule) *models.SecurityEvent {
	return models.NewSecurityEvent(constants.EventRateLimitExceeded, constants.SeverityMedium, req.IPAddress).
		WithUser(req.UserID).
		WithUserAgent(req.UserAgent).
		WithDetails(map[string]interface{}{
			"endpoint":     req.Endpoint,
			"method":       req.Method,
			"rule_id":      rule.ID,
			"max_requests": rule.MaxRequests,
			"window_ms":    rule.WindowMs,
		})
}
