package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/wavecard/guard/internal/domain/models"
	domainsvc "github.com/wavecard/guard/internal/domain/service"
	"github.com/wavecard/guard/internal/infrastructure/ratelimit"
	"github.com/wavecard/guard/pkg/errors"
	"github.com/wavecard/guard/pkg/logger"
)

type rateLimitFixture struct {
	ruleRepo    *mockRuleRepo
	attemptRepo *mockAttemptRepo
	eventRepo   *mockEventRepo
	counter     *mockCounter
	blockStore  *mockBlockStore
	publisher   *mockPublisher
	service     *RateLimitAppService
}

func newRateLimitFixture(fallback *ratelimit.TokenBucketPool) *rateLimitFixture {
	f := &rateLimitFixture{
		ruleRepo:    &mockRuleRepo{},
		attemptRepo: &mockAttemptRepo{},
		eventRepo:   &mockEventRepo{},
		counter:     &mockCounter{},
		blockStore:  &mockBlockStore{},
		publisher:   &mockPublisher{},
	}
	f.service = NewRateLimitAppService(
		f.ruleRepo, f.attemptRepo, f.eventRepo, f.counter, f.blockStore,
		f.publisher, fallback, testMetrics, logger.NewNoopLogger())
	return f
}

func loginRule() *models.RateLimitRule {
	rule := &models.RateLimitRule{
		ID:              1,
		EndpointPattern: "/api/auth/login",
		Method:          "POST",
		MaxRequests:     5,
		WindowMs:        (15 * time.Minute).Milliseconds(),
		Enabled:         true,
	}
	rule.Normalize()
	return rule
}

func loginRequest() CheckRequest {
	return CheckRequest{
		Endpoint:  "/api/auth/login",
		Method:    "POST",
		IPAddress: "1.2.3.4",
	}
}

func TestCheckRateLimitAllowsUnderLimit(t *testing.T) {
	f := newRateLimitFixture(nil)
	f.blockStore.On("IsBlocked", mock.Anything, "1.2.3.4").Return(false, nil)
	f.ruleRepo.On("ListEnabled", mock.Anything).Return([]*models.RateLimitRule{loginRule()}, nil)
	f.counter.On("Incr", mock.Anything, mock.Anything, 15*time.Minute, 5).
		Return(&domainsvc.CounterResult{Current: 3, Allowed: true}, nil)
	f.attemptRepo.On("Record", mock.Anything, mock.Anything).Return(nil)

	decision := f.service.CheckRateLimit(context.Background(), loginRequest())

	assert.True(t, decision.Allowed)
	assert.Equal(t, 2, decision.Remaining)
	f.attemptRepo.AssertCalled(t, "Record", mock.Anything, mock.MatchedBy(func(a *models.RateLimitAttempt) bool {
		return !a.Blocked
	}))
}

func TestCheckRateLimitDeniesOverLimit(t *testing.T) {
	f := newRateLimitFixture(nil)
	f.blockStore.On("IsBlocked", mock.Anything, "1.2.3.4").Return(false, nil)
	f.ruleRepo.On("ListEnabled", mock.Anything).Return([]*models.RateLimitRule{loginRule()}, nil)
	f.counter.On("Incr", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&domainsvc.CounterResult{Current: 6, Allowed: false, ResetAfter: time.Minute}, nil)
	f.attemptRepo.On("Record", mock.Anything, mock.Anything).Return(nil)
	f.eventRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	decision := f.service.CheckRateLimit(context.Background(), loginRequest())

	assert.False(t, decision.Allowed)
	assert.Equal(t, 429, decision.StatusCode)
	assert.Equal(t, uint(1), decision.RuleID)
	f.attemptRepo.AssertCalled(t, "Record", mock.Anything, mock.MatchedBy(func(a *models.RateLimitAttempt) bool {
		return a.Blocked
	}))
	f.eventRepo.AssertNumberOfCalls(t, "Save", 1)
}

func TestCheckRateLimitDeniesBlockedIP(t *testing.T) {
	f := newRateLimitFixture(nil)
	f.blockStore.On("IsBlocked", mock.Anything, "1.2.3.4").Return(true, nil)
	f.eventRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	decision := f.service.CheckRateLimit(context.Background(), loginRequest())

	assert.False(t, decision.Allowed)
	assert.Equal(t, 403, decision.StatusCode)
	// Rules are never consulted for a blocked source.
	f.ruleRepo.AssertNotCalled(t, "ListEnabled", mock.Anything)
}

func TestCheckRateLimitFailsOpenOnRuleLoadError(t *testing.T) {
	f := newRateLimitFixture(nil)
	f.blockStore.On("IsBlocked", mock.Anything, mock.Anything).Return(false, nil)
	f.ruleRepo.On("ListEnabled", mock.Anything).Return(nil, errors.ErrDatabaseOperation(assert.AnError))

	decision := f.service.CheckRateLimit(context.Background(), loginRequest())

	assert.True(t, decision.Allowed, "persistence failure must not block the request")
}

func TestCheckRateLimitFailsOpenOnCounterErrorWithoutFallback(t *testing.T) {
	f := newRateLimitFixture(nil)
	f.blockStore.On("IsBlocked", mock.Anything, mock.Anything).Return(false, nil)
	f.ruleRepo.On("ListEnabled", mock.Anything).Return([]*models.RateLimitRule{loginRule()}, nil)
	f.counter.On("Incr", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.ErrCacheUnavailable(assert.AnError))

	decision := f.service.CheckRateLimit(context.Background(), loginRequest())

	assert.True(t, decision.Allowed)
}

func TestCheckRateLimitUsesLocalFallbackOnCounterError(t *testing.T) {
	pool := ratelimit.NewTokenBucketPool()
	f := newRateLimitFixture(pool)

	rule := loginRule()
	rule.MaxRequests = 1
	f.blockStore.On("IsBlocked", mock.Anything, mock.Anything).Return(false, nil)
	f.ruleRepo.On("ListEnabled", mock.Anything).Return([]*models.RateLimitRule{rule}, nil)
	f.counter.On("Incr", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.ErrCacheUnavailable(assert.AnError))
	f.attemptRepo.On("Record", mock.Anything, mock.Anything).Return(nil)
	f.eventRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	first := f.service.CheckRateLimit(context.Background(), loginRequest())
	assert.True(t, first.Allowed, "fallback bucket starts full")

	second := f.service.CheckRateLimit(context.Background(), loginRequest())
	assert.False(t, second.Allowed, "fallback still enforces the rule's quota")

	// A fallback deny carries the same side effects as a shared-counter deny.
	f.attemptRepo.AssertCalled(t, "Record", mock.Anything, mock.MatchedBy(func(a *models.RateLimitAttempt) bool {
		return a.Blocked
	}))
	f.eventRepo.AssertNumberOfCalls(t, "Save", 1)
	f.publisher.AssertNumberOfCalls(t, "Publish", 1)
}

func TestCheckRateLimitFirstDenyShortCircuits(t *testing.T) {
	f := newRateLimitFixture(nil)

	broad := &models.RateLimitRule{ID: 2, EndpointPattern: "*", Method: "*", MaxRequests: 1, WindowMs: 60000, Enabled: true}
	broad.Normalize()
	narrow := loginRule()

	f.blockStore.On("IsBlocked", mock.Anything, mock.Anything).Return(false, nil)
	f.ruleRepo.On("ListEnabled", mock.Anything).Return([]*models.RateLimitRule{broad, narrow}, nil)
	f.counter.On("Incr", mock.Anything, mock.Anything, mock.Anything, 1).
		Return(&domainsvc.CounterResult{Current: 2, Allowed: false}, nil).Once()
	f.attemptRepo.On("Record", mock.Anything, mock.Anything).Return(nil)
	f.eventRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	decision := f.service.CheckRateLimit(context.Background(), loginRequest())

	assert.False(t, decision.Allowed)
	assert.Equal(t, uint(2), decision.RuleID)
	// The second matching rule is never evaluated.
	f.counter.AssertNumberOfCalls(t, "Incr", 1)
}

func TestCheckRateLimitIgnoresNonMatchingRules(t *testing.T) {
	f := newRateLimitFixture(nil)

	other := &models.RateLimitRule{ID: 3, EndpointPattern: "/api/bookings", Method: "GET", MaxRequests: 1, WindowMs: 60000, Enabled: true}
	other.Normalize()

	f.blockStore.On("IsBlocked", mock.Anything, mock.Anything).Return(false, nil)
	f.ruleRepo.On("ListEnabled", mock.Anything).Return([]*models.RateLimitRule{other}, nil)

	decision := f.service.CheckRateLimit(context.Background(), loginRequest())

	assert.True(t, decision.Allowed)
	f.counter.AssertNotCalled(t, "Incr", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
