package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/wavecard/guard/internal/domain/models"
	domainsvc "github.com/wavecard/guard/internal/domain/service"
	"github.com/wavecard/guard/internal/infrastructure/monitoring"
	"github.com/wavecard/guard/pkg/constants"
)

// Collectors register globally, so all tests in this package share one set.
var testMetrics = monitoring.NewMetrics()

type mockRuleRepo struct {
	mock.Mock
}

func (m *mockRuleRepo) ListEnabled(ctx context.Context) ([]*models.RateLimitRule, error) {
	args := m.Called(ctx)
	if rules := args.Get(0); rules != nil {
		return rules.([]*models.RateLimitRule), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRuleRepo) FindByID(ctx context.Context, id uint) (*models.RateLimitRule, error) {
	args := m.Called(ctx, id)
	if rule := args.Get(0); rule != nil {
		return rule.(*models.RateLimitRule), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRuleRepo) Save(ctx context.Context, rule *models.RateLimitRule) error {
	return m.Called(ctx, rule).Error(0)
}

func (m *mockRuleRepo) Update(ctx context.Context, rule *models.RateLimitRule) error {
	return m.Called(ctx, rule).Error(0)
}

func (m *mockRuleRepo) Delete(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

type mockAttemptRepo struct {
	mock.Mock
}

func (m *mockAttemptRepo) Record(ctx context.Context, attempt *models.RateLimitAttempt) error {
	return m.Called(ctx, attempt).Error(0)
}

func (m *mockAttemptRepo) CountInWindow(ctx context.Context, key string, since time.Time) (int, error) {
	args := m.Called(ctx, key, since)
	return args.Int(0), args.Error(1)
}

func (m *mockAttemptRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type mockEventRepo struct {
	mock.Mock
}

func (m *mockEventRepo) Save(ctx context.Context, event *models.SecurityEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *mockEventRepo) ListRecent(ctx context.Context, limit int) ([]*models.SecurityEvent, error) {
	args := m.Called(ctx, limit)
	if events := args.Get(0); events != nil {
		return events.([]*models.SecurityEvent), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockEventRepo) CountByIP(ctx context.Context, ip string, severity string) (int64, error) {
	args := m.Called(ctx, ip, severity)
	return args.Get(0).(int64), args.Error(1)
}

type mockCounter struct {
	mock.Mock
}

func (m *mockCounter) Incr(ctx context.Context, key string, window time.Duration, limit int) (*domainsvc.CounterResult, error) {
	args := m.Called(ctx, key, window, limit)
	if result := args.Get(0); result != nil {
		return result.(*domainsvc.CounterResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockCounter) Reset(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

type mockBlockStore struct {
	mock.Mock
}

func (m *mockBlockStore) Block(ctx context.Context, ip string) error {
	return m.Called(ctx, ip).Error(0)
}

func (m *mockBlockStore) IsBlocked(ctx context.Context, ip string) (bool, error) {
	args := m.Called(ctx, ip)
	return args.Bool(0), args.Error(1)
}

func (m *mockBlockStore) MarkSuspicious(ctx context.Context, ip string) (bool, error) {
	args := m.Called(ctx, ip)
	return args.Bool(0), args.Error(1)
}

func (m *mockBlockStore) Unblock(ctx context.Context, ip string) error {
	return m.Called(ctx, ip).Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, event *models.SecurityEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *mockPublisher) Close() error {
	return m.Called().Error(0)
}

type mockFlagRepo struct {
	mock.Mock
}

func (m *mockFlagRepo) Get(ctx context.Context, key string) (*models.FeatureFlag, error) {
	args := m.Called(ctx, key)
	if flag := args.Get(0); flag != nil {
		return flag.(*models.FeatureFlag), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockFlagRepo) List(ctx context.Context) ([]*models.FeatureFlag, error) {
	args := m.Called(ctx)
	if flags := args.Get(0); flags != nil {
		return flags.([]*models.FeatureFlag), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockFlagRepo) Save(ctx context.Context, flag *models.FeatureFlag) error {
	return m.Called(ctx, flag).Error(0)
}

func (m *mockFlagRepo) Update(ctx context.Context, flag *models.FeatureFlag) error {
	return m.Called(ctx, flag).Error(0)
}

type mockSender struct {
	mock.Mock
	channel constants.NotificationChannel
}

func (m *mockSender) Channel() constants.NotificationChannel {
	return m.channel
}

func (m *mockSender) Send(ctx context.Context, entry *models.QueueEntry) error {
	return m.Called(ctx, entry).Error(0)
}
