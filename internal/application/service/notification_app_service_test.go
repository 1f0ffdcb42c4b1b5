package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wavecard/guard/internal/domain/models"
	domainsvc "github.com/wavecard/guard/internal/domain/service"
	"github.com/wavecard/guard/internal/infrastructure/persistence/postgres"
	"github.com/wavecard/guard/pkg/constants"
	"github.com/wavecard/guard/pkg/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.NotificationTemplate{},
		&models.NotificationRule{},
		&models.QueueEntry{},
		&models.NotificationPreferences{},
		&models.InboxMessage{},
	))
	return db
}

func newNotificationFixture(t *testing.T, senders []domainsvc.Sender) (*NotificationAppService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	repo := postgres.NewNotificationRepo(db)
	svc := NewNotificationAppService(repo, senders, testMetrics, logger.NewNoopLogger())
	return svc, db
}

func seedRule(t *testing.T, db *gorm.DB, channels string, delayMinutes int, conditions string) {
	t.Helper()

	tmpl := &models.NotificationTemplate{
		Name:    "card_published",
		Subject: "Your card {{card_title}} is live",
		Body:    "Hello {{name}}, your card is now published.",
	}
	require.NoError(t, db.Create(tmpl).Error)

	rule := &models.NotificationRule{
		TriggerEvent: "card.published",
		TemplateID:   tmpl.ID,
		Channels:     channels,
		DelayMinutes: delayMinutes,
		Enabled:      true,
	}
	if conditions != "" {
		rule.Conditions = json.RawMessage(conditions)
	}
	require.NoError(t, db.Create(rule).Error)
}

func TestSendNotificationEnqueuesPerChannel(t *testing.T) {
	svc, db := newNotificationFixture(t, nil)
	seedRule(t, db, "email,in_app", 0, "")

	err := svc.SendNotification(context.Background(), TriggerRequest{
		TriggerEvent:   "card.published",
		UserID:         "u1",
		Variables:      map[string]interface{}{"name": "Ana", "card_title": "Studio"},
		RecipientEmail: "ana@example.com",
	})
	require.NoError(t, err)

	var entries []models.QueueEntry
	require.NoError(t, db.Order("channel").Find(&entries).Error)
	require.Len(t, entries, 2)

	assert.Equal(t, constants.ChannelEmail, entries[0].Channel)
	assert.Equal(t, "ana@example.com", entries[0].Recipient)
	assert.Equal(t, "Your card Studio is live", entries[0].Subject)
	assert.Equal(t, "Hello Ana, your card is now published.", entries[0].Body)
	assert.Equal(t, constants.QueueStatusPending, entries[0].Status)

	assert.Equal(t, constants.ChannelInApp, entries[1].Channel)
}

func TestSendNotificationRespectsOptOuts(t *testing.T) {
	svc, db := newNotificationFixture(t, nil)
	seedRule(t, db, "email,sms", 0, "")
	require.NoError(t, db.Create(&models.NotificationPreferences{
		UserID:  "u1",
		OptOuts: "sms",
	}).Error)

	err := svc.SendNotification(context.Background(), TriggerRequest{
		TriggerEvent:   "card.published",
		UserID:         "u1",
		RecipientEmail: "ana@example.com",
		RecipientPhone: "+15550001111",
	})
	require.NoError(t, err)

	var entries []models.QueueEntry
	require.NoError(t, db.Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, constants.ChannelEmail, entries[0].Channel)
}

func TestSendNotificationEvaluatesConditions(t *testing.T) {
	svc, db := newNotificationFixture(t, nil)
	seedRule(t, db, "email", 0, `{"plan": "pro"}`)

	err := svc.SendNotification(context.Background(), TriggerRequest{
		TriggerEvent: "card.published",
		UserID:       "u1",
		Variables:    map[string]interface{}{"plan": "free"},
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.QueueEntry{}).Count(&count).Error)
	assert.Zero(t, count, "a failed condition skips the rule")
}

func TestSendNotificationAppliesDelay(t *testing.T) {
	svc, db := newNotificationFixture(t, nil)
	seedRule(t, db, "in_app", 30, "")

	require.NoError(t, svc.SendNotification(context.Background(), TriggerRequest{
		TriggerEvent: "card.published",
		UserID:       "u1",
	}))

	var entry models.QueueEntry
	require.NoError(t, db.First(&entry).Error)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), entry.ScheduledFor, 5*time.Second)
}

func TestSendNotificationSkipsRuleWithMissingTemplate(t *testing.T) {
	svc, db := newNotificationFixture(t, nil)
	require.NoError(t, db.Create(&models.NotificationRule{
		TriggerEvent: "card.published",
		TemplateID:   999,
		Channels:     "email",
		Enabled:      true,
	}).Error)
	seedRule(t, db, "in_app", 0, "")

	require.NoError(t, svc.SendNotification(context.Background(), TriggerRequest{
		TriggerEvent: "card.published",
		UserID:       "u1",
	}))

	var entries []models.QueueEntry
	require.NoError(t, db.Find(&entries).Error)
	require.Len(t, entries, 1, "the broken rule is skipped, the healthy one still fires")
	assert.Equal(t, constants.ChannelInApp, entries[0].Channel)
}

func enqueueDue(t *testing.T, db *gorm.DB, channel constants.NotificationChannel, attempts int) uint {
	t.Helper()

	entry := &models.QueueEntry{
		UserID:       "u1",
		Channel:      channel,
		Body:         "body",
		Status:       constants.QueueStatusPending,
		Attempts:     attempts,
		ScheduledFor: time.Now().Add(-time.Minute),
	}
	require.NoError(t, db.Create(entry).Error)
	return entry.ID
}

func TestProcessQueueMarksSentOnSuccess(t *testing.T) {
	sender := &mockSender{channel: constants.ChannelEmail}
	sender.On("Send", mock.Anything, mock.Anything).Return(nil)

	svc, db := newNotificationFixture(t, []domainsvc.Sender{sender})
	id := enqueueDue(t, db, constants.ChannelEmail, 0)

	processed, err := svc.ProcessQueue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	var entry models.QueueEntry
	require.NoError(t, db.First(&entry, id).Error)
	assert.Equal(t, constants.QueueStatusSent, entry.Status)
	require.NotNil(t, entry.SentAt)
}

func TestProcessQueueReschedulesFailureWithBackoff(t *testing.T) {
	sender := &mockSender{channel: constants.ChannelEmail}
	sender.On("Send", mock.Anything, mock.Anything).Return(assert.AnError)

	svc, db := newNotificationFixture(t, []domainsvc.Sender{sender})
	id := enqueueDue(t, db, constants.ChannelEmail, 0)

	_, err := svc.ProcessQueue(context.Background())
	require.NoError(t, err)

	var entry models.QueueEntry
	require.NoError(t, db.First(&entry, id).Error)
	assert.Equal(t, constants.QueueStatusPending, entry.Status)
	assert.Equal(t, 1, entry.Attempts)
	assert.NotEmpty(t, entry.LastError)
	assert.WithinDuration(t, time.Now().Add(constants.DeliveryRetryBackoff), entry.ScheduledFor, 5*time.Second)
}

func TestProcessQueueParksEntryAfterMaxAttempts(t *testing.T) {
	sender := &mockSender{channel: constants.ChannelEmail}
	sender.On("Send", mock.Anything, mock.Anything).Return(assert.AnError)

	svc, db := newNotificationFixture(t, []domainsvc.Sender{sender})
	id := enqueueDue(t, db, constants.ChannelEmail, constants.MaxDeliveryAttempts-1)

	_, err := svc.ProcessQueue(context.Background())
	require.NoError(t, err)

	var entry models.QueueEntry
	require.NoError(t, db.First(&entry, id).Error)
	assert.Equal(t, constants.QueueStatusFailed, entry.Status)
	assert.Equal(t, constants.MaxDeliveryAttempts, entry.Attempts)

	// A parked entry is never claimed again.
	processed, err := svc.ProcessQueue(context.Background())
	require.NoError(t, err)
	assert.Zero(t, processed)
}

func TestProcessQueueFailsEntryWithUnknownChannel(t *testing.T) {
	svc, db := newNotificationFixture(t, nil)
	id := enqueueDue(t, db, constants.ChannelEmail, constants.MaxDeliveryAttempts-1)

	_, err := svc.ProcessQueue(context.Background())
	require.NoError(t, err)

	var entry models.QueueEntry
	require.NoError(t, db.First(&entry, id).Error)
	assert.Equal(t, constants.QueueStatusFailed, entry.Status)
}

func TestProcessQueueSkipsFutureEntries(t *testing.T) {
	sender := &mockSender{channel: constants.ChannelEmail}
	svc, db := newNotificationFixture(t, []domainsvc.Sender{sender})

	require.NoError(t, db.Create(&models.QueueEntry{
		UserID:       "u1",
		Channel:      constants.ChannelEmail,
		Body:         "later",
		Status:       constants.QueueStatusPending,
		ScheduledFor: time.Now().Add(time.Hour),
	}).Error)

	processed, err := svc.ProcessQueue(context.Background())
	require.NoError(t, err)
	assert.Zero(t, processed)
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}
