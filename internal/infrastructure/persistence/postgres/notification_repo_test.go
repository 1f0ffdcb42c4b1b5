package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wavecard/guard/internal/domain/models"
	"github.com/wavecard/guard/pkg/constants"
)

func newQueueDB(t *testing.T) (*NotificationRepo, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.QueueEntry{}))
	return NewNotificationRepo(db), db
}

func seedPending(t *testing.T, db *gorm.DB, n int, scheduledFor time.Time) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, db.Create(&models.QueueEntry{
			UserID:       "u1",
			Channel:      constants.ChannelEmail,
			Body:         "body",
			Status:       constants.QueueStatusPending,
			ScheduledFor: scheduledFor,
		}).Error)
	}
}

func TestClaimDueStampsOwnerAndStatus(t *testing.T) {
	repo, db := newQueueDB(t)
	seedPending(t, db, 3, time.Now().Add(-time.Minute))

	claimed, err := repo.ClaimDue(context.Background(), "worker-a", time.Now(), 10)
	require.NoError(t, err)
	require.Len(t, claimed, 3)

	for _, entry := range claimed {
		assert.Equal(t, constants.QueueStatusProcessing, entry.Status)
		assert.Equal(t, "worker-a", entry.ClaimedBy)
	}
}

func TestClaimDueBatchesAreDisjoint(t *testing.T) {
	repo, db := newQueueDB(t)
	seedPending(t, db, 5, time.Now().Add(-time.Minute))

	first, err := repo.ClaimDue(context.Background(), "worker-a", time.Now(), 3)
	require.NoError(t, err)
	second, err := repo.ClaimDue(context.Background(), "worker-b", time.Now(), 3)
	require.NoError(t, err)

	require.Len(t, first, 3)
	require.Len(t, second, 2)

	seen := map[uint]bool{}
	for _, entry := range append(first, second...) {
		assert.False(t, seen[entry.ID], "entry %d claimed twice", entry.ID)
		seen[entry.ID] = true
	}
}

func TestClaimDueHonorsSchedule(t *testing.T) {
	repo, db := newQueueDB(t)
	seedPending(t, db, 1, time.Now().Add(time.Hour))

	claimed, err := repo.ClaimDue(context.Background(), "worker-a", time.Now(), 10)
	require.NoError(t, err)
	assert.Empty(t, claimed)
}

func TestClaimDueSkipsSettledEntries(t *testing.T) {
	repo, db := newQueueDB(t)

	now := time.Now()
	for _, status := range []constants.QueueStatus{
		constants.QueueStatusSent,
		constants.QueueStatusFailed,
		constants.QueueStatusProcessing,
		constants.QueueStatusCancelled,
	} {
		require.NoError(t, db.Create(&models.QueueEntry{
			UserID:       "u1",
			Channel:      constants.ChannelEmail,
			Body:         "body",
			Status:       status,
			ScheduledFor: now.Add(-time.Minute),
		}).Error)
	}

	claimed, err := repo.ClaimDue(context.Background(), "worker-a", now, 10)
	require.NoError(t, err)
	assert.Empty(t, claimed)
}

func TestSettlementRequiresProcessingStatus(t *testing.T) {
	repo, db := newQueueDB(t)
	seedPending(t, db, 1, time.Now().Add(-time.Minute))

	var entry models.QueueEntry
	require.NoError(t, db.First(&entry).Error)

	// The entry was never claimed, so settlement is a no-op.
	require.NoError(t, repo.MarkSent(context.Background(), entry.ID, time.Now()))

	require.NoError(t, db.First(&entry, entry.ID).Error)
	assert.Equal(t, constants.QueueStatusPending, entry.Status)
	assert.Nil(t, entry.SentAt)
}

func TestRescheduleReturnsEntryToPending(t *testing.T) {
	repo, db := newQueueDB(t)
	seedPending(t, db, 1, time.Now().Add(-time.Minute))

	claimed, err := repo.ClaimDue(context.Background(), "worker-a", time.Now(), 1)
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	nextAt := time.Now().Add(constants.DeliveryRetryBackoff)
	require.NoError(t, repo.Reschedule(context.Background(), claimed[0].ID, 1, "smtp timeout", nextAt))

	var entry models.QueueEntry
	require.NoError(t, db.First(&entry, claimed[0].ID).Error)
	assert.Equal(t, constants.QueueStatusPending, entry.Status)
	assert.Equal(t, 1, entry.Attempts)
	assert.Equal(t, "smtp timeout", entry.LastError)
	assert.Empty(t, entry.ClaimedBy)
	assert.WithinDuration(t, nextAt, entry.ScheduledFor, time.Second)
}
