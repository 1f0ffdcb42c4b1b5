package notification

import (
	"context"

	"github.com/wavecard/guard/internal/domain/models"
	"github.com/wavecard/guard/internal/domain/repository"
	"github.com/wavecard/guard/internal/domain/service"
	"github.com/wavecard/guard/pkg/constants"
	"github.com/wavecard/guard/pkg/logger"
)

// InAppSender delivers queue entries by writing directly to the user's inbox.
type InAppSender struct {
	repo   repository.NotificationRepository
	logger logger.Logger
}

// NewInAppSender creates the in-app channel sender.
func NewInAppSender(repo repository.NotificationRepository, log logger.Logger) *InAppSender {
	return &InAppSender{
		repo:   repo,
		logger: log.WithComponent("inapp_sender"),
	}
}

// Channel identifies the channel this sender serves.
func (s *InAppSender) Channel() constants.NotificationChannel {
	return constants.ChannelInApp
}

// Send writes the entry to the inbox.
func (s *InAppSender) Send(ctx context.Context, entry *models.QueueEntry) error {
	message := &models.InboxMessage{
		UserID:  entry.UserID,
		Subject: entry.Subject,
		Body:    entry.Body,
	}
	if err := s.repo.SaveInbox(ctx, message); err != nil {
		return err
	}

	s.logger.Debug(ctx, "Inbox message written",
		logger.Int("entry_id", int(entry.ID)),
		logger.String("user_id", entry.UserID),
	)
	return nil
}

var _ service.Sender = (*InAppSender)(nil)
