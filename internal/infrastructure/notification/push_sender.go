package notification

import (
	"context"

	"github.com/wavecard/guard/internal/domain/models"
	"github.com/wavecard/guard/internal/domain/service"
	"github.com/wavecard/guard/pkg/constants"
	"github.com/wavecard/guard/pkg/logger"
)

// PushSender is a stub for the mobile push channel. Entries are logged and
// reported delivered so queue processing completes.
//
// TODO: wire a push provider once mobile clients register device tokens.
type PushSender struct {
	logger logger.Logger
}

// NewPushSender creates the push channel sender.
func NewPushSender(log logger.Logger) *PushSender {
	return &PushSender{logger: log.WithComponent("push_sender")}
}

// Channel identifies the channel this sender serves.
func (s *PushSender) Channel() constants.NotificationChannel {
	return constants.ChannelPush
}

// Send logs the entry and reports success.
func (s *PushSender) Send(ctx context.Context, entry *models.QueueEntry) error {
	s.logger.Info(ctx, "Push notification stub invoked",
		logger.Int("entry_id", int(entry.ID)),
		logger.String("user_id", entry.UserID),
		logger.String("subject", entry.Subject),
	)
	return nil
}

var _ service.Sender = (*PushSender)(nil)
