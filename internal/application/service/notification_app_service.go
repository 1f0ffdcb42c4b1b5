package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/wavecard/guard/internal/domain/models"
	"github.com/wavecard/guard/internal/domain/repository"
	"github.com/wavecard/guard/internal/domain/service"
	"github.com/wavecard/guard/internal/infrastructure/monitoring"
	"github.com/wavecard/guard/pkg/constants"
	"github.com/wavecard/guard/pkg/errors"
	"github.com/wavecard/guard/pkg/logger"
)

// TriggerRequest describes one business event to fan out.
type TriggerRequest struct {
	TriggerEvent   string                 `json:"trigger_event" binding:"required"`
	UserID         string                 `json:"user_id" binding:"required"`
	Variables      map[string]interface{} `json:"variables,omitempty"`
	RecipientEmail string                 `json:"recipient_email,omitempty"`
	RecipientPhone string                 `json:"recipient_phone,omitempty"`
}

// NotificationAppService fans business events out to queued per-channel
// messages and drains the queue in claimed batches.
type NotificationAppService struct {
	repo    repository.NotificationRepository
	senders map[constants.NotificationChannel]service.Sender
	metrics *monitoring.Metrics
	logger  logger.Logger
}

// NewNotificationAppService creates the dispatcher. Senders are registered by
// the channel they report.
func NewNotificationAppService(
	repo repository.NotificationRepository,
	senders []service.Sender,
	metrics *monitoring.Metrics,
	log logger.Logger,
) *NotificationAppService {
	byChannel := make(map[constants.NotificationChannel]service.Sender, len(senders))
	for _, s := range senders {
		byChannel[s.Channel()] = s
	}
	return &NotificationAppService{
		repo:    repo,
		senders: byChannel,
		metrics: metrics,
		logger:  log.WithComponent("notification_service"),
	}
}

// SendNotification matches the trigger against enabled rules and enqueues one
// rendered message per rule channel the user has not opted out of. A broken
// rule (missing template, failed condition) skips that rule only.
func (n *NotificationAppService) SendNotification(ctx context.Context, req TriggerRequest) error {
	rules, err := n.repo.FindRulesByTrigger(ctx, req.TriggerEvent)
	if err != nil {
		return err
	}
	if len(rules) == 0 {
		n.logger.Debug(ctx, "No rules for trigger event",
			logger.String("trigger_event", req.TriggerEvent),
		)
		return nil
	}

	prefs, err := n.repo.GetPreferences(ctx, req.UserID)
	if err != nil {
		n.logger.Warn(ctx, "Failed to load preferences, assuming none",
			logger.String("user_id", req.UserID),
			logger.Error(err),
		)
		prefs = nil
	}

	for _, rule := range rules {
		if !rule.ConditionsMatch(req.Variables) {
			continue
		}

		tmpl, err := n.repo.GetTemplate(ctx, rule.TemplateID)
		if err != nil {
			n.logger.Warn(ctx, "Skipping rule with missing template",
				logger.Int("rule_id", int(rule.ID)),
				logger.Int("template_id", int(rule.TemplateID)),
				logger.Error(err),
			)
			continue
		}

		subject := models.RenderTemplate(tmpl.Subject, req.Variables)
		body := models.RenderTemplate(tmpl.Body, req.Variables)
		scheduledFor := time.Now().Add(time.Duration(rule.DelayMinutes) * time.Minute)

		for _, channel := range rule.ChannelList() {
			if prefs.OptedOut(channel) {
				continue
			}

			entry := &models.QueueEntry{
				UserID:       req.UserID,
				Channel:      channel,
				Subject:      subject,
				Body:         body,
				Recipient:    n.recipientFor(channel, req),
				TriggerEvent: req.TriggerEvent,
				Status:       constants.QueueStatusPending,
				ScheduledFor: scheduledFor,
			}
			if err := n.repo.Enqueue(ctx, entry); err != nil {
				n.logger.Error(ctx, "Failed to enqueue notification", err,
					logger.String("channel", string(channel)),
					logger.String("user_id", req.UserID),
				)
				continue
			}
			n.metrics.NotificationsEnqueued.WithLabelValues(string(channel)).Inc()
		}
	}

	return nil
}

// ProcessQueue claims one batch of due entries and dispatches them. Returns
// the number of entries claimed. Callers re-invoke on a timer to make
// progress; there is no internal scheduler here.
func (n *NotificationAppService) ProcessQueue(ctx context.Context) (int, error) {
	owner := uuid.New().String()
	now := time.Now()

	entries, err := n.repo.ClaimDue(ctx, owner, now, constants.QueueBatchSize)
	if err != nil {
		return 0, err
	}
	n.metrics.QueueBatchSize.Observe(float64(len(entries)))
	if len(entries) == 0 {
		return 0, nil
	}

	for _, entry := range entries {
		n.dispatch(ctx, entry)
	}

	return len(entries), nil
}

// dispatch delivers one claimed entry and settles its queue state: sent on
// success, rescheduled with the fixed backoff on failure, parked as failed
// once attempts are exhausted.
func (n *NotificationAppService) dispatch(ctx context.Context, entry *models.QueueEntry) {
	channel := string(entry.Channel)

	sender, ok := n.senders[entry.Channel]
	var sendErr error
	if !ok {
		sendErr = errors.ErrUnsupportedChannel(channel)
	} else {
		sendErr = sender.Send(ctx, entry)
	}

	if sendErr == nil {
		if err := n.repo.MarkSent(ctx, entry.ID, time.Now()); err != nil {
			n.logger.Error(ctx, "Failed to mark entry sent", err,
				logger.Int("entry_id", int(entry.ID)),
			)
			return
		}
		n.metrics.NotificationsDelivered.WithLabelValues(channel).Inc()
		return
	}

	attempts := entry.Attempts + 1
	n.logger.Warn(ctx, "Notification delivery failed",
		logger.Int("entry_id", int(entry.ID)),
		logger.String("channel", channel),
		logger.Int("attempts", attempts),
		logger.Error(sendErr),
	)

	if attempts >= constants.MaxDeliveryAttempts {
		if err := n.repo.MarkFailed(ctx, entry.ID, attempts, sendErr.Error()); err != nil {
			n.logger.Error(ctx, "Failed to park entry as failed", err,
				logger.Int("entry_id", int(entry.ID)),
			)
			return
		}
		n.metrics.NotificationsFailed.WithLabelValues(channel, "permanent").Inc()
		return
	}

	nextAt := time.Now().Add(constants.DeliveryRetryBackoff)
	if err := n.repo.Reschedule(ctx, entry.ID, attempts, sendErr.Error(), nextAt); err != nil {
		n.logger.Error(ctx, "Failed to reschedule entry", err,
			logger.Int("entry_id", int(entry.ID)),
		)
		return
	}
	n.metrics.NotificationsFailed.WithLabelValues(channel, "retried").Inc()
}

func (n *NotificationAppService) recipientFor(channel constants.NotificationChannel, req TriggerRequest) string {
	switch channel {
	case constants.ChannelEmail:
		return req.RecipientEmail
	case constants.ChannelSMS:
		return req.RecipientPhone
	default:
		return ""
	}
}
