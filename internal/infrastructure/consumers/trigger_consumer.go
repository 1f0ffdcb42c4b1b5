// Package consumers contains Kafka consumers for background processing.
package consumers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	appservice "github.com/wavecard/guard/internal/application/service"
	"github.com/wavecard/guard/internal/config"
	"github.com/wavecard/guard/pkg/logger"
)

// TriggerConsumer listens for business trigger events published by other
// services and fans them into the notification pipeline. This gives event
// producers a fire-and-forget path that does not depend on the HTTP API.
type TriggerConsumer struct {
	reader        *kafka.Reader
	notifications *appservice.NotificationAppService
	logger        logger.Logger
	stop          chan struct{}
}

// NewTriggerConsumer creates a consumer for the trigger topic. All instances
// share one group ID so each trigger is handled once.
func NewTriggerConsumer(cfg config.KafkaConfig, notifications *appservice.NotificationAppService, log logger.Logger) *TriggerConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.TriggerTopic,
		GroupID:        cfg.GroupID,
		MinBytes:       10e3,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
	})

	return &TriggerConsumer{
		reader:        reader,
		notifications: notifications,
		logger:        log.WithComponent("trigger_consumer"),
		stop:          make(chan struct{}),
	}
}

// Start begins the consumer loop. Blocking; run in a goroutine.
func (c *TriggerConsumer) Start(ctx context.Context) {
	c.logger.Info(ctx, "starting notification trigger consumer")
	for {
		select {
		case <-c.stop:
			c.logger.Info(ctx, "stopping notification trigger consumer")
			return
		default:
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				c.logger.Error(ctx, "failed to fetch message from kafka", err)
				continue
			}

			var req appservice.TriggerRequest
			if err := json.Unmarshal(msg.Value, &req); err != nil {
				c.logger.Error(ctx, "failed to unmarshal trigger event", err,
					logger.String("kafka_message", string(msg.Value)))
				// Acknowledge the message to avoid reprocessing a poison pill.
				c.reader.CommitMessages(ctx, msg)
				continue
			}

			if err := c.notifications.SendNotification(ctx, req); err != nil {
				c.logger.Error(ctx, "failed to handle trigger event", err,
					logger.String("trigger_event", req.TriggerEvent))
				// Do not commit, allow reprocessing.
			} else {
				c.reader.CommitMessages(ctx, msg)
			}
		}
	}
}

// Stop gracefully shuts down the consumer.
func (c *TriggerConsumer) Stop() {
	close(c.stop)
	if err := c.reader.Close(); err != nil {
		c.logger.Error(context.Background(), "failed to close kafka reader", err)
	}
}
