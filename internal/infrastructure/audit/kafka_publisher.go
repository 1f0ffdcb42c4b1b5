// Package audit publishes security events to the Kafka audit stream.
package audit

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/wavecard/guard/internal/config"
	"github.com/wavecard/guard/internal/domain/models"
	"github.com/wavecard/guard/internal/domain/service"
	"github.com/wavecard/guard/pkg/logger"
)

// KafkaPublisher is a Kafka-backed implementation of service.EventPublisher.
// Events are keyed by source IP so per-source ordering is preserved within a
// partition.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger logger.Logger
}

// NewKafkaPublisher creates a publisher for the security event topic.
func NewKafkaPublisher(cfg config.KafkaConfig, log logger.Logger) (*KafkaPublisher, error) {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.SecurityTopic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: cfg.WriteTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
	}
	return &KafkaPublisher{
		writer: writer,
		logger: log.WithComponent("kafka_publisher"),
	}, nil
}

// Publish sends one security event to the topic.
func (p *KafkaPublisher) Publish(ctx context.Context, event *models.SecurityEvent) error {
	bytes, err := json.Marshal(event)
	if err != nil {
		p.logger.Error(ctx, "failed to marshal security event", err)
		return err
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.IPAddress),
		Value: bytes,
	})
	if err != nil {
		p.logger.Error(ctx, "failed to write security event to Kafka", err,
			logger.String("event_type", string(event.EventType)),
		)
	}
	return err
}

// Close closes the underlying Kafka writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

var _ service.EventPublisher = (*KafkaPublisher)(nil)
