package service

import (
	"context"
	"time"

	"github.com/wavecard/guard/pkg/logger"
)

// QueueWorker drives the notification queue on a fixed interval until its
// context is cancelled.
type QueueWorker struct {
	service  *NotificationAppService
	interval time.Duration
	logger   logger.Logger
}

// NewQueueWorker creates the worker.
func NewQueueWorker(service *NotificationAppService, interval time.Duration, log logger.Logger) *QueueWorker {
	return &QueueWorker{
		service:  service,
		interval: interval,
		logger:   log.WithComponent("queue_worker"),
	}
}

// Run polls the queue until ctx is cancelled. One poll runs immediately so a
// restart does not wait a full interval for due entries.
func (w *QueueWorker) Run(ctx context.Context) error {
	w.logger.Info(ctx, "Queue worker started", logger.Duration("interval", w.interval))

	w.poll(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "Queue worker stopped")
			return ctx.Err()
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

func (w *QueueWorker) poll(ctx context.Context) {
	processed, err := w.service.ProcessQueue(ctx)
	if err != nil {
		w.logger.Error(ctx, "Queue poll failed", err)
		return
	}
	if processed > 0 {
		w.logger.Info(ctx, "Queue batch processed", logger.Int("count", processed))
	}
}
