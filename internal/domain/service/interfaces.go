// Package service defines the domain service interfaces that the application
// layer depends on. Implementations live under internal/infrastructure.
package service

import (
	"context"
	"time"

	"github.com/wavecard/guard/internal/domain/models"
	"github.com/wavecard/guard/pkg/constants"
)

// CounterResult is the outcome of one atomic window increment.
type CounterResult struct {
	// Current is the counter value after the increment.
	Current int64

	// Allowed reports whether Current is within the limit.
	Allowed bool

	// ResetAfter is the remaining lifetime of the current window.
	ResetAfter time.Duration
}

// WindowCounter provides atomic fixed-window counting for rate limit keys.
// Incr must increment and compare in one step so concurrent callers can never
// both observe a count below the limit and both pass.
type WindowCounter interface {
	// Incr atomically increments the counter for key and reports whether the
	// new value is within limit. A fresh key starts a window of the given
	// duration.
	Incr(ctx context.Context, key string, window time.Duration, limit int) (*CounterResult, error)

	// Reset clears the counter for key.
	Reset(ctx context.Context, key string) error
}

// BlockStore tracks blocked and suspicious source IPs in shared storage so
// every instance sees the same sets.
type BlockStore interface {
	// Block adds the IP to the block set.
	Block(ctx context.Context, ip string) error

	// IsBlocked reports whether the IP is in the block set.
	IsBlocked(ctx context.Context, ip string) (bool, error)

	// MarkSuspicious adds the IP to the suspicious set and reports whether it
	// was already present.
	MarkSuspicious(ctx context.Context, ip string) (alreadySuspicious bool, err error)

	// Unblock removes the IP from both the block and suspicious sets.
	Unblock(ctx context.Context, ip string) error
}

// EventPublisher publishes security events to the audit stream.
type EventPublisher interface {
	// Publish emits one event. Failures are the caller's to log; publishing
	// must never gate the in-process decision.
	Publish(ctx context.Context, event *models.SecurityEvent) error

	// Close flushes and releases the underlying transport.
	Close() error
}

// Sender delivers a queued notification over one channel.
type Sender interface {
	// Channel identifies the channel this sender serves.
	Channel() constants.NotificationChannel

	// Send delivers the entry. A returned error marks the attempt failed.
	Send(ctx context.Context, entry *models.QueueEntry) error
}
