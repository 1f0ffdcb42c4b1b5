package service

import (
	"context"

	"github.com/wavecard/guard/internal/domain/models"
	"github.com/wavecard/guard/internal/domain/repository"
	"github.com/wavecard/guard/internal/domain/service"
	"github.com/wavecard/guard/internal/infrastructure/monitoring"
	"github.com/wavecard/guard/pkg/constants"
	"github.com/wavecard/guard/pkg/logger"
)

// SecurityReport carries one inspection's caller identity and pattern flags.
type SecurityReport struct {
	IPAddress string              `json:"ip_address" binding:"required"`
	UserID    string              `json:"user_id,omitempty"`
	UserAgent string              `json:"user_agent,omitempty"`
	Flags     models.PatternFlags `json:"flags"`
}

// SecurityAppService classifies reported pattern flags, persists one audit
// event per detected pattern, and escalates blocking per severity:
// critical blocks immediately, a second high-severity event from the same
// source blocks, medium and low never block. Suspicious marks do not expire;
// only an explicit unblock clears them.
type SecurityAppService struct {
	eventRepo  repository.SecurityEventRepository
	blockStore service.BlockStore
	publisher  service.EventPublisher
	metrics    *monitoring.Metrics
	logger     logger.Logger
	alertLog   logger.Logger
}

// NewSecurityAppService creates the classifier service.
func NewSecurityAppService(
	eventRepo repository.SecurityEventRepository,
	blockStore service.BlockStore,
	publisher service.EventPublisher,
	metrics *monitoring.Metrics,
	log logger.Logger,
) *SecurityAppService {
	return &SecurityAppService{
		eventRepo:  eventRepo,
		blockStore: blockStore,
		publisher:  publisher,
		metrics:    metrics,
		logger:     log.WithComponent("security_service"),
		alertLog:   log.WithComponent("security_alerts"),
	}
}

// Classify evaluates the report and returns the blocking decision. One event
// is persisted per detected pattern; persistence failures never suppress the
// block decision.
func (s *SecurityAppService) Classify(ctx context.Context, report SecurityReport) models.ClassificationResult {
	result := models.ClassificationResult{}

	for _, detection := range s.detections(report.Flags) {
		event := models.NewSecurityEvent(detection.eventType, detection.severity, report.IPAddress).
			WithUser(report.UserID).
			WithUserAgent(report.UserAgent)

		switch detection.severity {
		case constants.SeverityCritical:
			s.blockIP(ctx, report.IPAddress)
			event.MarkBlocked()
			result.Blocked = true
			result.Reason = string(detection.eventType)

			s.alertLog.Error(ctx, "CRITICAL security event, source blocked", nil,
				logger.String("event_type", string(detection.eventType)),
				logger.String("ip_address", report.IPAddress),
				logger.String("user_id", report.UserID),
			)

		case constants.SeverityHigh:
			alreadySuspicious, err := s.blockStore.MarkSuspicious(ctx, report.IPAddress)
			if err != nil {
				s.logger.Warn(ctx, "Failed to mark IP suspicious",
					logger.String("ip_address", report.IPAddress),
					logger.Error(err),
				)
			} else if alreadySuspicious {
				s.blockIP(ctx, report.IPAddress)
				event.MarkBlocked()
				result.Blocked = true
				result.Reason = string(detection.eventType)
			}

		default:
			// Logged only.
		}

		s.persist(ctx, event)
		result.EventIDs = append(result.EventIDs, event.ID)
	}

	return result
}

// Unblock removes a source from the block and suspicious sets. Admin
// operation; the only way a suspicious mark is cleared.
func (s *SecurityAppService) Unblock(ctx context.Context, ip string) error {
	return s.blockStore.Unblock(ctx, ip)
}

// RecentEvents returns the newest audit records.
func (s *SecurityAppService) RecentEvents(ctx context.Context, limit int) ([]*models.SecurityEvent, error) {
	return s.eventRepo.ListRecent(ctx, limit)
}

type detection struct {
	eventType constants.SecurityEventType
	severity  constants.Severity
}

// detections maps the report's flags to classified events: brute force is
// critical, injection and XSS are high, rapid requests are medium.
func (s *SecurityAppService) detections(flags models.PatternFlags) []detection {
	var out []detection
	if flags.BruteForce {
		out = append(out, detection{constants.EventBruteForce, constants.SeverityCritical})
	}
	if flags.SQLInjection {
		out = append(out, detection{constants.EventInjectionAttempt, constants.SeverityHigh})
	}
	if flags.XSS {
		out = append(out, detection{constants.EventInjectionAttempt, constants.SeverityHigh})
	}
	if flags.RapidRequests {
		out = append(out, detection{constants.EventSuspiciousActivity, constants.SeverityMedium})
	}
	return out
}

func (s *SecurityAppService) blockIP(ctx context.Context, ip string) {
	if err := s.blockStore.Block(ctx, ip); err != nil {
		s.logger.Error(ctx, "Failed to add IP to block set", err,
			logger.String("ip_address", ip),
		)
		return
	}
	s.metrics.BlockedIPs.Inc()
}

func (s *SecurityAppService) persist(ctx context.Context, event *models.SecurityEvent) {
	s.metrics.SecurityEvents.WithLabelValues(string(event.EventType), string(event.Severity)).Inc()

	if err := s.eventRepo.Save(ctx, event); err != nil {
		s.logger.Warn(ctx, "Failed to persist security event",
			logger.String("event_type", string(event.EventType)),
			logger.Error(err),
		)
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn(ctx, "Failed to publish security event",
			logger.String("event_type", string(event.EventType)),
			logger.Error(err),
		)
	}
}
