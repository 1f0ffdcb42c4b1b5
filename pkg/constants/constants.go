// Package constants defines system-wide constants for the WaveCard Guard service.
// This package provides type-safe constant definitions used across all modules.
package constants

import "time"

// ================================================================================
// Security Event Constants
// ================================================================================

// SecurityEventType classifies a persisted security signal.
type SecurityEventType string

const (
	// EventRateLimitExceeded indicates a request was denied by a rate limit rule
	EventRateLimitExceeded SecurityEventType = "rate_limit_exceeded"

	// EventSuspiciousActivity indicates abnormal request behavior (e.g. rapid requests)
	EventSuspiciousActivity SecurityEventType = "suspicious_activity"

	// EventFailedValidation indicates request input failed validation
	EventFailedValidation SecurityEventType = "failed_validation"

	// EventUnauthorizedAccess indicates a request from a blocked or unauthenticated source
	EventUnauthorizedAccess SecurityEventType = "unauthorized_access"

	// EventInjectionAttempt indicates SQL-injection or XSS-like input was detected
	EventInjectionAttempt SecurityEventType = "injection_attempt"

	// EventBruteForce indicates a brute-force pattern was detected
	EventBruteForce SecurityEventType = "brute_force"
)

// Severity represents the severity of a security event.
type Severity string

const (
	// SeverityLow is informational only
	SeverityLow Severity = "low"

	// SeverityMedium is logged but never triggers blocking
	SeverityMedium Severity = "medium"

	// SeverityHigh marks the source suspicious; a second high event blocks it
	SeverityHigh Severity = "high"

	// SeverityCritical blocks the source immediately
	SeverityCritical Severity = "critical"
)

// ================================================================================
// Rate Limiting Constants
// ================================================================================

const (
	// DefaultMaxRequests is the fallback quota when a rule omits one
	DefaultMaxRequests = 100

	// DefaultRateLimitWindow is the fallback window when a rule omits one
	DefaultRateLimitWindow = 1 * time.Minute

	// DefaultRateLimitStatusCode is the HTTP status surfaced on denial
	DefaultRateLimitStatusCode = 429

	// DefaultRateLimitMessage is the user-facing denial message
	DefaultRateLimitMessage = "Too many requests. Please try again later."

	// AttemptRetentionPeriod is how long durable attempt records are kept
	AttemptRetentionPeriod = 24 * time.Hour

	// RuleCacheTTL is the in-process cache lifetime for the active rule set
	RuleCacheTTL = 30 * time.Second

	// MatchAny is the wildcard accepted for endpoint patterns and methods
	MatchAny = "*"
)

// ================================================================================
// Notification Constants
// ================================================================================

// NotificationChannel identifies a delivery channel for queued messages.
type NotificationChannel string

const (
	// ChannelEmail delivers via the transactional email provider
	ChannelEmail NotificationChannel = "email"

	// ChannelSMS delivers via the telephony provider
	ChannelSMS NotificationChannel = "sms"

	// ChannelPush delivers via mobile push (stub)
	ChannelPush NotificationChannel = "push"

	// ChannelInApp delivers by writing directly to the user's inbox
	ChannelInApp NotificationChannel = "in_app"
)

// QueueStatus represents the lifecycle status of a queued notification.
type QueueStatus string

const (
	// QueueStatusPending indicates the entry is awaiting delivery
	QueueStatusPending QueueStatus = "pending"

	// QueueStatusProcessing indicates the entry has been claimed by a worker
	QueueStatusProcessing QueueStatus = "processing"

	// QueueStatusSent indicates the entry was delivered (terminal)
	QueueStatusSent QueueStatus = "sent"

	// QueueStatusFailed indicates delivery failed permanently (terminal)
	QueueStatusFailed QueueStatus = "failed"

	// QueueStatusCancelled indicates the entry was cancelled before delivery (terminal)
	QueueStatusCancelled QueueStatus = "cancelled"
)

const (
	// MaxDeliveryAttempts is the retry cap before an entry is parked as failed
	MaxDeliveryAttempts = 3

	// DeliveryRetryBackoff is the fixed delay applied when rescheduling a failed entry
	DeliveryRetryBackoff = 15 * time.Minute

	// QueueBatchSize is the maximum number of due entries claimed per poll
	QueueBatchSize = 50

	// DefaultQueuePollInterval drives the repeating queue worker
	DefaultQueuePollInterval = 1 * time.Minute
)

// ================================================================================
// Feature Flag Constants
// ================================================================================

const (
	// FlagCacheTTL is the in-process cache lifetime for flag definitions
	FlagCacheTTL = 1 * time.Minute

	// RolloutBuckets is the modulus for percentage rollout hashing
	RolloutBuckets = 100
)

// ================================================================================
// Error Code Constants
// ================================================================================

// ErrorCode represents machine-readable error codes surfaced in API responses.
type ErrorCode string

const (
	// ErrCodeInvalidRequest indicates the request is malformed or missing parameters
	ErrCodeInvalidRequest ErrorCode = "invalid_request"

	// ErrCodeUnauthorized indicates authentication failed
	ErrCodeUnauthorized ErrorCode = "unauthorized"

	// ErrCodeForbidden indicates the caller is blocked or not permitted
	ErrCodeForbidden ErrorCode = "forbidden"

	// ErrCodeNotFound indicates the requested resource does not exist
	ErrCodeNotFound ErrorCode = "not_found"

	// ErrCodeRateLimitExceeded indicates a rate limit rule denied the request
	ErrCodeRateLimitExceeded ErrorCode = "rate_limit_exceeded"

	// ErrCodeServerError indicates an internal failure
	ErrCodeServerError ErrorCode = "server_error"

	// ErrCodeUnavailable indicates a dependency is temporarily unavailable
	ErrCodeUnavailable ErrorCode = "temporarily_unavailable"
)

// ================================================================================
// Cache Key Prefix Constants
// ================================================================================

const (
	// CacheKeyPrefixRateLimit is the prefix for rate limit window counters
	CacheKeyPrefixRateLimit = "guard:rl:"

	// CacheKeyBlockedIPs is the Redis set holding blocked source IPs
	CacheKeyBlockedIPs = "guard:blocked_ips"

	// CacheKeySuspiciousIPs is the Redis set holding suspicious source IPs
	CacheKeySuspiciousIPs = "guard:suspicious_ips"
)

// ================================================================================
// Database Table Name Constants
// ================================================================================

const (
	// TableRateLimitRules is the rate limit rule table
	TableRateLimitRules = "rate_limit_rules"

	// TableRateLimitAttempts is the append-only attempt log table
	TableRateLimitAttempts = "rate_limit_attempts"

	// TableSecurityEvents is the security event audit table
	TableSecurityEvents = "security_events"

	// TableNotificationTemplates is the notification template table
	TableNotificationTemplates = "notification_templates"

	// TableNotificationRules is the notification rule table
	TableNotificationRules = "notification_rules"

	// TableNotificationQueue is the notification delivery queue table
	TableNotificationQueue = "notification_queue"

	// TableNotificationPreferences is the per-user channel opt-out table
	TableNotificationPreferences = "notification_preferences"

	// TableInboxMessages is the in-app inbox table
	TableInboxMessages = "inbox_messages"

	// TableFeatureFlags is the feature flag table
	TableFeatureFlags = "feature_flags"
)

// ================================================================================
// Vault Path Constants
// ================================================================================

const (
	// VaultEmailCredentialsPath holds the transactional email API key
	VaultEmailCredentialsPath = "secret/data/guard/providers/email"

	// VaultSMSCredentialsPath holds the telephony account SID and auth token
	VaultSMSCredentialsPath = "secret/data/guard/providers/sms"
)

// ================================================================================
// Service Configuration Constants
// ================================================================================

const (
	// DefaultServicePort is the default HTTP service port
	DefaultServicePort = 8080

	// DefaultRequestTimeout is the default outbound request timeout
	DefaultRequestTimeout = 10 * time.Second

	// DefaultShutdownTimeout is the graceful shutdown timeout
	DefaultShutdownTimeout = 30 * time.Second
)

// ================================================================================
// Logging Constants
// ================================================================================

// LogLevel represents the severity level of log messages.
type LogLevel string

const (
	// LogLevelDebug is the most verbose logging level
	LogLevelDebug LogLevel = "debug"

	// LogLevelInfo is the standard informational logging level
	LogLevelInfo LogLevel = "info"

	// LogLevelWarn indicates potential issues
	LogLevelWarn LogLevel = "warn"

	// LogLevelError indicates errors that need attention
	LogLevelError LogLevel = "error"
)

// ================================================================================
// Context Keys
// ================================================================================

// ContextKey represents keys used in context.Context.
type ContextKey string

const (
	// ContextKeyRequestID is the key for request ID in context
	ContextKeyRequestID ContextKey = "request_id"

	// ContextKeyClientIP is the key for client IP address in context
	ContextKeyClientIP ContextKey = "client_ip"

	// ContextKeyUserID is the key for the authenticated user ID in context
	ContextKeyUserID ContextKey = "user_id"

	// ContextKeyUserAgent is the key for HTTP User-Agent in context
	ContextKeyUserAgent ContextKey = "user_agent"
)
