package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/wavecard/guard/pkg/constants"
)

// SecurityEvent is an append-only audit record of a classified signal.
type SecurityEvent struct {
	ID        string                      `gorm:"type:uuid;primaryKey" json:"id"`
	EventType constants.SecurityEventType `gorm:"type:varchar(64);not null;index:idx_sec_events_type" json:"event_type"`
	Severity  constants.Severity          `gorm:"type:varchar(16);not null;index:idx_sec_events_severity" json:"severity"`
	IPAddress string                      `gorm:"type:varchar(64);not null;index:idx_sec_events_ip" json:"ip_address"`
	UserID    string                      `gorm:"type:varchar(128);index:idx_sec_events_user" json:"user_id,omitempty"`
	UserAgent string                      `gorm:"type:varchar(512)" json:"user_agent,omitempty"`
	Details   json.RawMessage             `gorm:"type:jsonb" json:"details,omitempty"`
	Blocked   bool                        `gorm:"not null;default:false" json:"blocked"`
	CreatedAt time.Time                   `gorm:"autoCreateTime;index:idx_sec_events_created" json:"created_at"`
}

// TableName specifies the database table name.
func (SecurityEvent) TableName() string {
	return constants.TableSecurityEvents
}

// NewSecurityEvent creates a security event with a generated ID.
func NewSecurityEvent(eventType constants.SecurityEventType, severity constants.Severity, ip string) *SecurityEvent {
	return &SecurityEvent{
		ID:        uuid.New().String(),
		EventType: eventType,
		Severity:  severity,
		IPAddress: ip,
		CreatedAt: time.Now(),
	}
}

// WithUser attaches the acting user identity.
func (e *SecurityEvent) WithUser(userID string) *SecurityEvent {
	e.UserID = userID
	return e
}

// WithUserAgent attaches the caller's User-Agent.
func (e *SecurityEvent) WithUserAgent(ua string) *SecurityEvent {
	e.UserAgent = ua
	return e
}

// WithDetails attaches free-form metadata, marshaled to JSON.
func (e *SecurityEvent) WithDetails(details interface{}) *SecurityEvent {
	if data, err := json.Marshal(details); err == nil {
		e.Details = data
	}
	return e
}

// MarkBlocked records that the source was blocked as a result of this event.
func (e *SecurityEvent) MarkBlocked() *SecurityEvent {
	e.Blocked = true
	return e
}

// PatternFlags is the set of boolean signals evaluated by the classifier.
type PatternFlags struct {
	SQLInjection  bool `json:"sql_injection"`
	XSS           bool `json:"xss"`
	BruteForce    bool `json:"brute_force"`
	RapidRequests bool `json:"rapid_requests"`
}

// Any reports whether at least one pattern was detected.
func (f PatternFlags) Any() bool {
	return f.SQLInjection || f.XSS || f.BruteForce || f.RapidRequests
}

// ClassificationResult is the classifier's decision for one inspection.
type ClassificationResult struct {
	Blocked bool   `json:"blocked"`
	Reason  string `json:"reason,omitempty"`
	// EventIDs are the persisted audit records, one per detected pattern.
	EventIDs []string `json:"event_ids,omitempty"`
}
