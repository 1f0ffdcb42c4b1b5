package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/wavecard/guard/pkg/constants"
)

// RateLimitRule configures a request quota for an endpoint/method pattern.
// Rules are created by administrators and read on every evaluated request.
type RateLimitRule struct {
	ID              uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	EndpointPattern string    `gorm:"type:varchar(255);not null;index:idx_rl_rules_pattern" json:"endpoint_pattern"`
	Method          string    `gorm:"type:varchar(16);not null;default:'*'" json:"method"`
	MaxRequests     int       `gorm:"not null" json:"max_requests"`
	WindowMs        int64     `gorm:"not null" json:"window_ms"`
	Message         string    `gorm:"type:varchar(512)" json:"message,omitempty"`
	StatusCode      int       `gorm:"default:429" json:"status_code"`
	Enabled         bool      `gorm:"not null;default:true;index:idx_rl_rules_enabled" json:"enabled"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the database table name.
func (RateLimitRule) TableName() string {
	return constants.TableRateLimitRules
}

// Normalize fills defaults for fields an administrator may omit.
func (r *RateLimitRule) Normalize() {
	if r.Method == "" {
		r.Method = constants.MatchAny
	}
	if r.MaxRequests <= 0 {
		r.MaxRequests = constants.DefaultMaxRequests
	}
	if r.WindowMs <= 0 {
		r.WindowMs = constants.DefaultRateLimitWindow.Milliseconds()
	}
	if r.StatusCode == 0 {
		r.StatusCode = constants.DefaultRateLimitStatusCode
	}
	if r.Message == "" {
		r.Message = constants.DefaultRateLimitMessage
	}
}

// Window returns the rule's window as a duration.
func (r *RateLimitRule) Window() time.Duration {
	return time.Duration(r.WindowMs) * time.Millisecond
}

// Matches reports whether the rule applies to the given endpoint and method.
// Patterns match exactly, via the "*" wildcard, or via a simple *-glob.
func (r *RateLimitRule) Matches(endpoint, method string) bool {
	if r.Method != constants.MatchAny && !strings.EqualFold(r.Method, method) {
		return false
	}
	if r.EndpointPattern == constants.MatchAny || r.EndpointPattern == endpoint {
		return true
	}
	if strings.Contains(r.EndpointPattern, constants.MatchAny) {
		re, err := globToRegexp(r.EndpointPattern)
		if err != nil {
			return false
		}
		return re.MatchString(endpoint)
	}
	return false
}

// globToRegexp converts a *-glob pattern into an anchored regexp.
func globToRegexp(pattern string) (*regexp.Regexp, error) {
	escaped := regexp.QuoteMeta(pattern)
	escaped = strings.ReplaceAll(escaped, `\*`, ".*")
	return regexp.Compile("^" + escaped + "$")
}

// BuildRateLimitKey derives the counter key for a rule match. The key binds
// the matched pattern and method to the caller identity so each caller gets
// an independent window.
func BuildRateLimitKey(pattern, method, ip, userID string) string {
	key := fmt.Sprintf("%s:%s:%s", pattern, method, ip)
	if userID != "" {
		key = key + ":" + userID
	}
	return key
}

// RateLimitAttempt is one durable record of an evaluated request.
// Append-only; garbage-collected by age.
type RateLimitAttempt struct {
	ID        int64     `json:"id"`
	Key       string    `json:"key"`
	IPAddress string    `json:"ip_address"`
	UserID    string    `json:"user_id,omitempty"`
	Endpoint  string    `json:"endpoint"`
	Method    string    `json:"method"`
	Blocked   bool      `json:"blocked"`
	CreatedAt time.Time `json:"created_at"`
}

// Decision is the outcome of a rate limit evaluation.
type Decision struct {
	Allowed    bool   `json:"allowed"`
	Message    string `json:"message,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
	// RuleID identifies the denying rule when Allowed is false.
	RuleID uint `json:"rule_id,omitempty"`
	// Remaining is the number of requests left in the current window for the
	// most constrained matching rule. Negative when unknown.
	Remaining int `json:"remaining"`
	// RetryAfter is how long until the denying rule's window resets.
	RetryAfter time.Duration `json:"retry_after,omitempty"`
}

// Allow builds an allowing decision.
func Allow(remaining int) Decision {
	return Decision{Allowed: true, Remaining: remaining}
}

// Deny builds a denying decision from the rule that tripped.
func Deny(rule *RateLimitRule, retryAfter time.Duration) Decision {
	return Decision{
		Allowed:    false,
		Message:    rule.Message,
		StatusCode: rule.StatusCode,
		RuleID:     rule.ID,
		RetryAfter: retryAfter,
	}
}
