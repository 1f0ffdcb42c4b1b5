package models

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/wavecard/guard/pkg/constants"
)

// NotificationTemplate holds a message body with {{variable}} placeholders.
type NotificationTemplate struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(128);not null;uniqueIndex:idx_templates_name" json:"name"`
	Subject   string    `gorm:"type:varchar(255)" json:"subject,omitempty"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the database table name.
func (NotificationTemplate) TableName() string {
	return constants.TableNotificationTemplates
}

// placeholderPattern matches {{ key }} tokens, with optional inner whitespace.
var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_.]+)\s*\}\}`)

// RenderTemplate substitutes {{key}} tokens with stringified variable values.
// Missing keys render as the empty string. Rendering is total and never fails.
func RenderTemplate(body string, variables map[string]interface{}) string {
	return placeholderPattern.ReplaceAllStringFunc(body, func(token string) string {
		key := placeholderPattern.FindStringSubmatch(token)[1]
		value, ok := variables[key]
		if !ok || value == nil {
			return ""
		}
		return stringify(value)
	})
}

func stringify(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return strings.Trim(string(data), `"`)
	}
}

// NotificationRule binds a trigger event to a template and delivery channels.
type NotificationRule struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	TriggerEvent string `gorm:"type:varchar(128);not null;index:idx_notif_rules_trigger" json:"trigger_event"`
	TemplateID   uint   `gorm:"not null" json:"template_id"`
	// Channels is a comma-separated list of delivery channels.
	Channels string `gorm:"type:varchar(128);not null" json:"channels"`
	// Conditions holds optional equality conditions evaluated against the
	// trigger variables.
	Conditions   json.RawMessage `gorm:"type:jsonb" json:"conditions,omitempty"`
	DelayMinutes int             `gorm:"not null;default:0" json:"delay_minutes"`
	Enabled      bool            `gorm:"not null;default:true;index:idx_notif_rules_enabled" json:"enabled"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the database table name.
func (NotificationRule) TableName() string {
	return constants.TableNotificationRules
}

// ChannelList parses the comma-separated channel list.
func (r *NotificationRule) ChannelList() []constants.NotificationChannel {
	parts := strings.Split(r.Channels, ",")
	channels := make([]constants.NotificationChannel, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		channels = append(channels, constants.NotificationChannel(p))
	}
	return channels
}

// ConditionsMatch evaluates the rule's equality conditions against the
// trigger variables. A rule without conditions always matches. Values are
// compared by their stringified form.
func (r *NotificationRule) ConditionsMatch(variables map[string]interface{}) bool {
	if len(r.Conditions) == 0 {
		return true
	}
	var conditions map[string]interface{}
	if err := json.Unmarshal(r.Conditions, &conditions); err != nil {
		return false
	}
	for key, want := range conditions {
		got, ok := variables[key]
		if !ok {
			return false
		}
		if stringify(got) != stringify(want) {
			return false
		}
	}
	return true
}

// QueueEntry is a rendered, channel-specific message awaiting delivery.
type QueueEntry struct {
	ID           uint                          `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       string                        `gorm:"type:varchar(128);not null;index:idx_queue_user" json:"user_id"`
	Channel      constants.NotificationChannel `gorm:"type:varchar(16);not null" json:"channel"`
	Subject      string                        `gorm:"type:varchar(255)" json:"subject,omitempty"`
	Body         string                        `gorm:"type:text;not null" json:"body"`
	Recipient    string                        `gorm:"type:varchar(255)" json:"recipient,omitempty"`
	TriggerEvent string                        `gorm:"type:varchar(128)" json:"trigger_event,omitempty"`
	Status       constants.QueueStatus         `gorm:"type:varchar(16);not null;default:'pending';index:idx_queue_status_sched,priority:1" json:"status"`
	Attempts     int                           `gorm:"not null;default:0" json:"attempts"`
	ScheduledFor time.Time                     `gorm:"not null;index:idx_queue_status_sched,priority:2" json:"scheduled_for"`
	// ClaimedBy identifies the worker holding the entry while processing.
	ClaimedBy string     `gorm:"type:varchar(64)" json:"claimed_by,omitempty"`
	LastError string     `gorm:"type:varchar(1024)" json:"last_error,omitempty"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the database table name.
func (QueueEntry) TableName() string {
	return constants.TableNotificationQueue
}

// Exhausted reports whether the entry has used all delivery attempts.
func (e *QueueEntry) Exhausted() bool {
	return e.Attempts >= constants.MaxDeliveryAttempts
}

// NotificationPreferences records per-user channel opt-outs.
type NotificationPreferences struct {
	ID     uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID string `gorm:"type:varchar(128);not null;uniqueIndex:idx_prefs_user" json:"user_id"`
	// OptOuts is a comma-separated list of channels the user declined.
	OptOuts   string    `gorm:"type:varchar(128)" json:"opt_outs,omitempty"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the database table name.
func (NotificationPreferences) TableName() string {
	return constants.TableNotificationPreferences
}

// OptedOut reports whether the user declined the given channel.
func (p *NotificationPreferences) OptedOut(channel constants.NotificationChannel) bool {
	if p == nil || p.OptOuts == "" {
		return false
	}
	for _, part := range strings.Split(p.OptOuts, ",") {
		if strings.TrimSpace(part) == string(channel) {
			return true
		}
	}
	return false
}

// InboxMessage is an in-app notification written directly to the user's inbox.
type InboxMessage struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    string    `gorm:"type:varchar(128);not null;index:idx_inbox_user" json:"user_id"`
	Subject   string    `gorm:"type:varchar(255)" json:"subject,omitempty"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	Read      bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_inbox_created" json:"created_at"`
}

// TableName specifies the database table name.
func (InboxMessage) TableName() string {
	return constants.TableInboxMessages
}
