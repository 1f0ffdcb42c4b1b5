package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wavecard/guard/pkg/constants"
)

func TestRenderTemplate(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		variables map[string]interface{}
		want      string
	}{
		{
			name:      "simple substitution",
			body:      "Hello {{name}}",
			variables: map[string]interface{}{"name": "Ana"},
			want:      "Hello Ana",
		},
		{
			name:      "missing key renders empty",
			body:      "Hello {{name}}",
			variables: map[string]interface{}{},
			want:      "Hello ",
		},
		{
			name:      "nil variables",
			body:      "Hello {{name}}",
			variables: nil,
			want:      "Hello ",
		},
		{
			name:      "whitespace inside token",
			body:      "Hi {{ name }}, your card {{ card_title }} is live",
			variables: map[string]interface{}{"name": "Bo", "card_title": "Studio"},
			want:      "Hi Bo, your card Studio is live",
		},
		{
			name:      "numeric value",
			body:      "You have {{count}} views",
			variables: map[string]interface{}{"count": 42},
			want:      "You have 42 views",
		},
		{
			name:      "repeated token",
			body:      "{{x}} and {{x}}",
			variables: map[string]interface{}{"x": "again"},
			want:      "again and again",
		},
		{
			name:      "no tokens",
			body:      "plain text",
			variables: map[string]interface{}{"unused": "v"},
			want:      "plain text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderTemplate(tt.body, tt.variables))
		})
	}
}

func TestRenderTemplateIsIdempotent(t *testing.T) {
	vars := map[string]interface{}{"name": "Ana"}
	once := RenderTemplate("Hello {{name}}", vars)
	twice := RenderTemplate(once, vars)
	assert.Equal(t, once, twice)
}

func TestChannelList(t *testing.T) {
	rule := &NotificationRule{Channels: "email, sms ,in_app"}
	assert.Equal(t, []constants.NotificationChannel{
		constants.ChannelEmail,
		constants.ChannelSMS,
		constants.ChannelInApp,
	}, rule.ChannelList())

	empty := &NotificationRule{Channels: ""}
	assert.Empty(t, empty.ChannelList())
}

func TestConditionsMatch(t *testing.T) {
	rule := &NotificationRule{
		Conditions: json.RawMessage(`{"plan": "pro"}`),
	}

	assert.True(t, rule.ConditionsMatch(map[string]interface{}{"plan": "pro"}))
	assert.False(t, rule.ConditionsMatch(map[string]interface{}{"plan": "free"}))
	assert.False(t, rule.ConditionsMatch(map[string]interface{}{}))

	unconditional := &NotificationRule{}
	assert.True(t, unconditional.ConditionsMatch(nil))
}

func TestOptedOut(t *testing.T) {
	prefs := &NotificationPreferences{OptOuts: "sms, push"}
	assert.True(t, prefs.OptedOut(constants.ChannelSMS))
	assert.True(t, prefs.OptedOut(constants.ChannelPush))
	assert.False(t, prefs.OptedOut(constants.ChannelEmail))

	var missing *NotificationPreferences
	assert.False(t, missing.OptedOut(constants.ChannelEmail), "no saved preferences means no opt-outs")
}

func TestQueueEntryExhausted(t *testing.T) {
	entry := &QueueEntry{Attempts: constants.MaxDeliveryAttempts - 1}
	assert.False(t, entry.Exhausted())

	entry.Attempts = constants.MaxDeliveryAttempts
	assert.True(t, entry.Exhausted())
}
