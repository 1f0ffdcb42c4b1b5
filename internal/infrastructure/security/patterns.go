// Package security provides payload inspection helpers that feed the event
// classifier's pattern flags.
package security

import (
	"regexp"

	"github.com/wavecard/guard/internal/domain/models"
)

var sqlInjectionPattern = regexp.MustCompile(`(?i)(` +
	`['"]\s*OR\s*['"]?\s*['"]?\d+['"]?\s*=\s*['"]?\d+['"]?\s*['"]?|` +
	`['"]\s*OR\s*['"][^'"]*['"]\s*=\s*['"][^'"]*['"]\s*['"]?|` +
	`['"]\s*OR\s*\d+\s*=\s*\d+\s*['"]?|` +
	`UNION\s+(?:ALL\s+)?SELECT\s+(?:\*|[a-z_][a-z0-9_]*(?:\s*,\s*[a-z_][a-z0-9_]*)*)\s+FROM|` +
	`(?:SLEEP|BENCHMARK|WAITFOR\s+DELAY)\s*\(\s*\d+\s*\)|` +
	`['";]\s*;\s*(?:INSERT|UPDATE|DELETE|DROP|ALTER|CREATE|TRUNCATE)\s+(?:INTO|FROM|TABLE|DATABASE|SCHEMA|VIEW|INDEX)|` +
	`(?:['";]|\s)\s*(?:\/\*[^*]*\*\/|\-\-[^\r\n]*|#[^\r\n]*)|` +
	`\b(?:DROP|DELETE|TRUNCATE)\s+(?:TABLE|DATABASE|SCHEMA)\s+\w+` +
	`)`)

var xssPattern = regexp.MustCompile(`(?i)(` +
	`<[^>]*script.*?>|` +
	`\bon\w+\s*=|` +
	`javascript:|` +
	`alert\s*\(|confirm\s*\(|prompt\s*\(|eval\s*\(|` +
	`data:text/javascript|` +
	`expression\s*\(|` +
	`<[^>]*iframe|<[^>]*object|<[^>]*embed|<[^>]*applet` +
	`)`)

// ContainsSQLInjection reports whether the payload looks like SQL injection.
func ContainsSQLInjection(payload string) bool {
	return sqlInjectionPattern.MatchString(payload)
}

// ContainsXSS reports whether the payload looks like a cross-site scripting
// attempt.
func ContainsXSS(payload string) bool {
	return xssPattern.MatchString(payload)
}

// InspectPayload evaluates one request payload and returns the detected
// pattern flags. Brute-force and rapid-request signals come from request
// frequency, not payload content, so callers set those separately.
func InspectPayload(payload string) models.PatternFlags {
	return models.PatternFlags{
		SQLInjection: ContainsSQLInjection(payload),
		XSS:          ContainsXSS(payload),
	}
}
