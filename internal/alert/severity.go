package alert

import "strings"

// Severity is an ordinal urgency classification. It affects presentation
// only; dispatch never branches on it.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// DefaultSeverity is substituted for unrecognized input. Unknown severities
// are accepted, never rejected.
const DefaultSeverity = SeverityMedium

// ParseSeverity normalizes raw severity input. The second return value is
// false when the input was unrecognized and the default was substituted, so
// callers can record the substitution.
func ParseSeverity(raw string) (Severity, bool) {
	switch Severity(strings.ToLower(strings.TrimSpace(raw))) {
	case SeverityCritical:
		return SeverityCritical, true
	case SeverityHigh:
		return SeverityHigh, true
	case SeverityMedium:
		return SeverityMedium, true
	case SeverityLow:
		return SeverityLow, true
	default:
		return DefaultSeverity, false
	}
}

// Marker returns the presentation marker for a severity. Values outside the
// known set map to the generic announcement marker.
func (s Severity) Marker() string {
	switch s {
	case SeverityCritical:
		return "🚨"
	case SeverityHigh:
		return "⚠️"
	case SeverityMedium:
		return "🔶"
	case SeverityLow:
		return "💡"
	default:
		return "📢"
	}
}
