package alert

import (
	"fmt"
	"strings"
)

const renderTimeFormat = "02.01.2006 15:04"

// RenderMessage builds the Markdown body broadcast to every subscriber.
func RenderMessage(a Alert) string {
	m := a.Severity.Marker()

	var b strings.Builder
	fmt.Fprintf(&b, "%s *DRONE HAZARD ALERT* %s\n\n", m, m)
	fmt.Fprintf(&b, "*Type:* %s\n", a.Type)
	fmt.Fprintf(&b, "*Severity:* %s\n", strings.ToUpper(string(a.Severity)))
	fmt.Fprintf(&b, "*Location:* %s\n", a.Location)
	fmt.Fprintf(&b, "*Description:* %s\n\n", a.Description)
	b.WriteString("*Recommendations:*\n")
	b.WriteString("- Proceed to shelter immediately\n")
	b.WriteString("- Warn people around you\n")
	b.WriteString("- Follow instructions from local authorities\n\n")
	fmt.Fprintf(&b, "*Issued:* %s", a.CreatedAt.Format(renderTimeFormat))
	return b.String()
}

// RenderHistoryEntry builds one line block for the recent-alerts listing.
func RenderHistoryEntry(a Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s *%s* (%s)\n", a.Severity.Marker(), a.Type, a.Severity)
	fmt.Fprintf(&b, "📍 %s\n", a.Location)
	fmt.Fprintf(&b, "📝 %s\n", a.Description)
	fmt.Fprintf(&b, "🕒 %s\n", a.CreatedAt.Format(renderTimeFormat))
	return b.String()
}
