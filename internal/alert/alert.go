// Package alert holds the broadcast domain types: alert records, severity
// classification, and message rendering.
package alert

import "time"

// Draft is an alert as submitted, before the ledger assigns identity.
// Severity is expected to be normalized already (see ParseSeverity).
type Draft struct {
	Type        string
	Location    string
	Description string
	Severity    Severity
}

// Alert is a ledger row. Rows are append-only and never mutated.
type Alert struct {
	ID          int64
	Type        string
	Location    string
	Description string
	Severity    Severity
	CreatedAt   time.Time
}
