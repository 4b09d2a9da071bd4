// Package alerting maps zone violations to graded notifications and decides
// when to arm or disarm the auto-escalation timer.
package alerting

import "context"

// Severity grades a notification for the display layer.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityCaution Severity = "caution"
	SeverityDanger  Severity = "danger"
)

// Notification is what the display layer renders. Metadata carries the zone
// reference so the client can deep-link to the map.
type Notification struct {
	Title    string
	Body     string
	Severity Severity
	ZoneID   string
	Kind     string
}

// Sink renders notifications to the user. Fire-and-forget: failures are
// logged by the dispatcher and never propagate.
type Sink interface {
	Show(ctx context.Context, n Notification) error
}
