// Package queue defines message payloads exchanged over the message broker
// and the consumer that records them.
package queue

// AuditQueueName is the default durable queue for scan audit events.
const AuditQueueName = "scan.audit"

// Audit actions.
const (
	ActionVerified = "verified"
	ActionFlagged  = "flagged"
	ActionDeleted  = "deleted"
)

// ScanAuditEvent is published after an admin changes a scan. It carries
// enough context for the audit log without querying the primary database.
type ScanAuditEvent struct {
	EventID         string `json:"event_id"`
	Action          string `json:"action"`
	AnalysisID      uint64 `json:"analysis_id"`
	AdminID         uint64 `json:"admin_id"`
	Recommendations int64  `json:"recommendations"`
	Reason          string `json:"reason,omitempty"`
	OccurredAt      string `json:"occurred_at"`
}
