package model

import "time"

// AuditSeverity classifies audit entries for later filtering.
type AuditSeverity string

const (
	AuditInfo     AuditSeverity = "info"
	AuditWarning  AuditSeverity = "warning"
	AuditCritical AuditSeverity = "critical"
)

// Valid reports whether the severity value is supported.
func (s AuditSeverity) Valid() bool {
	switch s {
	case AuditInfo, AuditWarning, AuditCritical:
		return true
	default:
		return false
	}
}

// AuditEntry records a security-relevant action. Writes are fire-and-forget:
// a failed audit write is logged but never fails the action it describes.
type AuditEntry struct {
	ID        string            `json:"id"         db:"id"`
	Actor     string            `json:"actor"      db:"actor"`
	Entity    string            `json:"entity"     db:"entity"`
	EntityID  string            `json:"entity_id"  db:"entity_id"`
	Action    string            `json:"action"     db:"action"`
	Details   map[string]string `json:"details"    db:"details"`
	Reason    string            `json:"reason"     db:"reason"`
	Severity  AuditSeverity     `json:"severity"   db:"severity"`
	CreatedAt time.Time         `json:"created_at" db:"created_at"`
}
