package models

import "time"

// Audit actions recorded for billing mutations.
const (
	AuditActionAttendanceUpsert = "ATTENDANCE_UPSERT"
	AuditActionCashSettled      = "CASH_SETTLED"
	AuditActionInvoicesGenerate = "INVOICES_GENERATE"
	AuditActionInvoiceStatus    = "INVOICE_STATUS_UPDATE"
	AuditActionStaffCheckIn     = "STAFF_CHECK_IN"
)

// AuditEntry is one successful mutating request.
type AuditEntry struct {
	ID         string    `json:"id"`
	ActorID    string    `json:"actorId,omitempty"`
	Role       UserRole  `json:"role,omitempty"`
	Action     string    `json:"action"`
	Resource   string    `json:"resource"`
	ResourceID string    `json:"resourceId,omitempty"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	Status     int       `json:"status"`
	LatencyMs  int64     `json:"latencyMs"`
	RequestID  string    `json:"requestId,omitempty"`
	IPAddress  string    `json:"ipAddress"`
	UserAgent  string    `json:"userAgent"`
	CreatedAt  time.Time `json:"createdAt"`
}
