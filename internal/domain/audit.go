package domain

import "time"

// AuditLog records an analyst action performed through the dashboard
type AuditLog struct {
	ID        int64                  `db:"id" json:"id"`
	Analyst   string                 `db:"analyst" json:"analyst"`
	Action    string                 `db:"action" json:"action"`
	Category  string                 `db:"category" json:"category"`
	Details   map[string]interface{} `db:"details" json:"details"`
	IP        string                 `db:"ip" json:"ip,omitempty"`
	UserAgent string                 `db:"user_agent" json:"user_agent,omitempty"`
	CreatedAt time.Time              `db:"created_at" json:"created_at"`
}

// Audit action categories
const (
	AuditCategoryAuth         = "auth"
	AuditCategoryTransactions = "transactions"
)

// Audit actions
const (
	AuditActionLogin  = "login"
	AuditActionLogout = "logout"

	AuditActionClearAll     = "clear_all"
	AuditActionClearFailed  = "clear_failed"
	AuditActionUpload       = "upload"
	AuditActionUploadFailed = "upload_failed"
)
