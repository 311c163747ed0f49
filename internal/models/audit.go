package models

import "github.com/google/uuid"

// Security-relevant actions recorded in the audit trail.
const (
	AuditLoginSuccess = "LOGIN_SUCCESS"
	AuditLoginFailed  = "LOGIN_FAILED"
	AuditMFAEnabled   = "MFA_ENABLED"
	AuditMFADisabled  = "MFA_DISABLED"
	AuditMFAFailed    = "MFA_VERIFICATION_FAILED"
	AuditRoleChanged  = "ROLE_CHANGED"
	AuditUserDeleted  = "USER_DELETED"
)

// AuditLog is one entry in the security audit trail. UserID is nil for
// actions where no account could be resolved (failed logins on unknown
// emails).
type AuditLog struct {
	BaseModel
	UserID    *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	User      *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Action    string     `gorm:"size:64;index" json:"action"`
	IPAddress string     `gorm:"size:64" json:"ip_address"`
	Details   string     `gorm:"size:512" json:"details"`
}
