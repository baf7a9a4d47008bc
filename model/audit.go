package model

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog records privileged actions such as console commands.
type AuditLog struct {
	UUIDKey
	TraceID    string         `gorm:"index:idx_audit_trace;size:36;not null" json:"traceId"`
	UserID     *string        `gorm:"index:idx_audit_user;size:36" json:"userId"`
	Action     string         `gorm:"size:64;not null" json:"action"`
	Target     string         `gorm:"size:255" json:"target"`
	Request    datatypes.JSON `json:"request"`
	Response   datatypes.JSON `json:"response"`
	Error      string         `gorm:"type:text" json:"error"`
	IP         string         `gorm:"size:45" json:"ip"`
	DurationMs int            `json:"durationMs"`
	CreatedAt  time.Time      `gorm:"index:idx_audit_created;autoCreateTime:milli" json:"createdAt"`
}
