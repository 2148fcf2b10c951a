package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditLog is append-only. A nil ActorID marks a system action.
type AuditLog struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID    uuid.UUID       `gorm:"column:tenant_id;type:uuid;not null"`
	ActorID     *uuid.UUID      `gorm:"column:actor_id;type:uuid"`
	Action      string          `gorm:"column:action;not null"`
	SubjectType string          `gorm:"column:subject_type;not null"`
	SubjectID   uuid.UUID       `gorm:"column:subject_id;type:uuid;not null"`
	Metadata    json.RawMessage `gorm:"column:metadata;type:jsonb"`
	IPAddress   *string         `gorm:"column:ip_address"`
	UserAgent   *string         `gorm:"column:user_agent"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}
