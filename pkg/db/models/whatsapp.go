package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ooprato/ooprato-backend/pkg/enums"
)

// WhatsAppMessageLog records one send attempt.
type WhatsAppMessageLog struct {
	ID           uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID     uuid.UUID           `gorm:"column:tenant_id;type:uuid;not null"`
	OrderID      *uuid.UUID          `gorm:"column:order_id;type:uuid"`
	Phone        string              `gorm:"column:phone;not null"`
	TemplateKey  string              `gorm:"column:template_key;not null"`
	Body         string              `gorm:"column:body;not null"`
	Status       enums.MessageStatus `gorm:"column:status;type:message_status;not null"`
	ErrorMessage *string             `gorm:"column:error_message"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (WhatsAppMessageLog) TableName() string {
	return "whatsapp_message_logs"
}

// MessageTemplate is a WhatsApp body with {{placeholder}} variables. A nil
// TenantID marks the global default.
type MessageTemplate struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID  *uuid.UUID `gorm:"column:tenant_id;type:uuid"`
	Key       string     `gorm:"column:key;not null"`
	Body      string     `gorm:"column:body;not null"`
	IsActive  bool       `gorm:"column:is_active;not null"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
