package models

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is one onboarded restaurant. WhatsAppAutoMessages is tri-state:
// NULL (never configured) still sends, only an explicit false suppresses
// automatic messages.
type Tenant struct {
	ID                   uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name                 string    `gorm:"column:name;not null"`
	WhatsAppInstance     *string   `gorm:"column:whatsapp_instance"`
	WhatsAppAutoMessages *bool     `gorm:"column:whatsapp_auto_messages"`
	CreatedAt            time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
