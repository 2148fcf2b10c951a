package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ooprato/ooprato-backend/pkg/enums"
)

// Notification stores in-app notification payloads for a single recipient
// (a customer or a staff user such as a courier).
type Notification struct {
	ID          uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID    uuid.UUID              `gorm:"column:tenant_id;type:uuid;not null"`
	RecipientID uuid.UUID              `gorm:"column:recipient_id;type:uuid;not null"`
	OrderID     *uuid.UUID             `gorm:"column:order_id;type:uuid"`
	Type        enums.NotificationType `gorm:"column:type;type:notification_type;not null"`
	Title       string                 `gorm:"column:title;not null"`
	Message     string                 `gorm:"column:message;not null"`
	ReadAt      *time.Time             `gorm:"column:read_at"`
	CreatedAt   time.Time              `gorm:"column:created_at;autoCreateTime"`
}
