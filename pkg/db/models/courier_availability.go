package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ooprato/ooprato-backend/pkg/enums"
)

// CourierAvailability holds exactly one row per courier. IsOnline is derived
// from Status on every write.
type CourierAvailability struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID       uuid.UUID           `gorm:"column:tenant_id;type:uuid;not null"`
	CourierID      uuid.UUID           `gorm:"column:courier_id;type:uuid;not null;uniqueIndex"`
	Status         enums.CourierStatus `gorm:"column:status;type:courier_status;not null"`
	IsOnline       bool                `gorm:"column:is_online;not null;default:false"`
	LastActivityAt time.Time           `gorm:"column:last_activity_at;not null"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (CourierAvailability) TableName() string {
	return "courier_availability"
}
