package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ooprato/ooprato-backend/pkg/enums"
)

// Customer carries the cached loyalty balance. PointsBalance always equals
// the sum of the customer's loyalty_points_history rows.
type Customer struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID       uuid.UUID         `gorm:"column:tenant_id;type:uuid;not null"`
	Name           string            `gorm:"column:name;not null"`
	Phone          *string           `gorm:"column:phone"`
	PointsBalance  int               `gorm:"column:points_balance;not null;default:0"`
	LifetimePoints int               `gorm:"column:lifetime_points;not null;default:0"`
	Tier           enums.LoyaltyTier `gorm:"column:tier;type:loyalty_tier;not null;default:bronze"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// CustomerAddress is a saved delivery address.
type CustomerAddress struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID   uuid.UUID `gorm:"column:tenant_id;type:uuid;not null"`
	CustomerID uuid.UUID `gorm:"column:customer_id;type:uuid;not null"`
	Label      string    `gorm:"column:label;not null"`
	Street     string    `gorm:"column:street;not null"`
	Phone      *string   `gorm:"column:phone"`
	IsDefault  bool      `gorm:"column:is_default;not null;default:false"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
