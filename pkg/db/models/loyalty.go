package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ooprato/ooprato-backend/pkg/enums"
)

// LoyaltyPointsHistory is an append-only ledger row. Points is signed.
type LoyaltyPointsHistory struct {
	ID         uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID   uuid.UUID              `gorm:"column:tenant_id;type:uuid;not null"`
	CustomerID uuid.UUID              `gorm:"column:customer_id;type:uuid;not null"`
	Points     int                    `gorm:"column:points;not null"`
	Type       enums.LoyaltyEntryType `gorm:"column:type;type:loyalty_entry_type;not null"`
	Reason     string                 `gorm:"column:reason;not null"`
	OrderID    *uuid.UUID             `gorm:"column:order_id;type:uuid"`
	CreatedAt  time.Time              `gorm:"column:created_at;autoCreateTime"`
}

func (LoyaltyPointsHistory) TableName() string {
	return "loyalty_points_history"
}

// Referral links a referred customer to the customer who invited them.
type Referral struct {
	ID                 uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID           uuid.UUID            `gorm:"column:tenant_id;type:uuid;not null"`
	ReferrerCustomerID uuid.UUID            `gorm:"column:referrer_customer_id;type:uuid;not null"`
	ReferredCustomerID uuid.UUID            `gorm:"column:referred_customer_id;type:uuid;not null"`
	Status             enums.ReferralStatus `gorm:"column:status;type:referral_status;not null"`
	ExpiresAt          *time.Time           `gorm:"column:expires_at"`
	CompletedAt        *time.Time           `gorm:"column:completed_at"`
	OrderID            *uuid.UUID           `gorm:"column:order_id;type:uuid"`
	CreatedAt          time.Time            `gorm:"column:created_at;autoCreateTime"`
}
