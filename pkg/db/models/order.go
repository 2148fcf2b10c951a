package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ooprato/ooprato-backend/pkg/enums"
)

// Order is the central aggregate. Status changes only through the order
// state machine; rows are never deleted.
type Order struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID    uuid.UUID  `gorm:"column:tenant_id;type:uuid;not null"`
	OrderNumber int64      `gorm:"column:order_number;not null"`
	CustomerID  *uuid.UUID `gorm:"column:customer_id;type:uuid"`

	CustomerName  string  `gorm:"column:customer_name;not null"`
	CustomerPhone *string `gorm:"column:customer_phone"`

	Status enums.OrderStatus     `gorm:"column:status;type:order_status;not null"`
	Mode   enums.FulfillmentMode `gorm:"column:mode;type:fulfillment_mode;not null"`

	Total         decimal.Decimal     `gorm:"column:total;type:numeric(12,2);not null"`
	DeliveryFee   decimal.Decimal     `gorm:"column:delivery_fee;type:numeric(12,2);not null"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;type:payment_status;not null"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;type:payment_method;not null"`

	LoyaltyPointsUsed   int  `gorm:"column:loyalty_points_used;not null;default:0"`
	LoyaltyPointsEarned *int `gorm:"column:loyalty_points_earned"`

	CourierID         *uuid.UUID `gorm:"column:courier_id;type:uuid"`
	CourierAssignedAt *time.Time `gorm:"column:courier_assigned_at"`
	CourierAcceptedAt *time.Time `gorm:"column:motoboy_accepted_at"`
	DeliveryStartedAt *time.Time `gorm:"column:delivery_started_at"`
	DeliveredAt       *time.Time `gorm:"column:delivered_at"`

	CancelledAt        *time.Time `gorm:"column:cancelled_at"`
	CancellationReason *string    `gorm:"column:cancellation_reason"`

	PreparationMinutes  *int             `gorm:"column:preparation_minutes"`
	DeliveryDistanceKm  *decimal.Decimal `gorm:"column:delivery_distance_km;type:numeric(8,2)"`
	EstimatedReadyAt    *time.Time       `gorm:"column:estimated_ready_at"`
	EstimatedDeliveryAt *time.Time       `gorm:"column:estimated_delivery_at"`

	Version   int       `gorm:"column:version;not null;default:1"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// IsDelivery reports whether courier assignment applies.
func (o Order) IsDelivery() bool {
	return o.Mode == enums.FulfillmentDelivery
}
