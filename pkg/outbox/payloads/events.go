package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ooprato/ooprato-backend/pkg/enums"
)

// OrderCreatedEvent is emitted when an order is placed.
type OrderCreatedEvent struct {
	OrderID           uuid.UUID             `json:"order_id"`
	TenantID          uuid.UUID             `json:"tenant_id"`
	OrderNumber       int64                 `json:"order_number"`
	CustomerID        *uuid.UUID            `json:"customer_id,omitempty"`
	Mode              enums.FulfillmentMode `json:"mode"`
	Total             decimal.Decimal       `json:"total"`
	DeliveryFee       decimal.Decimal       `json:"delivery_fee"`
	LoyaltyPointsUsed int                   `json:"loyalty_points_used"`
	CreatedAt         time.Time             `json:"created_at"`
}

// OrderStatusChangedEvent is emitted for every applied transition.
type OrderStatusChangedEvent struct {
	OrderID     uuid.UUID         `json:"order_id"`
	TenantID    uuid.UUID         `json:"tenant_id"`
	OrderNumber int64             `json:"order_number"`
	From        enums.OrderStatus `json:"from"`
	To          enums.OrderStatus `json:"to"`
	CourierID   *uuid.UUID        `json:"courier_id,omitempty"`
	ChangedAt   time.Time         `json:"changed_at"`
}

// OrderCancelledEvent feeds the refund processor. RefundRequired is true
// when the order had already been paid.
type OrderCancelledEvent struct {
	OrderID        uuid.UUID           `json:"order_id"`
	TenantID       uuid.UUID           `json:"tenant_id"`
	OrderNumber    int64               `json:"order_number"`
	PaymentStatus  enums.PaymentStatus `json:"payment_status"`
	PaymentMethod  enums.PaymentMethod `json:"payment_method"`
	RefundRequired bool                `json:"refund_required"`
	Total          decimal.Decimal     `json:"total"`
	DeliveryFee    decimal.Decimal     `json:"delivery_fee"`
	Reason         string              `json:"reason,omitempty"`
	CancelledAt    time.Time           `json:"cancelled_at"`
}
