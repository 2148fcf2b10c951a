package couriers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ooprato/ooprato-backend/pkg/db/models"
	"github.com/ooprato/ooprato-backend/pkg/enums"
)

// OrderSummary is the courier-facing view of an order.
type OrderSummary struct {
	ID                 uuid.UUID             `json:"id"`
	OrderNumber        int64                 `json:"order_number"`
	Status             enums.OrderStatus     `json:"status"`
	Mode               enums.FulfillmentMode `json:"mode"`
	CustomerName       string                `json:"customer_name"`
	Total              decimal.Decimal       `json:"total"`
	DeliveryFee        decimal.Decimal       `json:"delivery_fee"`
	PaymentMethod      enums.PaymentMethod   `json:"payment_method"`
	CourierID          *uuid.UUID            `json:"courier_id,omitempty"`
	DeliveryDistanceKm *decimal.Decimal      `json:"delivery_distance_km,omitempty"`
	EstimatedReadyAt   *time.Time            `json:"estimated_ready_at,omitempty"`
	CreatedAt          time.Time             `json:"created_at"`
}

// SetAvailabilityInput changes a courier's own availability.
type SetAvailabilityInput struct {
	TenantID  uuid.UUID
	CourierID uuid.UUID
	Status    enums.CourierStatus
	ActorID   *uuid.UUID
}

func summarize(orders []models.Order) []OrderSummary {
	out := make([]OrderSummary, 0, len(orders))
	for _, o := range orders {
		out = append(out, OrderSummary{
			ID:                 o.ID,
			OrderNumber:        o.OrderNumber,
			Status:             o.Status,
			Mode:               o.Mode,
			CustomerName:       o.CustomerName,
			Total:              o.Total,
			DeliveryFee:        o.DeliveryFee,
			PaymentMethod:      o.PaymentMethod,
			CourierID:          o.CourierID,
			DeliveryDistanceKm: o.DeliveryDistanceKm,
			EstimatedReadyAt:   o.EstimatedReadyAt,
			CreatedAt:          o.CreatedAt,
		})
	}
	return out
}
