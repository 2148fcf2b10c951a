package orders

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ooprato/ooprato-backend/internal/notifications"
	"github.com/ooprato/ooprato-backend/pkg/db/models"
	"github.com/ooprato/ooprato-backend/pkg/enums"
)

// PlaceInput carries the checkout snapshot for a new order.
type PlaceInput struct {
	TenantID           uuid.UUID
	ActorID            *uuid.UUID
	CustomerID         *uuid.UUID
	CustomerName       string
	CustomerPhone      *string
	Mode               enums.FulfillmentMode
	Total              decimal.Decimal
	DeliveryFee        decimal.Decimal
	PaymentStatus      enums.PaymentStatus
	PaymentMethod      enums.PaymentMethod
	LoyaltyPointsUsed  int
	PreparationMinutes *int
	DeliveryDistanceKm *decimal.Decimal
}

// TransitionInput asks to move an order to Target. ExpectedVersion, when
// set, must match the stored version.
type TransitionInput struct {
	TenantID        uuid.UUID
	OrderID         uuid.UUID
	Target          enums.OrderStatus
	ActorID         *uuid.UUID
	Reason          string
	ExpectedVersion *int
}

// AssignCourierInput attaches a courier to a ready delivery order.
type AssignCourierInput struct {
	TenantID  uuid.UUID
	OrderID   uuid.UUID
	CourierID uuid.UUID
	ActorID   *uuid.UUID
}

// RejectCourierInput detaches the current courier.
type RejectCourierInput struct {
	TenantID uuid.UUID
	OrderID  uuid.UUID
	ActorID  *uuid.UUID
	Reason   string
}

// ListParams filters the tenant's order list.
type ListParams struct {
	TenantID uuid.UUID
	Status   *enums.OrderStatus
	Limit    int
	Cursor   string
}

// OrderList is one page of orders.
type OrderList struct {
	Orders     []models.Order `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// Result describes the outcome of a state machine call. Applied is false for
// idempotent no-ops. Effects lists every side effect that ran, including the
// logged failures that did not block the transition.
type Result struct {
	Order        models.Order
	From         enums.OrderStatus
	Applied      bool
	Effects      []EffectOutcome
	Notification *notifications.Report
}

// Failed returns the effects that failed under the Logged policy.
func (r Result) Failed() []EffectOutcome {
	var failed []EffectOutcome
	for _, outcome := range r.Effects {
		if outcome.Err != nil {
			failed = append(failed, outcome)
		}
	}
	return failed
}
