package enums

import "fmt"

// OrderStatus maps to the order_status enum in Postgres.
type OrderStatus string

const (
	OrderStatusNew             OrderStatus = "new"
	OrderStatusConfirmed       OrderStatus = "confirmed"
	OrderStatusPreparing       OrderStatus = "preparing"
	OrderStatusReady           OrderStatus = "ready"
	OrderStatusWaitingCourier  OrderStatus = "waiting_courier"
	OrderStatusCourierAccepted OrderStatus = "courier_accepted"
	OrderStatusOutForDelivery  OrderStatus = "out_for_delivery"
	OrderStatusDelivered       OrderStatus = "delivered"
	OrderStatusCancelled       OrderStatus = "cancelled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusNew,
	OrderStatusConfirmed,
	OrderStatusPreparing,
	OrderStatusReady,
	OrderStatusWaitingCourier,
	OrderStatusCourierAccepted,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// HoldsCourier reports whether an order in this status keeps a courier busy.
func (s OrderStatus) HoldsCourier() bool {
	return s == OrderStatusWaitingCourier || s == OrderStatusCourierAccepted || s == OrderStatusOutForDelivery
}

// CourierActiveStatuses lists the statuses in which a courier is attached to an order.
func CourierActiveStatuses() []OrderStatus {
	return []OrderStatus{OrderStatusWaitingCourier, OrderStatusCourierAccepted, OrderStatusOutForDelivery}
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
