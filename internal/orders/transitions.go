package orders

import (
	"github.com/ooprato/ooprato-backend/pkg/db/models"
	"github.com/ooprato/ooprato-backend/pkg/enums"
	pkgerrors "github.com/ooprato/ooprato-backend/pkg/errors"
)

// transitions lists the targets reachable through Transition. waiting_courier
// is entered only through AssignCourier and RejectCourierAssignment.
var transitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusNew:             {enums.OrderStatusConfirmed, enums.OrderStatusCancelled},
	enums.OrderStatusConfirmed:       {enums.OrderStatusPreparing, enums.OrderStatusCancelled},
	enums.OrderStatusPreparing:       {enums.OrderStatusReady, enums.OrderStatusCancelled},
	enums.OrderStatusReady:           {enums.OrderStatusDelivered, enums.OrderStatusCancelled},
	enums.OrderStatusWaitingCourier:  {enums.OrderStatusCourierAccepted, enums.OrderStatusCancelled},
	enums.OrderStatusCourierAccepted: {enums.OrderStatusOutForDelivery, enums.OrderStatusCancelled},
	enums.OrderStatusOutForDelivery:  {enums.OrderStatusDelivered, enums.OrderStatusCancelled},
}

// CanTransition reports whether order may move to target given its mode.
func CanTransition(order models.Order, target enums.OrderStatus) bool {
	allowed := false
	for _, candidate := range transitions[order.Status] {
		if candidate == target {
			allowed = true
			break
		}
	}
	if !allowed {
		return false
	}
	switch {
	case order.Status == enums.OrderStatusReady && target == enums.OrderStatusDelivered:
		// Delivery orders finish through the courier chain.
		return !order.IsDelivery()
	case target == enums.OrderStatusCourierAccepted:
		return order.IsDelivery() && order.CourierID != nil
	}
	return true
}

func checkTransition(order models.Order, target enums.OrderStatus) error {
	if CanTransition(order, target) {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeInvalidTransition, "order status transition not allowed").
		WithDetails(map[string]any{
			"from": order.Status,
			"to":   target,
			"mode": order.Mode,
		})
}
