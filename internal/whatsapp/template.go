package whatsapp

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ooprato/ooprato-backend/pkg/db/models"
	"github.com/ooprato/ooprato-backend/pkg/enums"
)

// Template keys per order event.
const (
	TemplateOrderConfirmed      = "order_confirmed"
	TemplateOrderReady          = "order_ready"
	TemplateOrderOutForDelivery = "order_out_for_delivery"
	TemplateOrderDelivered      = "order_delivered"
	TemplateOrderCancelled      = "order_cancelled"
)

// TemplateKeyFor maps a notification event to its template key.
func TemplateKeyFor(event enums.NotificationEvent) (string, bool) {
	switch event {
	case enums.NotificationEventConfirmed:
		return TemplateOrderConfirmed, true
	case enums.NotificationEventReady:
		return TemplateOrderReady, true
	case enums.NotificationEventOutForDelivery:
		return TemplateOrderOutForDelivery, true
	case enums.NotificationEventDelivered:
		return TemplateOrderDelivered, true
	case enums.NotificationEventCancelled:
		return TemplateOrderCancelled, true
	default:
		return "", false
	}
}

// Render substitutes {{name}} placeholders. Unknown placeholders are kept.
func Render(body string, vars map[string]string) string {
	if len(vars) == 0 {
		return body
	}
	pairs := make([]string, 0, len(vars)*2)
	for name, value := range vars {
		pairs = append(pairs, "{{"+name+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(body)
}

// OrderVariables builds the placeholder values for an order message.
func OrderVariables(tenant models.Tenant, order models.Order) map[string]string {
	vars := map[string]string{
		"restaurant_name": tenant.Name,
		"customer_name":   order.CustomerName,
		"order_number":    strconv.FormatInt(order.OrderNumber, 10),
		"order_total":     formatMoney(order.Total),
		"delivery_fee":    formatMoney(order.DeliveryFee),
		"order_status":    string(order.Status),
	}
	if order.CancellationReason != nil {
		vars["cancellation_reason"] = *order.CancellationReason
	}
	if order.EstimatedReadyAt != nil {
		vars["estimated_ready_at"] = order.EstimatedReadyAt.Format("15:04")
	}
	if order.EstimatedDeliveryAt != nil {
		vars["estimated_delivery_at"] = order.EstimatedDeliveryAt.Format("15:04")
	}
	return vars
}

func formatMoney(value decimal.Decimal) string {
	return "R$ " + strings.Replace(value.StringFixed(2), ".", ",", 1)
}
