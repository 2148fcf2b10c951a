package enums

import "fmt"

// NotificationType maps to the notification_type enum in Postgres.
type NotificationType string

const (
	NotificationTypeOrderUpdate     NotificationType = "order_update"
	NotificationTypeDeliveryOffer   NotificationType = "delivery_offer"
	NotificationTypeDeliveryUpdate  NotificationType = "delivery_update"
	NotificationTypeLoyaltyActivity NotificationType = "loyalty_activity"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeOrderUpdate,
	NotificationTypeDeliveryOffer,
	NotificationTypeDeliveryUpdate,
	NotificationTypeLoyaltyActivity,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}

// NotificationEvent is the order event a dispatch describes.
type NotificationEvent string

const (
	NotificationEventConfirmed      NotificationEvent = "confirmed"
	NotificationEventReady          NotificationEvent = "ready"
	NotificationEventOutForDelivery NotificationEvent = "out_for_delivery"
	NotificationEventDelivered      NotificationEvent = "delivered"
	NotificationEventCancelled      NotificationEvent = "cancelled"
)

// NotificationEventForStatus maps an order status to the event customers hear
// about. Statuses without a customer-facing message return false.
func NotificationEventForStatus(status OrderStatus) (NotificationEvent, bool) {
	switch status {
	case OrderStatusConfirmed:
		return NotificationEventConfirmed, true
	case OrderStatusReady:
		return NotificationEventReady, true
	case OrderStatusOutForDelivery:
		return NotificationEventOutForDelivery, true
	case OrderStatusDelivered:
		return NotificationEventDelivered, true
	case OrderStatusCancelled:
		return NotificationEventCancelled, true
	default:
		return "", false
	}
}

// NotificationChannel identifies a dispatch fan-out leg.
type NotificationChannel string

const (
	ChannelCustomerInApp NotificationChannel = "customer_in_app"
	ChannelWhatsApp      NotificationChannel = "whatsapp"
	ChannelCourierInApp  NotificationChannel = "courier_in_app"
)

// MessageStatus tracks a WhatsApp send attempt.
type MessageStatus string

const (
	MessageStatusPending MessageStatus = "pending"
	MessageStatusSent    MessageStatus = "sent"
	MessageStatusFailed  MessageStatus = "failed"
)
